package sequence

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Node is a phylogenetic tree node. Leaves carry record IDs; inner nodes are
// named Inner1, Inner2, ... in merge order.
type Node struct {
	Name         string
	BranchLength float64
	Children     []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Tree is a rooted tree built by UPGMA.
type Tree struct {
	Root *Node
}

// Leaves returns leaf names in left-to-right order.
func (t *Tree) Leaves() []string {
	var out []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n.Name)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

// DistanceMatrix returns pairwise identity distances (1 - identity) over the
// naive alignment.
func DistanceMatrix(records []Record) [][]float64 {
	a := Align(records)
	n := len(records)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := 1 - a.Identity(i, j)
			d[i][j], d[j][i] = dist, dist
		}
	}
	return d
}

type cluster struct {
	node   *Node
	size   int
	height float64
}

// BuildTree clusters records with UPGMA over identity distance. Ties merge
// the earliest pair first.
func BuildTree(records []Record) (*Tree, error) {
	if len(records) == 0 {
		return nil, ErrEmptySequenceSet
	}

	dist := DistanceMatrix(records)
	clusters := make([]*cluster, len(records))
	for i, r := range records {
		clusters[i] = &cluster{node: &Node{Name: r.ID}, size: 1}
	}

	inner := 0
	for len(clusters) > 1 {
		bi, bj := 0, 1
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if dist[i][j] < dist[bi][bj] {
					bi, bj = i, j
				}
			}
		}

		a, b := clusters[bi], clusters[bj]
		height := dist[bi][bj] / 2
		a.node.BranchLength = nonNegative(height - a.height)
		b.node.BranchLength = nonNegative(height - b.height)
		inner++
		merged := &cluster{
			node:   &Node{Name: "Inner" + strconv.Itoa(inner), Children: []*Node{a.node, b.node}},
			size:   a.size + b.size,
			height: height,
		}

		// New distance row: size-weighted average of the merged pair.
		row := make([]float64, 0, len(clusters)-1)
		keep := make([]int, 0, len(clusters)-2)
		for k := range clusters {
			if k == bi || k == bj {
				continue
			}
			keep = append(keep, k)
			row = append(row, (dist[bi][k]*float64(a.size)+dist[bj][k]*float64(b.size))/float64(merged.size))
		}

		next := make([]*cluster, 0, len(keep)+1)
		nd := make([][]float64, len(keep)+1)
		for x, k := range keep {
			next = append(next, clusters[k])
			nd[x] = make([]float64, len(keep)+1)
			for y, l := range keep {
				nd[x][y] = dist[k][l]
			}
			nd[x][len(keep)] = row[x]
		}
		next = append(next, merged)
		nd[len(keep)] = append(append([]float64{}, row...), 0)

		clusters, dist = next, nd
	}

	return &Tree{Root: clusters[0].node}, nil
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// Newick renders the tree in Newick format.
func (t *Tree) Newick() string {
	var b strings.Builder
	writeNewick(&b, t.Root, true)
	b.WriteByte(';')
	return b.String()
}

func writeNewick(b *strings.Builder, n *Node, root bool) {
	if !n.IsLeaf() {
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewick(b, c, false)
		}
		b.WriteByte(')')
	}
	b.WriteString(n.Name)
	if !root {
		b.WriteString(":" + strconv.FormatFloat(n.BranchLength, 'f', 5, 64))
	}
}

type phyloXML struct {
	XMLName   xml.Name     `xml:"phyloxml"`
	Xmlns     string       `xml:"xmlns,attr"`
	Phylogeny phyloXMLTree `xml:"phylogeny"`
}

type phyloXMLTree struct {
	Rooted bool          `xml:"rooted,attr"`
	Clade  phyloXMLClade `xml:"clade"`
}

type phyloXMLClade struct {
	BranchLength *float64        `xml:"branch_length,omitempty"`
	Name         string          `xml:"name,omitempty"`
	Clades       []phyloXMLClade `xml:"clade"`
}

func toClade(n *Node, root bool) phyloXMLClade {
	c := phyloXMLClade{Name: n.Name}
	if !root {
		bl := n.BranchLength
		c.BranchLength = &bl
	}
	for _, child := range n.Children {
		c.Clades = append(c.Clades, toClade(child, false))
	}
	return c
}

// PhyloXML renders the tree as a phyloXML document.
func (t *Tree) PhyloXML() (string, error) {
	doc := phyloXML{
		Xmlns:     "http://www.phyloxml.org",
		Phylogeny: phyloXMLTree{Rooted: true, Clade: toClade(t.Root, true)},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode phyloXML: %w", err)
	}
	return xml.Header + string(out), nil
}
