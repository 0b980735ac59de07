// Package structure summarises PDB coordinate files.
package structure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrNoStructure is returned when the input has no HEADER, ATOM or HETATM records.
var ErrNoStructure = errors.New("no structure records found")

// Summary describes one PDB entry.
type Summary struct {
	IDCode         string   `json:"id_code,omitempty"`
	Classification string   `json:"classification,omitempty"`
	Title          string   `json:"title,omitempty"`
	Models         int      `json:"models"`
	Atoms          int      `json:"atoms"`
	HeteroAtoms    int      `json:"hetero_atoms"`
	Waters         int      `json:"waters"`
	Residues       int      `json:"residues"`
	Chains         []string `json:"chains"`
	Ligands        []string `json:"ligands"`
}

type residueKey struct {
	chain   string
	seq     string
	insert  string
	resName string
}

// Parse reads fixed-column PDB records. Only the first model is counted for
// atoms and residues; MODEL records are still tallied.
func Parse(r io.Reader) (*Summary, error) {
	s := &Summary{}
	residues := make(map[residueKey]struct{})
	chains := make(map[string]struct{})
	ligands := make(map[string]struct{})

	var title []string
	found := false
	inFirstModel := true

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch recordName(line) {
		case "HEADER":
			found = true
			s.Classification = column(line, 11, 50)
			s.IDCode = column(line, 63, 66)
		case "TITLE":
			title = append(title, column(line, 11, 80))
		case "MODEL":
			s.Models++
			inFirstModel = s.Models == 1
		case "ATOM":
			found = true
			if !inFirstModel {
				continue
			}
			s.Atoms++
			chain := column(line, 22, 22)
			if chain != "" {
				chains[chain] = struct{}{}
			}
			residues[residueKey{chain, column(line, 23, 26), column(line, 27, 27), column(line, 18, 20)}] = struct{}{}
		case "HETATM":
			found = true
			if !inFirstModel {
				continue
			}
			name := column(line, 18, 20)
			if name == "HOH" || name == "WAT" {
				s.Waters++
				continue
			}
			s.HeteroAtoms++
			ligands[name] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read structure: %w", err)
	}
	if !found {
		return nil, ErrNoStructure
	}

	if s.Models == 0 {
		s.Models = 1
	}
	s.Title = strings.Join(strings.Fields(strings.Join(title, " ")), " ")
	s.Residues = len(residues)
	s.Chains = sortedKeys(chains)
	s.Ligands = sortedKeys(ligands)
	return s, nil
}

// ParseString is Parse over a string.
func ParseString(content string) (*Summary, error) {
	return Parse(strings.NewReader(content))
}

// String renders the summary as short text.
func (s *Summary) String() string {
	var b strings.Builder
	if s.IDCode != "" {
		fmt.Fprintf(&b, "PDB entry %s", s.IDCode)
		if s.Classification != "" {
			fmt.Fprintf(&b, " (%s)", s.Classification)
		}
		b.WriteString("\n")
	}
	if s.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", s.Title)
	}
	fmt.Fprintf(&b, "Models: %d\n", s.Models)
	fmt.Fprintf(&b, "Chains: %s\n", joinOrNone(s.Chains))
	fmt.Fprintf(&b, "Residues: %d\n", s.Residues)
	fmt.Fprintf(&b, "Atoms: %d\n", s.Atoms)
	fmt.Fprintf(&b, "Hetero atoms: %d (ligands: %s)\n", s.HeteroAtoms, joinOrNone(s.Ligands))
	fmt.Fprintf(&b, "Waters: %d", s.Waters)
	return b.String()
}

func recordName(line string) string {
	return strings.TrimSpace(column(line, 1, 6))
}

// column returns the 1-based inclusive [from, to] columns, trimmed. Short
// lines yield whatever is present.
func column(line string, from, to int) string {
	if from > len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from-1 : to])
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
