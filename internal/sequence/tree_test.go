package sequence

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeRecords() []Record {
	return []Record{
		{ID: "A", Residues: "AAAA"},
		{ID: "B", Residues: "AAAT"},
		{ID: "C", Residues: "TTTT"},
	}
}

func TestDistanceMatrix(t *testing.T) {
	d := DistanceMatrix(threeRecords())
	assert.InDelta(t, 0.25, d[0][1], 1e-9)
	assert.InDelta(t, 1.0, d[0][2], 1e-9)
	assert.InDelta(t, 0.75, d[1][2], 1e-9)
	assert.Equal(t, d[1][2], d[2][1])
	assert.Zero(t, d[1][1])
}

func TestBuildTree_UPGMA(t *testing.T) {
	tree, err := BuildTree(threeRecords())
	require.NoError(t, err)

	assert.Equal(t, "(C:0.43750,(A:0.12500,B:0.12500)Inner1:0.31250)Inner2;", tree.Newick())
	assert.ElementsMatch(t, []string{"A", "B", "C"}, tree.Leaves())
}

func TestBuildTree_SingleRecord(t *testing.T) {
	tree, err := BuildTree([]Record{{ID: "only", Residues: "ACGT"}})
	require.NoError(t, err)
	assert.Equal(t, "only;", tree.Newick())

	_, err = BuildTree(nil)
	assert.ErrorIs(t, err, ErrEmptySequenceSet)
}

func TestPhyloXML(t *testing.T) {
	tree, err := BuildTree(threeRecords())
	require.NoError(t, err)

	out, err := tree.PhyloXML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<phyloxml xmlns="http://www.phyloxml.org">`)
	assert.Contains(t, out, `<phylogeny rooted="true">`)
	assert.Contains(t, out, "<name>Inner2</name>")
	assert.Contains(t, out, "<branch_length>0.4375</branch_length>")

	var doc phyloXML
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Inner2", doc.Phylogeny.Clade.Name)
	assert.Len(t, doc.Phylogeny.Clade.Clades, 2)
}
