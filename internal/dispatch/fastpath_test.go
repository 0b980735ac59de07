package dispatch

import (
	"testing"

	"genesys/internal/sequence"
	"genesys/internal/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalise(t *testing.T) {
	tests := map[string]string{
		"What are the sequence IDs?":           "what are the sequence ids",
		"  List   the\tsequence IDs  ":         "list the sequence ids",
		"tell me the descriptive statistics":   "tell me the descriptive statistics",
		"How many sequences are in the file ?": "how many sequences are in the file",
		"":                                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalise(in), in)
	}
}

func TestIsSequenceIDIntent(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"What are the sequence IDs in the uploaded FASTA file?", true},
		{"give me every sequence id", true},
		{"Which identifiers does each sequence have?", true},
		{"list the IDs of the sequences", true},
		{"What is the GC content?", false},
		{"Translate the sequence", false},
		{"Which ids are valid?", false},
		{"sequences with hidden motifs", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, isSequenceIDIntent(tt.question))
		})
	}
}

func TestFastSequenceAnswer(t *testing.T) {
	records, err := sequence.ParseString(twoSequences)
	require.NoError(t, err)

	ans, ok := fastSequenceAnswer("what are the sequence ids in the uploaded file", records)
	assert.True(t, ok)
	assert.Equal(t, "The sequence IDs are: Sequence1, Sequence2", ans)

	ans, ok = fastSequenceAnswer("LIST THE SEQUENCE IDS", records)
	assert.True(t, ok)
	assert.Equal(t, "The sequence IDs are: Sequence1, Sequence2", ans)

	_, ok = fastSequenceAnswer("What are the sequence IDs and their lengths?", records)
	assert.False(t, ok, "only the canned phrases take the fast path")
}

func TestFastCSVAnswer(t *testing.T) {
	summary, err := tabular.SummarizeString("name,length\nA,10\nB,20\n")
	require.NoError(t, err)

	ans, ok := fastCSVAnswer("What are the columns of the dataframe?", summary)
	require.True(t, ok)
	assert.Contains(t, ans, "name")
	assert.Contains(t, ans, "length")

	ans, ok = fastCSVAnswer("Tell me the descriptive statistics", summary)
	require.True(t, ok)
	assert.Contains(t, ans, "mean")

	_, ok = fastCSVAnswer("Which row is longest?", summary)
	assert.False(t, ok)
}
