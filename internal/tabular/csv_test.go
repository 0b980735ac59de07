package tabular

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `gene,length,gc
brca1,100,40.5
tp53,200,50
egfr,300,
myc,400,60.5
kras,500,55
apoe,600,45
`

func TestSummarize(t *testing.T) {
	s, err := SummarizeString(sample)
	require.NoError(t, err)

	assert.Equal(t, 6, s.Rows)
	assert.Equal(t, []string{"gene", "length", "gc"}, s.Columns)
	assert.Equal(t, "(6, 3)", s.Shape())
	assert.Len(t, s.Head, HeadRows)
	assert.Equal(t, []string{"brca1", "100", "40.5"}, s.Head[0])

	require.Len(t, s.Numeric, 2)
	length := s.Numeric[0]
	assert.Equal(t, "length", length.Name)
	assert.Equal(t, 6, length.Count)
	assert.InDelta(t, 350, length.Mean, 1e-9)
	assert.InDelta(t, 187.0828693, length.Std, 1e-6)
	assert.InDelta(t, 225, length.Q25, 1e-9)
	assert.InDelta(t, 350, length.Q50, 1e-9)
	assert.InDelta(t, 475, length.Q75, 1e-9)
	assert.Equal(t, 100.0, length.Min)
	assert.Equal(t, 600.0, length.Max)

	gc := s.Numeric[1]
	assert.Equal(t, 5, gc.Count)
	assert.InDelta(t, 50.2, gc.Mean, 1e-9)
}

func TestSummarize_NonNumericColumnDropped(t *testing.T) {
	s, err := SummarizeString("a,b\n1,x\n2,3\n")
	require.NoError(t, err)
	require.Len(t, s.Numeric, 1)
	assert.Equal(t, "a", s.Numeric[0].Name)
	assert.True(t, math.IsNaN(describe("v", []float64{1}).Std))
}

func TestQuantileClosestRanks(t *testing.T) {
	tests := []struct {
		vals []float64
		q    float64
		want float64
	}{
		{[]float64{1, 2, 3, 4}, 0.25, 1.75},
		{[]float64{1, 2, 3, 4}, 0.50, 2.5},
		{[]float64{1, 2, 3, 4}, 0.75, 3.25},
		{[]float64{10, 20, 30}, 0.50, 20},
		{[]float64{10, 20, 30}, 0.25, 15},
		{[]float64{7}, 0.25, 7},
		{[]float64{7}, 0.75, 7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(tt.vals, tt.q), 1e-9, "%v q=%v", tt.vals, tt.q)
	}

	st := describe("v", []float64{4, 1, 3, 2})
	assert.InDelta(t, 2.5, st.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487, st.Std, 1e-9)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 4.0, st.Max)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := SummarizeString("")
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = SummarizeString("a,b\n1,2,3\n")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRendering(t *testing.T) {
	s, err := SummarizeString("x,y\n1,2\n3,4\n")
	require.NoError(t, err)

	assert.Equal(t, "x\ny", s.ColumnList())
	assert.Equal(t, "   x  y\n0  1  2\n1  3  4", s.HeadTable())

	desc := s.Describe()
	assert.Contains(t, desc, "count         2         2")
	assert.Contains(t, desc, " mean  2.000000  3.000000")

	text := s.String()
	assert.Contains(t, text, "Shape: (2, 2)")
	assert.Contains(t, text, "First 2 rows:")

	empty, err := SummarizeString("name\nfoo\n")
	require.NoError(t, err)
	assert.Equal(t, "No numeric columns.", empty.Describe())
}
