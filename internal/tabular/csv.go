// Package tabular produces deterministic summaries of CSV uploads.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyTable is returned when the input has no header row.
	ErrEmptyTable = errors.New("empty table")

	// ErrMalformed wraps CSV syntax errors and ragged rows.
	ErrMalformed = errors.New("malformed CSV")
)

// HeadRows is how many rows Summary.Head keeps.
const HeadRows = 5

// ColumnStats describes one numeric column.
type ColumnStats struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// Summary is the deterministic description of a table.
type Summary struct {
	Rows    int           `json:"rows"`
	Columns []string      `json:"columns"`
	Numeric []ColumnStats `json:"numeric"`
	Head    [][]string    `json:"head"`
}

// Summarize reads a CSV with a header row. A column is numeric when every
// non-empty cell parses as a float and at least one cell is non-empty.
func Summarize(r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	s := &Summary{Columns: header}
	values := make([][]float64, len(header))
	numeric := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		s.Rows++
		if len(s.Head) < HeadRows {
			s.Head = append(s.Head, row)
		}
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if !numeric[i] || cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric[i] = false
				values[i] = nil
				continue
			}
			values[i] = append(values[i], v)
		}
	}

	for i, name := range header {
		if numeric[i] && len(values[i]) > 0 {
			s.Numeric = append(s.Numeric, describe(name, values[i]))
		}
	}
	return s, nil
}

// SummarizeString is Summarize over a string.
func SummarizeString(content string) (*Summary, error) {
	return Summarize(strings.NewReader(content))
}

func describe(name string, vals []float64) ColumnStats {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)

	std := math.NaN()
	if n > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return ColumnStats{
		Name:  name,
		Count: n,
		Mean:  stat.Mean(sorted, nil),
		Std:   std,
		Min:   sorted[0],
		Q25:   quantile(sorted, 0.25),
		Q50:   quantile(sorted, 0.50),
		Q75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
}

// quantile interpolates between closest ranks at position q*(n-1).
// stat.LinInterp interpolates at q*n on a one-based rank, so q is shifted
// onto that scale before the call.
func quantile(sorted []float64, q float64) float64 {
	n := float64(len(sorted))
	p := (q*(n-1) + 1) / n
	return stat.Quantile(math.Min(p, 1), stat.LinInterp, sorted, nil)
}

// Shape renders "(rows, columns)".
func (s *Summary) Shape() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, len(s.Columns))
}

// ColumnList renders the column names one per line.
func (s *Summary) ColumnList() string {
	return strings.Join(s.Columns, "\n")
}

// Describe renders the numeric statistics as an aligned table.
func (s *Summary) Describe() string {
	if len(s.Numeric) == 0 {
		return "No numeric columns."
	}
	labels := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	rows := [][]string{append([]string{""}, labels...)}
	for _, c := range s.Numeric {
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Count),
			formatFloat(c.Mean),
			formatFloat(c.Std),
			formatFloat(c.Min),
			formatFloat(c.Q25),
			formatFloat(c.Q50),
			formatFloat(c.Q75),
			formatFloat(c.Max),
		})
	}
	return renderColumns(transpose(rows))
}

// HeadTable renders the header and the first rows as an aligned table.
func (s *Summary) HeadTable() string {
	rows := [][]string{append([]string{""}, s.Columns...)}
	for i, r := range s.Head {
		rows = append(rows, append([]string{strconv.Itoa(i)}, r...))
	}
	return renderColumns(rows)
}

// String renders everything, used as model context for CSV questions.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shape: %s\n", s.Shape())
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(s.Columns, ", "))
	fmt.Fprintf(&b, "Descriptive statistics:\n%s\n\n", s.Describe())
	fmt.Fprintf(&b, "First %d rows:\n%s", len(s.Head), s.HeadTable())
	return b.String()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func transpose(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]string, len(rows[0]))
	for i := range out {
		out[i] = make([]string, len(rows))
		for j := range rows {
			out[i][j] = rows[j][i]
		}
	}
	return out
}

func renderColumns(rows [][]string) string {
	widths := map[int]int{}
	for _, r := range rows {
		for i, cell := range r {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	lines := make([]string, len(rows))
	for j, r := range rows {
		cells := make([]string, len(r))
		for i, cell := range r {
			cells[i] = fmt.Sprintf("%*s", widths[i], cell)
		}
		lines[j] = strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	return strings.Join(lines, "\n")
}
