package sequence

import (
	"fmt"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/alignment"
	"github.com/biogo/biogo/seq/linear"
)

// Alignment is a naive multiple alignment: sequences padded with '-' to the
// longest length, no gap placement.
type Alignment struct {
	IDs  []string `json:"ids"`
	Rows []string `json:"rows"`
}

// Align pads every record to a common length. Rows are added to a biogo
// column alignment, which fills positions past a record's end with the gap
// letter.
func Align(records []Record) Alignment {
	width := 0
	rows := make([]seq.Sequence, len(records))
	for i, r := range records {
		width = max(width, r.Len())
		rows[i] = linear.NewSeq(r.ID, alphabet.BytesToLetters([]byte(r.Residues)), alphabet.Protein)
	}

	msa := &alignment.Seq{
		Annotation: seq.Annotation{ID: "msa", Alpha: alphabet.Protein},
		Seq:        make(alphabet.Columns, width),
	}
	_ = msa.Add(rows...)

	a := Alignment{IDs: make([]string, len(records)), Rows: make([]string, len(records))}
	for i, r := range records {
		row := make([]byte, width)
		for col := range row {
			row[col] = byte(msa.Column(col, true)[i])
		}
		a.IDs[i] = r.ID
		a.Rows[i] = string(row)
	}
	return a
}

// Columns returns the alignment width.
func (a Alignment) Columns() int {
	if len(a.Rows) == 0 {
		return 0
	}
	return len(a.Rows[0])
}

// Consensus marks columns: '*' when every row has the same non-gap residue,
// ' ' otherwise.
func (a Alignment) Consensus() string {
	out := make([]byte, a.Columns())
	for col := range out {
		out[col] = '*'
		first := a.Rows[0][col]
		if first == '-' {
			out[col] = ' '
			continue
		}
		for _, row := range a.Rows[1:] {
			if row[col] != first {
				out[col] = ' '
				break
			}
		}
	}
	return string(out)
}

// String renders the alignment one row per line followed by the ID.
func (a Alignment) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alignment with %d rows and %d columns\n", len(a.Rows), a.Columns())
	for i, row := range a.Rows {
		fmt.Fprintf(&b, "%s %s\n", row, a.IDs[i])
	}
	if len(a.Rows) > 1 {
		fmt.Fprintf(&b, "%s\n", a.Consensus())
	}
	return b.String()
}

// Identity returns the fraction of columns in which rows i and j carry the
// same non-gap residue.
func (a Alignment) Identity(i, j int) float64 {
	cols := a.Columns()
	if cols == 0 {
		return 1
	}
	same := 0
	for c := 0; c < cols; c++ {
		x, y := a.Rows[i][c], a.Rows[j][c]
		if x == y && x != '-' {
			same++
		}
	}
	return float64(same) / float64(cols)
}

// SNP is a column where at least one record differs from the reference
// (first) record. Gap columns are skipped.
type SNP struct {
	Position  int               `json:"position"`
	Reference string            `json:"reference"`
	Variants  map[string]string `json:"variants"` // record ID -> residue
}

// DetectSNPs compares every record against the first over the naive
// alignment.
func DetectSNPs(records []Record) ([]SNP, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: SNP detection needs a reference and at least one other sequence", ErrInsufficientRecords)
	}
	a := Align(records)
	ref := a.Rows[0]

	snps := []SNP{}
	for col := 0; col < a.Columns(); col++ {
		if ref[col] == '-' {
			continue
		}
		var variants map[string]string
		for i, row := range a.Rows[1:] {
			c := row[col]
			if c == '-' || c == ref[col] {
				continue
			}
			if variants == nil {
				variants = make(map[string]string)
			}
			variants[a.IDs[i+1]] = string(c)
		}
		if variants != nil {
			snps = append(snps, SNP{Position: col, Reference: string(ref[col]), Variants: variants})
		}
	}
	return snps, nil
}

// Stats is a per-record summary.
type Stats struct {
	ID        string  `json:"id"`
	Length    int     `json:"length"`
	Type      Type    `json:"type"`
	GCContent float64 `json:"gc_content"`
}

// Statistics summarises every record.
func Statistics(records []Record) []Stats {
	out := make([]Stats, len(records))
	for i, r := range records {
		out[i] = Stats{ID: r.ID, Length: r.Len(), Type: DetectType(r.Residues), GCContent: GCContent(r.Residues)}
	}
	return out
}
