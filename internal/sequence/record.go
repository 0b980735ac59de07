// Package sequence implements the FASTA sequence toolkit: parsing, alphabet
// detection, nucleotide transforms, translation, physico-chemical properties,
// motif and restriction-site search, naive alignment and UPGMA trees.
//
// Every function is pure and request-scoped.
package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Record is one parsed FASTA entry.
type Record struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Residues    string `json:"residues"`
}

// Len returns the number of residues.
func (r Record) Len() int {
	return len(r.Residues)
}

// Parse reads every record from FASTA text. IDs run up to the first
// whitespace of the header; residues are upper-cased.
func Parse(r io.Reader) ([]Record, error) {
	reader := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))

	var records []Record
	for {
		s, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected record type %T", ErrParse, s)
		}
		if ls.Name() == "" {
			return nil, fmt.Errorf("%w: record %d has an empty identifier", ErrParse, len(records)+1)
		}
		records = append(records, Record{
			ID:          ls.Name(),
			Description: ls.Description(),
			Residues:    strings.ToUpper(string(ls.Seq)),
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptySequenceSet
	}
	return records, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) ([]Record, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes is Parse over an in-memory buffer.
func ParseBytes(b []byte) ([]Record, error) {
	return Parse(bytes.NewReader(b))
}

// IDs returns the identifier of every record, in file order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// Select returns the records a single-sequence operation should act on:
// only the first one unless all is set.
func Select(records []Record, all bool) []Record {
	if all || len(records) <= 1 {
		return records
	}
	return records[:1]
}
