package sequence

import (
	"fmt"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// isNucleotide reports whether every residue is an IUPAC nucleotide code
// (U included).
func isNucleotide(residues string) bool {
	for i := 0; i < len(residues); i++ {
		c := alphabet.Letter(residues[i])
		if !alphabet.DNAredundant.IsValid(c) && !alphabet.RNAredundant.IsValid(c) {
			return false
		}
	}
	return true
}

func requireNucleotide(op, residues string) error {
	if !isNucleotide(residues) {
		return fmt.Errorf("%w: %s needs a nucleotide sequence", ErrUnsupportedAlphabet, op)
	}
	return nil
}

// nucleicSeq builds a biogo sequence over the redundant DNA or RNA alphabet.
// Input with U and no T is RNA; any U in DNA input is read as T.
func nucleicSeq(residues string) *linear.Seq {
	s := strings.ToUpper(residues)
	if strings.ContainsRune(s, 'U') && !strings.ContainsRune(s, 'T') {
		return linear.NewSeq("", alphabet.BytesToLetters([]byte(s)), alphabet.RNAredundant)
	}
	s = strings.ReplaceAll(s, "U", "T")
	return linear.NewSeq("", alphabet.BytesToLetters([]byte(s)), alphabet.DNAredundant)
}

// Transcribe converts DNA to RNA (T -> U).
func Transcribe(residues string) (string, error) {
	if err := requireNucleotide("transcription", residues); err != nil {
		return "", err
	}
	return strings.ReplaceAll(strings.ToUpper(residues), "T", "U"), nil
}

// Complement returns the base-wise complement. RNA input (U without T)
// complements A to U.
func Complement(residues string) (string, error) {
	if err := requireNucleotide("complement", residues); err != nil {
		return "", err
	}
	ns := nucleicSeq(residues)
	table := ns.Alphabet().(alphabet.Complementor).ComplementTable()
	for i, l := range ns.Seq {
		ns.Seq[i] = table[l]
	}
	return ns.String(), nil
}

// ReverseComplement returns the complement read 3' to 5'.
func ReverseComplement(residues string) (string, error) {
	if err := requireNucleotide("reverse complement", residues); err != nil {
		return "", err
	}
	ns := nucleicSeq(residues)
	ns.RevComp()
	return ns.String(), nil
}

// Reverse reverses a residue string.
func Reverse(residues string) string {
	b := []byte(residues)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// GCContent returns the G+C (and S) percentage over unambiguous bases
// (A, C, G, T, U, S, W). Returns 0 when there are none.
func GCContent(residues string) float64 {
	var gc, total int
	for i := 0; i < len(residues); i++ {
		switch upper(residues[i]) {
		case 'G', 'C', 'S':
			gc++
			total++
		case 'A', 'T', 'U', 'W':
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(gc) / float64(total) * 100
}
