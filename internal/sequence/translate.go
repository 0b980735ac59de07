package sequence

import (
	"fmt"
	"strings"
)

var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// Bases each IUPAC code can stand for.
var ambiguity = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT",
	'K': "GT", 'M': "AC", 'B': "CGT", 'D': "AGT",
	'H': "ACT", 'V': "ACG", 'N': "ACGT",
}

// Translate converts a nucleotide sequence to protein using the standard
// table, reading frame 0. A trailing partial codon is dropped. Stops are
// written as '*'; with toStop, translation ends before the first stop.
// Codons with ambiguity codes resolve when every expansion agrees, else 'X'.
func Translate(residues string, toStop bool) (string, error) {
	if err := requireNucleotide("translation", residues); err != nil {
		return "", err
	}
	return translate(residues, toStop), nil
}

func translate(residues string, toStop bool) string {
	s := strings.ReplaceAll(strings.ToUpper(residues), "U", "T")
	var b strings.Builder
	b.Grow(len(s) / 3)
	for i := 0; i+3 <= len(s); i += 3 {
		aa := translateCodon(s[i : i+3])
		if toStop && aa == '*' {
			break
		}
		b.WriteByte(aa)
	}
	return b.String()
}

func translateCodon(codon string) byte {
	if aa, ok := codonTable[codon]; ok {
		return aa
	}
	x, ok1 := ambiguity[codon[0]]
	y, ok2 := ambiguity[codon[1]]
	z, ok3 := ambiguity[codon[2]]
	if !ok1 || !ok2 || !ok3 {
		return 'X'
	}
	var result byte
	for i := 0; i < len(x); i++ {
		for j := 0; j < len(y); j++ {
			for k := 0; k < len(z); k++ {
				aa := codonTable[string([]byte{x[i], y[j], z[k]})]
				if result != 0 && aa != result {
					return 'X'
				}
				result = aa
			}
		}
	}
	return result
}

// ORF is one open reading frame found by OpenReadingFrames.
type ORF struct {
	Strand  int    `json:"strand"` // +1 forward, -1 reverse complement
	Frame   int    `json:"frame"`  // 0, 1 or 2
	Protein string `json:"protein"`
}

// OpenReadingFrames translates the three forward and three reverse-complement
// frames, splits each translation on stop codons and keeps pieces of at least
// minLen residues. No hits yields an empty, non-nil slice. minLen must be
// at least 1; a zero length would report the empty gaps between stops.
func OpenReadingFrames(residues string, minLen int) ([]ORF, error) {
	if minLen < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMinLength, minLen)
	}
	if err := requireNucleotide("open reading frame search", residues); err != nil {
		return nil, err
	}
	rc, err := ReverseComplement(residues)
	if err != nil {
		return nil, err
	}

	orfs := []ORF{}
	for _, strand := range []struct {
		sign int
		nuc  string
	}{{+1, residues}, {-1, rc}} {
		for frame := 0; frame < 3 && frame < len(strand.nuc); frame++ {
			for _, piece := range strings.Split(translate(strand.nuc[frame:], false), "*") {
				if len(piece) >= minLen {
					orfs = append(orfs, ORF{Strand: strand.sign, Frame: frame, Protein: piece})
				}
			}
		}
	}
	return orfs, nil
}
