package sequence

import (
	"fmt"
	"math"
	"strings"
)

// Average masses (Da) of nucleotide monophosphates and free amino acids.
var (
	dnaWeights = map[byte]float64{
		'A': 331.2218, 'C': 307.1971, 'G': 347.2212, 'T': 322.2085,
	}
	rnaWeights = map[byte]float64{
		'A': 347.2212, 'C': 323.1965, 'G': 363.2206, 'U': 324.1813,
	}
	proteinWeights = map[byte]float64{
		'A': 89.0932, 'C': 121.1582, 'D': 133.1027, 'E': 147.1293,
		'F': 165.1891, 'G': 75.0666, 'H': 155.1546, 'I': 131.1729,
		'K': 146.1876, 'L': 131.1729, 'M': 149.2113, 'N': 132.1179,
		'O': 255.3134, 'P': 115.1305, 'Q': 146.1445, 'R': 174.201,
		'S': 105.0926, 'T': 119.1192, 'U': 168.0532, 'V': 117.1463,
		'W': 204.2252, 'Y': 181.1885,
	}
)

const waterMass = 18.0153

// MolecularWeight returns the average mass of a single-stranded sequence.
// The table is chosen by DetectType; one water is lost per bond.
func MolecularWeight(residues string) (float64, error) {
	s := strings.ToUpper(residues)
	if s == "" {
		return 0, nil
	}

	table := proteinWeights
	switch DetectType(s) {
	case DNA:
		table = dnaWeights
	case RNA:
		table = rnaWeights
	}

	var sum float64
	for i := 0; i < len(s); i++ {
		w, ok := table[s[i]]
		if !ok {
			return 0, fmt.Errorf("%w: no mass for residue %q", ErrUnsupportedAlphabet, s[i])
		}
		sum += w
	}
	return sum - float64(len(s)-1)*waterMass, nil
}

var (
	positivePKs  = map[byte]float64{'K': 10.0, 'R': 12.0, 'H': 5.98}
	negativePKs  = map[byte]float64{'D': 4.05, 'E': 4.45, 'C': 9.0, 'Y': 10.0}
	nTermPKs     = map[byte]float64{'A': 7.59, 'M': 7.0, 'S': 6.93, 'P': 8.36, 'T': 6.82, 'V': 7.44, 'E': 7.7}
	cTermPKs     = map[byte]float64{'D': 4.55, 'E': 4.75}
	defaultNTerm = 9.0
	defaultCTerm = 2.0
)

// ChargeAt returns the net charge of a peptide at the given pH.
func ChargeAt(residues string, pH float64) float64 {
	s := strings.ToUpper(residues)
	nTerm, cTerm := defaultNTerm, defaultCTerm
	if s != "" {
		if pk, ok := nTermPKs[s[0]]; ok {
			nTerm = pk
		}
		if pk, ok := cTermPKs[s[len(s)-1]]; ok {
			cTerm = pk
		}
	}

	charge := 1/(math.Pow(10, pH-nTerm)+1) - 1/(math.Pow(10, cTerm-pH)+1)
	for i := 0; i < len(s); i++ {
		if pk, ok := positivePKs[s[i]]; ok {
			charge += 1 / (math.Pow(10, pH-pk) + 1)
		}
		if pk, ok := negativePKs[s[i]]; ok {
			charge -= 1 / (math.Pow(10, pk-pH) + 1)
		}
	}
	return charge
}

// IsoelectricPoint finds the pH at which the net charge is zero by
// bisection over [0, 14].
func IsoelectricPoint(residues string) float64 {
	lo, hi := 0.0, 14.0
	for hi-lo > 1e-4 {
		mid := (lo + hi) / 2
		if ChargeAt(residues, mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Round((lo+hi)/2*100) / 100
}
