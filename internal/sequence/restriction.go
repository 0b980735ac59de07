package sequence

import (
	"fmt"
	"sort"
	"strings"
)

// Enzyme is a restriction endonuclease. Recognition uses IUPAC codes with
// '^' marking the cut on the top strand.
type Enzyme struct {
	Name        string `json:"name"`
	Recognition string `json:"recognition"`
}

// Enzymes is the built-in enzyme table.
var Enzymes = map[string]Enzyme{
	"AluI":    {"AluI", "AG^CT"},
	"ApeKI":   {"ApeKI", "G^CWGC"},
	"BamHI":   {"BamHI", "G^GATCC"},
	"BglII":   {"BglII", "A^GATCT"},
	"EcoRI":   {"EcoRI", "G^AATTC"},
	"EcoRV":   {"EcoRV", "GAT^ATC"},
	"HaeIII":  {"HaeIII", "GG^CC"},
	"HindIII": {"HindIII", "A^AGCTT"},
	"KpnI":    {"KpnI", "GGTAC^C"},
	"MseI":    {"MseI", "T^TAA"},
	"MspI":    {"MspI", "C^CGG"},
	"NcoI":    {"NcoI", "C^CATGG"},
	"NdeI":    {"NdeI", "CA^TATG"},
	"NotI":    {"NotI", "GC^GGCCGC"},
	"PstI":    {"PstI", "CTGCA^G"},
	"SacI":    {"SacI", "GAGCT^C"},
	"SalI":    {"SalI", "G^TCGAC"},
	"SbfI":    {"SbfI", "CCTGCA^GG"},
	"SmaI":    {"SmaI", "CCC^GGG"},
	"XbaI":    {"XbaI", "T^CTAGA"},
	"XhoI":    {"XhoI", "C^TCGAG"},
}

// EnzymeNames returns the table's names in sorted order.
func EnzymeNames() []string {
	names := make([]string, 0, len(Enzymes))
	for n := range Enzymes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupEnzyme resolves a name case-insensitively.
func LookupEnzyme(name string) (Enzyme, bool) {
	if e, ok := Enzymes[name]; ok {
		return e, true
	}
	for n, e := range Enzymes {
		if strings.EqualFold(n, name) {
			return e, true
		}
	}
	return Enzyme{}, false
}

// Site and cut offset with the caret removed.
func (e Enzyme) Site() (string, int) {
	i := strings.IndexByte(e.Recognition, '^')
	if i < 0 {
		return e.Recognition, len(e.Recognition) / 2
	}
	return e.Recognition[:i] + e.Recognition[i+1:], i
}

// 4-bit base masks. 'N' in a pattern matches anything; in the sequence it
// matches nothing.
var baseMask = map[byte]uint8{
	'A': 1, 'C': 2, 'G': 4, 'T': 8, 'U': 8,
	'R': 1 | 4, 'Y': 2 | 8, 'S': 2 | 4, 'W': 1 | 8,
	'K': 4 | 8, 'M': 1 | 2, 'B': 2 | 4 | 8, 'D': 1 | 4 | 8,
	'H': 1 | 2 | 8, 'V': 1 | 2 | 4, 'N': 1 | 2 | 4 | 8,
}

func compileMask(site string) []uint8 {
	m := make([]uint8, len(site))
	for i := 0; i < len(site); i++ {
		m[i] = baseMask[upper(site[i])]
	}
	return m
}

func seqMask(b byte) uint8 {
	b = upper(b)
	if b == 'N' {
		return 0
	}
	return baseMask[b]
}

// CutSite is one recognition-site hit.
type CutSite struct {
	Enzyme   string `json:"enzyme"`
	Position int    `json:"position"` // 0-based start of the recognition site
	Cut      int    `json:"cut"`      // 0-based index of the first base after the cut
}

// RestrictionSites scans the top strand for the named enzymes (all known
// enzymes when names is empty). Hits are ordered by position, then name.
func RestrictionSites(residues string, names []string) ([]CutSite, error) {
	if err := requireNucleotide("restriction site search", residues); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = EnzymeNames()
	}

	sites := []CutSite{}
	for _, name := range names {
		e, ok := LookupEnzyme(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEnzyme, name)
		}
		site, offset := e.Site()
		mask := compileMask(site)
	scan:
		for i := 0; i+len(mask) <= len(residues); i++ {
			for j, m := range mask {
				if seqMask(residues[i+j])&m == 0 {
					continue scan
				}
			}
			sites = append(sites, CutSite{Enzyme: e.Name, Position: i, Cut: i + offset})
		}
	}

	sort.SliceStable(sites, func(a, b int) bool {
		if sites[a].Position != sites[b].Position {
			return sites[a].Position < sites[b].Position
		}
		return sites[a].Enzyme < sites[b].Enzyme
	})
	return sites, nil
}
