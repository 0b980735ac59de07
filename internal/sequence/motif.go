package sequence

import "strings"

// FindMotif returns every 0-based start index of motif in residues,
// overlapping matches included. Matching is case-insensitive.
func FindMotif(residues, motif string) ([]int, error) {
	if motif == "" {
		return nil, ErrEmptyMotif
	}
	s := strings.ToUpper(residues)
	m := strings.ToUpper(motif)

	positions := []int{}
	for i := 0; i+len(m) <= len(s); i++ {
		if s[i:i+len(m)] == m {
			positions = append(positions, i)
		}
	}
	return positions, nil
}
