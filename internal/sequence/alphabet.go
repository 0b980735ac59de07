package sequence

import (
	"sort"
	"strings"
)

// Type is the molecule class of a residue string.
type Type string

const (
	DNA     Type = "DNA"
	RNA     Type = "RNA"
	Protein Type = "Protein"
)

// DetectType classifies residues by alphabet subset: only A/C/G/T is DNA,
// only A/C/G/U is RNA, anything else is Protein. The empty string is DNA.
func DetectType(residues string) Type {
	switch {
	case onlyOf(residues, "ACGT"):
		return DNA
	case onlyOf(residues, "ACGU"):
		return RNA
	default:
		return Protein
	}
}

func onlyOf(residues, allowed string) bool {
	for i := 0; i < len(residues); i++ {
		c := upper(residues[i])
		if strings.IndexByte(allowed, c) < 0 {
			return false
		}
	}
	return true
}

// Count returns per-residue occurrence counts.
func Count(residues string) map[string]int {
	counts := make(map[string]int)
	for i := 0; i < len(residues); i++ {
		counts[string(upper(residues[i]))]++
	}
	return counts
}

// CountAll sums Count over every record.
func CountAll(records []Record) map[string]int {
	total := make(map[string]int)
	for _, r := range records {
		for k, v := range Count(r.Residues) {
			total[k] += v
		}
	}
	return total
}

// SortedKeys returns the keys of a count map in order.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
