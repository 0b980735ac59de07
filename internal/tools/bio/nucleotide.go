package bio

import (
	"context"
	"fmt"

	"genesys/internal/sequence"
	"genesys/internal/tools"
)

// SequenceTypeTool classifies residues as DNA, RNA or Protein.
func SequenceTypeTool() *tools.Tool {
	return &tools.Tool{
		Name:        "sequence_type",
		Description: "Get the type of sequences in a FASTA file.",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return perRecord(in, func(r sequence.Record) (any, error) {
				return map[string]string{"sequence_type": string(sequence.DetectType(r.Residues))}, nil
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}

// CountOccurrencesTool counts residues summed over every record; with
// all_records the counts are broken down per record instead.
func CountOccurrencesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "count_occurences",
		Description: "Count the number of nucleotides for each DNA/RNA sequence or amino acids for each protein in a FASTA file",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			if !allRecords(in) {
				return sequence.CountAll(in.Records), nil
			}
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.Count(r.Residues), nil
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}

// TranscriptionTool transcribes DNA to RNA.
func TranscriptionTool() *tools.Tool {
	return stringTransform("transcription", "Transcribe a DNA sequence to RNA.", sequence.Transcribe)
}

// ComplementaryTool complements a nucleotide sequence.
func ComplementaryTool() *tools.Tool {
	return stringTransform("complementary", "Find the complementary DNA sequence to a given DNA sequence.", sequence.Complement)
}

// ReverseComplementaryTool reverse-complements a nucleotide sequence.
func ReverseComplementaryTool() *tools.Tool {
	return stringTransform("reverseComplementary", "Find the reverse complementary of a sequence.", sequence.ReverseComplement)
}

func stringTransform(name, description string, fn func(string) (string, error)) *tools.Tool {
	return &tools.Tool{
		Name:        name,
		Description: description,
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return perRecord(in, func(r sequence.Record) (any, error) {
				return fn(r.Residues)
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}

// GCContentTool reports the GC percentage.
func GCContentTool() *tools.Tool {
	return &tools.Tool{
		Name:        "gc_content",
		Description: "Calculate the GC content of a DNA/RNA sequence.",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.GCContent(r.Residues), nil
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}

// TranslationTool translates a nucleotide sequence to protein.
func TranslationTool() *tools.Tool {
	return &tools.Tool{
		Name:        "translation",
		Description: "Translate a DNA sequence to a protein sequence.",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			toStop := tools.BoolArg(in.Args, "to_stop", false)
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.Translate(r.Residues, toStop)
			})
		},
		Schema: tools.ToolSchema{
			Required: []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{
				"all_records": allRecordsProp,
				"to_stop": {
					Type:        "boolean",
					Description: "Stop at the first stop codon.",
					Default:     false,
				},
			}),
		},
	}
}

// OpenReadingFramesTool finds six-frame ORFs of at least minLen residues.
func OpenReadingFramesTool(minLen int) *tools.Tool {
	return &tools.Tool{
		Name:        "open_reading_frames",
		Description: "Finds the forward and reverse open reading frames",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			n := tools.IntArg(in.Args, "min_length", minLen)
			if n < 1 {
				return nil, fmt.Errorf("%w: min_length must be at least 1, got %d", tools.ErrInvalidArgType, n)
			}
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.OpenReadingFrames(r.Residues, n)
			})
		},
		Schema: tools.ToolSchema{
			Required: []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{
				"all_records": allRecordsProp,
				"min_length": {
					Type:        "integer",
					Description: "Minimum protein length in residues.",
					Default:     minLen,
				},
			}),
		},
	}
}

// FindMotifsTool returns overlapping motif positions.
func FindMotifsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "find_motifs",
		Description: "Find motifs in a DNA sequence",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			motif, _ := tools.StringArg(in.Args, "motif")
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.FindMotif(r.Residues, motif)
			})
		},
		Schema: tools.ToolSchema{
			Required: []string{"filepath", "motif"},
			Properties: fileProps(map[string]tools.Property{
				"all_records": allRecordsProp,
				"motif": {
					Type:        "string",
					Description: "Exact subsequence to search for.",
				},
			}),
		},
	}
}

// RestrictionSitesTool scans for restriction enzyme recognition sites.
func RestrictionSitesTool() *tools.Tool {
	names := make([]any, 0, len(sequence.Enzymes))
	for _, n := range sequence.EnzymeNames() {
		names = append(names, n)
	}
	return &tools.Tool{
		Name:        "restriction_sites",
		Description: "Find the restriction sites of a DNA sequence.",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			enzymes := tools.StringSliceArg(in.Args, "enzymes")
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.RestrictionSites(r.Residues, enzymes)
			})
		},
		Schema: tools.ToolSchema{
			Required: []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{
				"all_records": allRecordsProp,
				"enzymes": {
					Type:        "array",
					Description: "Enzyme names to scan for; all known enzymes when omitted.",
					Items:       &tools.PropertyItems{Type: "string"},
				},
			}),
		},
	}
}
