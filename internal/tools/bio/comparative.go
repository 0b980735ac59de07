package bio

import (
	"context"
	"fmt"

	"genesys/internal/sequence"
	"genesys/internal/tools"
)

// MultipleSequenceAlignmentTool pads every record to a common length.
func MultipleSequenceAlignmentTool() *tools.Tool {
	return &tools.Tool{
		Name:        "multiple_sequence_alignment",
		Description: "Perform multiple sequence alignment using a FASTA file.",
		Category:    tools.CategoryComparative,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return sequence.Align(in.Records).String(), nil
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(nil),
		},
	}
}

// PhylogeneticTreeTool builds a UPGMA tree over identity distance.
func PhylogeneticTreeTool() *tools.Tool {
	return &tools.Tool{
		Name:        "construct_phylogenetic_tree",
		Description: "Construct a phylogenetic tree using a FASTA file.",
		Category:    tools.CategoryComparative,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			tree, err := sequence.BuildTree(in.Records)
			if err != nil {
				return nil, err
			}
			format, _ := tools.StringArg(in.Args, "format")
			switch format {
			case "", "phyloxml":
				return tree.PhyloXML()
			case "newick":
				return tree.Newick(), nil
			default:
				return nil, fmt.Errorf("%w: format must be phyloxml or newick, got %q", tools.ErrInvalidArgType, format)
			}
		},
		Schema: tools.ToolSchema{
			Required: []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{
				"format": {
					Type:        "string",
					Description: "Output format.",
					Default:     "phyloxml",
					Enum:        []any{"phyloxml", "newick"},
				},
			}),
		},
	}
}

// DetectSNPsTool compares every record to the first.
func DetectSNPsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "detect_snps",
		Description: "Detect single nucleotide polymorphisms (SNPs) against the first sequence as reference",
		Category:    tools.CategoryComparative,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return sequence.DetectSNPs(in.Records)
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(nil),
		},
	}
}

// ExtractSequenceIDsTool lists every record identifier.
func ExtractSequenceIDsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "extract_sequence_ids",
		Description: "List the IDs of all sequences in a FASTA file.",
		Category:    tools.CategoryGeneral,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return sequence.IDs(in.Records), nil
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(nil),
		},
	}
}

// SequenceStatisticsTool summarises length, type and GC per record.
func SequenceStatisticsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "sequence_statistics",
		Description: "Summarise length, type and GC content of every sequence in a FASTA file.",
		Category:    tools.CategoryGeneral,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return sequence.Statistics(in.Records), nil
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(nil),
		},
	}
}
