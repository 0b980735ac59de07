package bio

import (
	"genesys/internal/tools"
)

// Options carries analysis defaults from configuration.
type Options struct {
	ORFMinLength int
}

// DefaultOptions returns the stock analysis defaults.
func DefaultOptions() Options {
	return Options{ORFMinLength: 100}
}

// All returns every analysis function.
func All(opts Options) []*tools.Tool {
	if opts.ORFMinLength <= 0 {
		opts.ORFMinLength = DefaultOptions().ORFMinLength
	}
	return []*tools.Tool{
		SequenceTypeTool(),
		CountOccurrencesTool(),
		TranscriptionTool(),
		ComplementaryTool(),
		ReverseComplementaryTool(),
		GCContentTool(),
		TranslationTool(),
		MassCalculatorTool(),
		RestrictionSitesTool(),
		IsoelectricPointTool(),
		MultipleSequenceAlignmentTool(),
		PhylogeneticTreeTool(),
		OpenReadingFramesTool(opts.ORFMinLength),
		DetectSNPsTool(),
		FindMotifsTool(),
		ExtractSequenceIDsTool(),
		SequenceStatisticsTool(),
	}
}

// RegisterAll registers all analysis functions with the given registry.
func RegisterAll(registry *tools.Registry, opts Options) error {
	for _, tool := range All(opts) {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry builds, checks and seals a registry holding every function.
func NewRegistry(opts Options) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	if err := RegisterAll(reg, opts); err != nil {
		return nil, err
	}
	if err := reg.CheckDescriptors(DescriptorNames); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// DescriptorNames lists the functions advertised to the model.
var DescriptorNames = []string{
	"sequence_type",
	"count_occurences",
	"transcription",
	"complementary",
	"reverseComplementary",
	"gc_content",
	"translation",
	"mass_calculator",
	"restriction_sites",
	"isoelectric_point",
	"multiple_sequence_alignment",
	"construct_phylogenetic_tree",
	"open_reading_frames",
	"detect_snps",
	"find_motifs",
	"extract_sequence_ids",
	"sequence_statistics",
}

func fileProps(extra map[string]tools.Property) map[string]tools.Property {
	props := map[string]tools.Property{
		"filepath": {
			Type:        "string",
			Description: "Path to the FASTA file.",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var allRecordsProp = tools.Property{
	Type:        "boolean",
	Description: "Apply to every record instead of only the first (default false).",
	Default:     false,
}
