package bio

import (
	"context"

	"genesys/internal/sequence"
	"genesys/internal/tools"
)

// MassCalculatorTool computes molecular weight.
func MassCalculatorTool() *tools.Tool {
	return &tools.Tool{
		Name:        "mass_calculator",
		Description: "Calculate the molecular mass of a DNA, RNA or protein sequence",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.MolecularWeight(r.Residues)
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}

// IsoelectricPointTool estimates the pI of a protein.
func IsoelectricPointTool() *tools.Tool {
	return &tools.Tool{
		Name:        "isoelectric_point",
		Description: "Calculate the isoelectric point of a protein sequence.",
		Category:    tools.CategorySequence,
		Execute: func(ctx context.Context, in tools.Input) (any, error) {
			return perRecord(in, func(r sequence.Record) (any, error) {
				return sequence.IsoelectricPoint(r.Residues), nil
			})
		},
		Schema: tools.ToolSchema{
			Required:   []string{"filepath"},
			Properties: fileProps(map[string]tools.Property{"all_records": allRecordsProp}),
		},
	}
}
