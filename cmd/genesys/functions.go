package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"genesys/internal/tools"
	"genesys/internal/tools/bio"
)

// functionsCmd lists the analysis functions
var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the analysis functions and their arguments",
	Args:  cobra.NoArgs,
	RunE:  runFunctions,
}

func runFunctions(cmd *cobra.Command, args []string) error {
	registry, err := bio.NewRegistry(bio.Options{ORFMinLength: cfg.Analysis.ORFMinLength})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, registry.Definitions())
	}

	for _, tool := range registry.All() {
		fmt.Fprintf(os.Stdout, "%s %s\n", style(titleStyle, tool.Name), style(labelStyle, string(tool.Category)))
		fmt.Fprintf(os.Stdout, "  %s\n", tool.Description)
		if params := describeParams(tool); params != "" {
			fmt.Fprintf(os.Stdout, "  %s %s\n", style(labelStyle, "args:"), params)
		}
	}
	return nil
}

// describeParams lists the caller-supplied parameters, required ones marked.
func describeParams(tool *tools.Tool) string {
	required := make(map[string]bool, len(tool.Schema.Required))
	for _, r := range tool.Schema.Required {
		required[r] = true
	}
	names := make([]string, 0, len(tool.Schema.Properties))
	for name := range tool.Schema.Properties {
		if name == "filepath" || name == "all_records" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		p := fmt.Sprintf("%s (%s)", name, tool.Schema.Properties[name].Type)
		if required[name] {
			p += "*"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}
