package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"genesys/internal/dispatch"
	"genesys/internal/tools"
)

var (
	analyzeArgs       []string
	analyzeAllRecords bool
)

// analyzeCmd runs one analysis function without the model
var analyzeCmd = &cobra.Command{
	Use:   "analyze <function> <file>",
	Short: "Run one analysis function on a FASTA file",
	Long: `Runs an analysis function by name, without the language model, the way
POST /api/analyze/{function} does. Function arguments are passed as
--arg name=value and converted using the function's schema.

Examples:
  genesys analyze gc_content seqs.fasta
  genesys analyze find_motifs seqs.fasta --arg motif=ATG --all-records
  genesys analyze restriction_sites seqs.fasta --arg enzymes=EcoRI,BamHI

Run "genesys functions" for the list.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeArgs, "arg", nil, "Function argument as name=value (repeatable)")
	analyzeCmd.Flags().BoolVar(&analyzeAllRecords, "all-records", false, "Run single-sequence functions on every record")
}

// parseArgFlags groups name=value flags by name.
func parseArgFlags(flags []string) (map[string][]string, error) {
	values := make(map[string][]string)
	for _, kv := range flags {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: --arg %q is not name=value", tools.ErrInvalidArgType, kv)
		}
		values[name] = append(values[name], value)
	}
	return values, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	name := args[0]
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	tool := a.registry.Get(name)
	if tool == nil {
		return friendly(fmt.Errorf("%w: %s", tools.ErrUnknownFunction, name))
	}
	values, err := parseArgFlags(analyzeArgs)
	if err != nil {
		return friendly(err)
	}
	callArgs, err := tools.ParseArgs(tool, values)
	if err != nil {
		return friendly(err)
	}

	f, err := readUpload(args[1], cfg.Server.MaxUploadBytes)
	if err != nil {
		return friendly(err)
	}

	ans, err := a.dispatcher.Run(ctx, name, f, callArgs, analyzeAllRecords || cfg.Analysis.AllRecords)
	if err != nil {
		return friendly(err)
	}

	if jsonOutput {
		return printJSON(os.Stdout, map[string]any{
			"function": name,
			"file":     f.Name,
			"text":     ans.Text,
			"result":   ans.Result.Value,
		})
	}
	text, err := dispatch.MarshalResult(ans.Result.Value)
	if err != nil || isScalar(ans.Result.Value) {
		text = ans.Text
	}
	fmt.Fprint(os.Stdout, renderMarkdown(codeBlock(text), 0))
	fmt.Fprintln(os.Stdout, style(pathStyle, fmt.Sprintf("%s · %v", name, ans.Result.Duration.Round(time.Microsecond))))
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, float32, int, int64, bool, nil:
		return true
	}
	return false
}
