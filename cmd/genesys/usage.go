package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"genesys/internal/usage"
)

// usageCmd prints recorded token usage
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show language model token usage",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	if !cfg.Usage.Enabled {
		fmt.Fprintln(os.Stdout, style(warningStyle, "Usage tracking is disabled (usage.enabled: false)."))
		return nil
	}
	tracker, err := usage.NewTracker(cfg.Usage.Path)
	if err != nil {
		return err
	}
	stats := tracker.Stats()

	if jsonOutput {
		return printJSON(os.Stdout, stats)
	}

	fmt.Fprintln(os.Stdout, style(titleStyle, "Token usage"))
	printField("calls", fmt.Sprintf("%d", stats.Calls))
	printField("total", formatCounts(stats.Total))
	printBreakdown("by provider", stats.ByProvider)
	printBreakdown("by model", stats.ByModel)
	printBreakdown("by operation", stats.ByOperation)
	printBreakdown("by function", stats.ByFunction)
	return nil
}

func printBreakdown(title string, m map[string]usage.TokenCounts) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(os.Stdout, style(labelStyle, title))
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "  %-28s %s\n", k, formatCounts(m[k]))
	}
}

func formatCounts(tc usage.TokenCounts) string {
	return fmt.Sprintf("%d in / %d out / %d total", tc.Input, tc.Output, tc.Total)
}
