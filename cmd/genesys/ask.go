package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"genesys/internal/dispatch"
	"genesys/internal/logging"
)

var askAllRecords bool

// askCmd answers one question about one file
var askCmd = &cobra.Command{
	Use:   "ask <file> <question...>",
	Short: "Ask a question about a FASTA, CSV or PDB file",
	Long: `Answers one question about one file, the way POST /api/ask does.

Recognised phrases ("what are the sequence ids?") are answered directly.
Other FASTA questions go to the language model, which may call one of the
analysis functions. Use "-" as the file to read from stdin.

Example:
  genesys ask seqs.fasta what is the gc content of the first sequence`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askAllRecords, "all-records", false, "Run single-sequence functions on every record")
}

// userError shows the user-facing message and keeps the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func friendly(err error) error {
	if err == nil {
		return nil
	}
	logging.Get(logging.CategoryDispatch).Debug("Command failed: %v", err)
	return &userError{msg: style(errorStyle, dispatch.UserMessage(err)), err: err}
}

// askOutput is the JSON shape of an answer, matching the HTTP API.
type askOutput struct {
	dispatch.Answer
	Result        any    `json:"result,omitempty"`
	FunctionError string `json:"function_error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	f, err := readUpload(args[0], cfg.Server.MaxUploadBytes)
	if err != nil {
		return friendly(err)
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	ans, err := a.dispatcher.Answer(ctx, dispatch.AnalysisRequest{
		Question:   joinArgs(args[1:]),
		File:       f,
		AllRecords: askAllRecords || cfg.Analysis.AllRecords,
	})
	if err != nil {
		return friendly(err)
	}
	return printAnswer(ans)
}

// printAnswer prints an answer as JSON or for the terminal.
func printAnswer(ans dispatch.Answer) error {
	if jsonOutput {
		out := askOutput{Answer: ans}
		if ans.Result != nil {
			out.Result = ans.Result.Value
			if ans.Result.Error != nil {
				out.FunctionError = ans.Result.Error.Error()
			}
		}
		return printJSON(os.Stdout, out)
	}

	body := ans.Text
	if ans.Path != dispatch.PathModel {
		body = codeBlock(ans.Text)
	}
	fmt.Fprint(os.Stdout, renderMarkdown(body, 0))

	meta := string(ans.Path)
	if ans.Function != "" {
		meta += " · " + ans.Function
	}
	fmt.Fprintln(os.Stdout, style(pathStyle, meta))
	if ans.Result != nil && ans.Result.Error != nil {
		fmt.Fprintln(os.Stdout, style(warningStyle, "function error: "+ans.Result.Error.Error()))
	}
	return nil
}
