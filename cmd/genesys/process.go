package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"genesys/internal/dispatch"
	"genesys/internal/logging"
	"genesys/internal/store"
)

var (
	processArchive bool
	processUser    string
)

// processCmd classifies and summarises a file
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Classify a file and summarise its content",
	Long: `Detects whether a file is FASTA, CSV or PDB and prints a short summary,
the way POST /api/files does. With --archive the upload is also stored in
the upload archive (store.database_path).`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processArchive, "archive", false, "Store the upload in the archive")
	processCmd.Flags().StringVar(&processUser, "user", "", "Archive owner (default "+store.DefaultUser+")")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	f, err := readUpload(args[0], cfg.Server.MaxUploadBytes)
	if err != nil {
		return friendly(err)
	}

	if processArchive {
		cfg.Store.Enabled = true
	}
	a, err := newApp(ctx, cfg, processArchive)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.dispatcher.Process(ctx, f)
	if err != nil {
		return friendly(err)
	}
	if a.archive != nil {
		entry, err := a.archive.Save(ctx, processUser, f, report.Type)
		if err != nil {
			return err
		}
		report.ArchiveID = entry.ID
		logging.Store("Archived %s as #%d", entry.Key(), entry.ID)
	}

	return printReport(report)
}

func printReport(report dispatch.FileReport) error {
	if jsonOutput {
		return printJSON(os.Stdout, report)
	}
	fmt.Fprintln(os.Stdout, style(titleStyle, report.Name))
	printField("type", string(report.Type))
	printField("size", strconv.Itoa(report.Size)+" bytes")
	printField("sha256", report.Digest)
	if report.ArchiveID != 0 {
		printField("archive id", strconv.FormatInt(report.ArchiveID, 10))
	}
	fmt.Fprint(os.Stdout, renderMarkdown(codeBlock(report.Summary), 0))
	return nil
}
