// Command genesys answers questions about FASTA, CSV and PDB uploads.
//
// Run "genesys serve" for the HTTP API, or use the one-shot commands
// (ask, process, analyze, render) and the interactive chat from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"genesys/internal/config"
	"genesys/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	timeout    time.Duration
	jsonOutput bool
	plain      bool

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "genesys",
	Short: "GeneSys - ask questions about sequence, table and structure files",
	Long: `GeneSys answers natural-language questions about an uploaded file.

FASTA questions are routed to a fixed set of sequence analysis functions,
either directly for recognised phrases or through a language model with
function calling. CSV and PDB files are summarised, and PDB/XYZ files can
be rendered as interactive 3D viewers.

Set OPENAI_API_KEY or GEMINI_API_KEY (or a .env file) to enable the model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
			loaded.Logging.DebugMode = true
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration in %s: %w", configPath, err)
		}
		cfg = loaded

		if err := logging.Initialize(cfg.Logging); err != nil {
			// Fall back to a plain production logger.
			zc := zap.NewProductionConfig()
			if verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, buildErr := zc.Build()
			if buildErr != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logging.SetBase(l, cfg.Logging)
		}
		logger = logging.Base()
		logging.BootDebug("Loaded configuration from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with API keys")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Print plain text without terminal styling")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
