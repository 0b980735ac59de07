package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genesys/internal/config"
	"genesys/internal/logging"
	"genesys/internal/server"
)

var (
	serveAddr  string
	serveWatch bool
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	Long: `Starts the HTTP front end.

Endpoints:
  GET  /healthz                  liveness
  GET  /api/functions            analysis functions and their schemas
  POST /api/files                classify and summarise an upload
  POST /api/ask                  answer a question about an upload
  POST /api/analyze/{function}   run one function without the model
  POST /api/render               3D viewer for a PDB or XYZ upload
  GET  /api/uploads[/{id}]       archived uploads (store.enabled)
  GET  /api/usage                token usage (usage.enabled)

Uploads are multipart/form-data with the file in the "file" field.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload the log level when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	if serveWatch {
		w, err := config.NewWatcher(configPath, reloadLogging)
		if err != nil {
			logging.Get(logging.CategoryBoot).Warn("Config watch disabled: %v", err)
		} else if err := w.Start(ctx); err != nil {
			logging.Get(logging.CategoryBoot).Warn("Config watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	srv := server.New(a.dispatcher, a.archive, a.tracker, serverOptions(cfg))
	logger.Info("GeneSys listening",
		zap.String("addr", serverOptions(cfg).Addr),
		zap.Bool("model", a.dispatcher.HasModel()),
		zap.Bool("archive", a.archive != nil),
	)
	return srv.ListenAndServe(ctx)
}

// serverOptions maps configuration onto server options. Requests may run two
// model turns, so the request deadline is twice the model timeout.
func serverOptions(c *config.Config) server.Options {
	opts := server.DefaultOptions()
	opts.Addr = c.Server.Addr
	if serveAddr != "" {
		opts.Addr = serveAddr
	}
	opts.MaxUploadBytes = c.Server.MaxUploadBytes
	opts.ReadTimeout = c.GetReadTimeout()
	opts.WriteTimeout = c.GetWriteTimeout()
	opts.RequestTimeout = 2 * c.GetLLMTimeout()
	if opts.WriteTimeout < opts.RequestTimeout {
		opts.WriteTimeout = opts.RequestTimeout
	}
	opts.AllRecords = c.Analysis.AllRecords
	return opts
}

// reloadLogging applies the log level of a changed config file. Other
// settings take effect on restart.
func reloadLogging(c *config.Config, err error) {
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("Config reload failed: %v", err)
		return
	}
	if err := logging.SetLevel(c.Logging.Level); err != nil {
		logging.Get(logging.CategoryBoot).Warn("Config reload: %v", err)
		return
	}
	logging.Boot("Config reloaded; log level %s", c.Logging.Level)
}
