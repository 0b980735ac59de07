package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"genesys/internal/config"
	"genesys/internal/dispatch"
	"genesys/internal/logging"
	"genesys/internal/perception"
	"genesys/internal/store"
	"genesys/internal/tools"
	"genesys/internal/tools/bio"
	"genesys/internal/upload"
	"genesys/internal/usage"
)

// app holds the components every command shares.
type app struct {
	registry   *tools.Registry
	dispatcher *dispatch.Dispatcher
	tracker    *usage.Tracker
	archive    *store.Archive
}

// newApp builds the registry, model client and dispatcher from cfg. The
// archive is opened only when withArchive is set and the store is enabled.
func newApp(ctx context.Context, cfg *config.Config, withArchive bool) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "newApp")
	defer timer.Stop()

	registry, err := bio.NewRegistry(bio.Options{ORFMinLength: cfg.Analysis.ORFMinLength})
	if err != nil {
		return nil, fmt.Errorf("failed to build function registry: %w", err)
	}

	a := &app{registry: registry}

	if cfg.Usage.Enabled {
		a.tracker, err = usage.NewTracker(cfg.Usage.Path)
		if err != nil {
			return nil, err
		}
	}

	var client perception.LLMClient
	c, err := perception.NewClient(ctx, cfg.LLM, cfg.GetLLMTimeout())
	switch {
	case errors.Is(err, perception.ErrModelUnavailable):
		logging.Get(logging.CategoryBoot).Warn("No language model configured; only deterministic answers are available")
	case err != nil:
		a.close()
		return nil, err
	default:
		client = c
		if a.tracker != nil {
			client = perception.NewTrackingClient(c, a.tracker)
		}
		logging.Boot("Language model: %s (%s)", client.GetModel(), client.Provider())
	}

	a.dispatcher = dispatch.New(registry, client, dispatch.Config{
		ScratchDir: cfg.Server.ScratchDir,
	})

	if withArchive && cfg.Store.Enabled {
		a.archive, err = store.Open(cfg.Store.Driver, cfg.Store.DatabasePath)
		if err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			logging.Get(logging.CategoryStore).Warn("Failed to close archive: %v", err)
		}
	}
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			logging.Get(logging.CategoryUsage).Warn("Failed to save usage: %v", err)
		}
	}
}

// readUpload loads a file from disk, or from stdin when path is "-". Files
// over limit bytes are rejected the same way the server rejects them.
func readUpload(path string, limit int64) (upload.UploadedFile, error) {
	var r io.Reader = os.Stdin
	name := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return upload.UploadedFile{}, err
		}
		defer f.Close()
		r, name = f, path
	}

	uf, err := upload.FromReader(name, io.LimitReader(r, limit+1))
	if err != nil {
		return upload.UploadedFile{}, err
	}
	if int64(uf.Size()) > limit {
		return upload.UploadedFile{}, fmt.Errorf("%w: %s is over %d bytes", upload.ErrFileTooLarge, uf.Name, limit)
	}
	return uf, nil
}

// joinArgs joins positional arguments into one question.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
