// Package server exposes the dispatcher over HTTP.
//
// Every request is independent: it gets its own request ID, its own deadline
// and, when the model runs, its own scratch directory.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"genesys/internal/dispatch"
	"genesys/internal/logging"
	"genesys/internal/store"
	"genesys/internal/usage"
)

// Options configures the HTTP front end.
type Options struct {
	Addr           string
	MaxUploadBytes int64

	// RequestTimeout bounds every request, model calls included.
	RequestTimeout time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AllRecords is the default when a request does not say.
	AllRecords bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Addr:            "127.0.0.1:8080",
		MaxUploadBytes:  32 << 20,
		RequestTimeout:  2 * time.Minute,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    3 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the JSON API.
type Server struct {
	dispatcher *dispatch.Dispatcher
	archive    *store.Archive
	tracker    *usage.Tracker
	opts       Options
	log        *logging.Logger
	handler    http.Handler
}

// New builds a server. archive and tracker may be nil.
func New(d *dispatch.Dispatcher, archive *store.Archive, tracker *usage.Tracker, opts Options) *Server {
	defaults := DefaultOptions()
	if opts.Addr == "" {
		opts.Addr = defaults.Addr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		dispatcher: d,
		archive:    archive,
		tracker:    tracker,
		opts:       opts,
		log:        logging.Get(logging.CategoryServer),
	}
	s.handler = s.withRequestID(s.withTimeout(s.routes()))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/functions", s.handleFunctions)
	mux.HandleFunc("POST /api/files", s.handleProcess)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/analyze/{function}", s.handleAnalyze)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/uploads", s.handleListUploads)
	mux.HandleFunc("GET /api/uploads/{id}", s.handleGetUpload)
	mux.HandleFunc("GET /api/usage", s.handleUsage)
	return mux
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("Listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		logging.Server("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
