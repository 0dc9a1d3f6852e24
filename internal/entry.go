// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pdfmcr/internal/api"
	"github.com/starford/pdfmcr/internal/cache"
	"github.com/starford/pdfmcr/internal/mcpserver"
	"github.com/starford/pdfmcr/internal/pageservice"
	"github.com/starford/pdfmcr/internal/pagestore"
	"github.com/starford/pdfmcr/internal/sse"
	"github.com/starford/pdfmcr/internal/storage"
)

const listThrottle = 2 * time.Second

// backend is the storage side shared by the HTTP and MCP entry points.
type backend struct {
	store *storage.FS
	db    *pagestore.DB
}

func (a *application) init(defaultOut io.Writer) (*Config, *slog.Logger, error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	out := a.logOutput
	if out == nil {
		out = defaultOut
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return a.config, logger, nil
}

func openBackend(cfg *Config, logger *slog.Logger) (*backend, error) {
	if err := os.MkdirAll(cfg.Storage.ImageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Storage.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := pagestore.Open(cfg.Storage.StateDB)
	if err != nil {
		return nil, fmt.Errorf("init page store: %w", err)
	}

	if err := pagestore.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return &backend{store: store, db: db}, nil
}

func newService(cfg *Config, b *backend, pub pageservice.Publisher, logger *slog.Logger) *pageservice.Service {
	return pageservice.NewService(b.store, b.db, pageservice.Options{
		ThumbnailWidth:  cfg.Thumbnail.Width,
		DefaultLanguage: cfg.Document.DefaultLanguage,
		Thumbnails:      cache.NewThumbnails(cfg.Thumbnail.CacheTTL),
		Publisher:       pub,
		Logger:          logger,
	})
}

// Run starts the HTTP page server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.init(os.Stdout)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("image_dir", cfg.Storage.ImageDir),
		slog.String("state_db", cfg.Storage.StateDB),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	b, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer b.db.Close()

	broker := sse.NewBroker(listThrottle)
	defer broker.Close()

	svc := newService(cfg, b, broker, logger)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.ListPages(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pagestore.Watch(gCtx, b.db, b.store, b.store.Root(), logger, svc.OnWatcherEvent); err != nil {
			logger.Error("image watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the page tools over stdio until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.init(os.Stderr)
	if err != nil {
		return err
	}

	b, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer b.db.Close()

	version := app.version
	if version == "" {
		version = "dev"
	}

	logger.Info("Starting MCP server",
		slog.String("image_dir", cfg.Storage.ImageDir),
		slog.String("version", version))

	srv := mcpserver.New(newService(cfg, b, nil, logger), version)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// RunExport writes the whole document as a PDF to output.
func RunExport(ctx context.Context, output string, opts ...Option) (err error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.init(os.Stderr)
	if err != nil {
		return err
	}

	b, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer b.db.Close()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", output, cerr)
		}
	}()

	if err := newService(cfg, b, nil, logger).ExportPDF(ctx, f); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("document exported", slog.String("output", output))
	return nil
}
