// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vfxhub/internal/api"
	"github.com/starford/vfxhub/internal/docstore"
	"github.com/starford/vfxhub/internal/mcpserver"
	"github.com/starford/vfxhub/internal/metrics"
	"github.com/starford/vfxhub/internal/sse"
)

// recordNotifier counts record changes and fans them out to SSE clients.
type recordNotifier struct {
	broker *sse.Broker
}

func (n recordNotifier) PublishRecordEvent(kind, collection string, id int) {
	metrics.IncrementRecordChange(collection, kind)
	n.broker.PublishRecordEvent(kind, collection, id)
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("uploads_path", cfg.Images.UploadsPath),
		slog.String("image_persist", cfg.Images.Persist),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	notifier := recordNotifier{broker: broker}

	c, err := buildComponents(cfg, logger, notifier)
	if err != nil {
		return err
	}
	defer c.Close()

	apiRouter := api.NewRouter(c.studio, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, c.files)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Stored uploads and generated images.
	r.Get("/uploads/{filename}", c.files.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Proxy functions.
	r.Mount("/functions", c.gateway.Routes())

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload documents edited outside the process and tell clients.
	if c.watchDir != "" {
		g.Go(func() error {
			err := docstore.Watch(gCtx, c.watchDir, logger, func(_, key string) {
				changed, err := c.documents.Reload(gCtx, key)
				if err != nil {
					logger.Warn("document reload failed", slog.String("key", key), slog.String("error", err.Error()))
					return
				}
				if changed {
					notifier.PublishRecordEvent(sse.KindChanged, key, 0)
				}
			})
			if err != nil {
				logger.Warn("document watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
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

// ServeMCP runs the MCP server on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	c, err := buildComponents(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.studio, mcpserver.Options{
		Files:   c.files,
		Fetcher: c.streamer,
		Text:    c.gateway,
	})
	logger.Info("MCP server starting", slog.String("store_backend", cfg.Store.Backend))
	return srv.ServeStdio()
}
