// reqmatch server - article catalogue demonstrating content negotiation and
// predicate-guarded routes.
// Designed for Cloud Run deployment with stateless operation.
package main

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

	"reqmatch/internal/catalog"
	"reqmatch/internal/config"
	"reqmatch/internal/handler"
	"reqmatch/internal/middleware"
	"reqmatch/internal/negotiation"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg.LogLevel, cfg.Environment)
	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("metrics", cfg.MetricsEnabled),
		slog.Bool("mcp", cfg.MCPEnabled),
		slog.Int("api_keys", len(cfg.Auth.APIKeys)),
		slog.Bool("jwt", cfg.Auth.JWTSecret != ""),
	)

	server, err := newServer(cfg, catalog.NewMemory(seedArticles()...), logger)
	if err != nil {
		return err
	}
	return serve(ctx, server, logger)
}

// newServer wires the catalogue routes and the middleware stack into an
// http.Server for cfg.
func newServer(cfg *config.Config, store catalog.Store, logger *slog.Logger) (*http.Server, error) {
	auth, err := cfg.BuildAuthenticator()
	if err != nil {
		return nil, fmt.Errorf("building authenticator: %w", err)
	}

	h := handler.New(store, logger, handler.Options{
		Authenticator:  auth,
		MetricsEnabled: cfg.MetricsEnabled,
		MCPEnabled:     cfg.MCPEnabled,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// recovery → logging → metrics → negotiation → routes
	// Negotiation parses Accept once so every route sees the same set
	stack := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.Logging(logger),
	}
	if cfg.MetricsEnabled {
		stack = append(stack, middleware.Metrics())
	}
	stack = append(stack, negotiation.Middleware(logger))

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Chain(stack...)(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// serve runs server until ctx is cancelled, then drains it.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// seedArticles returns the articles the catalogue starts with.
func seedArticles() []catalog.Article {
	now := time.Now().UTC()
	return []catalog.Article{
		{
			Title:     "Media types",
			Body:      "A media type is a type, a subtype and optional parameters, e.g. text/html; charset=utf-8.",
			Author:    "reqmatch",
			Tags:      []string{"http", "media-type"},
			CreatedAt: now,
		},
		{
			Title:     "Content negotiation",
			Body:      "The first registered representation the Accept header covers wins. Quality values only decide whether a range is present.",
			Author:    "reqmatch",
			Tags:      []string{"http", "accept"},
			CreatedAt: now,
		},
		{
			Title:     "Request predicates",
			Body:      "Predicates combine with and, or and negate. Every clause is evaluated; nothing short-circuits.",
			Author:    "reqmatch",
			Tags:      []string{"predicate"},
			CreatedAt: now,
		},
	}
}

// initLogger creates a structured logger for the configured level.
// Production logs JSON for Cloud Logging; development logs text.
func initLogger(logLevel, environment string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
