// Package main is the financial ledger API server.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/api"
	"github.com/Domi-X-in/financial-ledger-app/internal/app"
	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/metrics"
	"github.com/Domi-X-in/financial-ledger-app/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup structured JSON logging.
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate("auth.jwtSecret"); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize storage.
	paths := app.Paths(cfg)
	backend, err := app.OpenBackend(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	slog.Info("storage initialized", "driver", cfg.Storage.Driver, "db_path", paths.GetDatabasePath())

	publisher := app.NewPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	svc := app.NewService(cfg, backend, publisher, logger)

	// Setup router.
	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		Tokens:         auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Google:         auth.NewGoogleVerifier(cfg.Auth.GoogleUserInfoURL),
		Metrics:        metrics.New(),
		UploadDir:      paths.GetUploadDir(),
		RequestLogging: true,
	})

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	slog.Info("starting ledger server", "addr", addr, "env", cfg.AppEnv)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
