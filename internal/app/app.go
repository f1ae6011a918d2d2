// Package app assembles the storage backend, event publisher and service
// from configuration. Both the server and the CLI start from here.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Domi-X-in/financial-ledger-app/internal/events"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/store"
	"github.com/Domi-X-in/financial-ledger-app/pkg/config"
	"github.com/Domi-X-in/financial-ledger-app/pkg/db"
	"github.com/Domi-X-in/financial-ledger-app/pkg/pathutil"
)

// Backend is a Repository that holds resources until closed.
type Backend interface {
	ledger.Repository
	io.Closer
}

// Paths returns the path resolver for cfg.
func Paths(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataDir:      cfg.Storage.DataDir,
		Driver:       cfg.Storage.Driver,
		DatabasePath: cfg.Storage.DBPath,
		UploadDir:    cfg.Storage.UploadDir,
	})
}

// OpenBackend opens the repository selected by DB_DRIVER.
func OpenBackend(cfg *config.Config, paths *pathutil.PathResolver) (Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverBolt, "":
		if err := paths.EnsureParentDir(paths.GetDatabasePath()); err != nil {
			return nil, err
		}
		st, err := store.New(paths.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return st, nil
	case config.DriverSQLite:
		conn, err := db.Open(paths.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db.NewRepository(conn), nil
	case config.DriverPostgres:
		if err := cfg.Validate("storage.databaseUrl"); err != nil {
			return nil, err
		}
		conn, err := db.OpenPostgres(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return db.NewRepository(conn), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// log publisher otherwise.
func NewPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.Events.KafkaBrokers) > 0 {
		logger.Info("publishing events to kafka", "brokers", cfg.Events.KafkaBrokers, "topic", cfg.Events.KafkaTopic)
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	}
	return events.NewLogPublisher(logger)
}

// NewService builds the ledger service over repo.
func NewService(cfg *config.Config, repo ledger.Repository, publisher events.Publisher, logger *slog.Logger) *ledger.Service {
	return ledger.NewService(repo,
		ledger.WithPublisher(publisher),
		ledger.WithLogger(logger),
		ledger.WithClientURL(cfg.Server.ClientURL),
	)
}
