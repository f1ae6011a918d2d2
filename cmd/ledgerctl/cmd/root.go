// Package cmd provides CLI commands for ledgerctl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Domi-X-in/financial-ledger-app/internal/app"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/pkg/config"
	"github.com/Domi-X-in/financial-ledger-app/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Administer a financial ledger data directory",
	Long: `ledgerctl works directly on the ledger server's storage backend,
using the same configuration as the server.

It supports:
- Seeding users, ledgers and transactions from YAML
- Exporting a ledger's transactions to CSV
- Showing storage statistics
- Issuing bearer tokens for development

Example:
  ledgerctl seed --file seed.yaml
  ledgerctl export --ledger 2f1c... --out savings.csv
  ledgerctl stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// environment is the configuration and opened backend shared by commands.
type environment struct {
	cfg     *config.Config
	paths   *pathutil.PathResolver
	backend app.Backend
	svc     *ledger.Service
}

// openEnvironment loads configuration and opens the storage backend. Events
// are written to the log; the CLI never publishes to Kafka.
func openEnvironment() (*environment, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths := app.Paths(cfg)
	slog.Debug("Opening storage", "driver", cfg.Storage.Driver, "path", paths.GetDatabasePath())

	backend, err := app.OpenBackend(cfg, paths)
	if err != nil {
		return nil, err
	}

	cfg.Events.KafkaBrokers = nil
	logger := slog.Default()
	svc := app.NewService(cfg, backend, app.NewPublisher(cfg, logger), logger)

	return &environment{cfg: cfg, paths: paths, backend: backend, svc: svc}, nil
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

func (e *environment) Close() {
	if err := e.backend.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}
