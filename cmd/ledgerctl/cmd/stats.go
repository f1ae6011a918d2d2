package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display storage statistics",
	Long: `Display statistics about the stored records.

Shows:
- Storage driver and data directory
- Total number of users
- Total number of ledgers
- Total number of transactions
- Messages, and how many are unread

Example:
  ledgerctl stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	env, err := openEnvironment()
	exitOnError(err, "failed to open storage")
	defer env.Close()

	// Get statistics
	stats, err := env.svc.Stats(context.Background(), access.System)
	exitOnError(err, "failed to get statistics")

	// Display statistics
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Ledger Statistics ===")
	fmt.Fprintf(out, "Driver:          %s\n", env.cfg.Storage.Driver)
	fmt.Fprintf(out, "Data directory:  %s\n", env.paths.GetDataDir())
	fmt.Fprintf(out, "Users:           %d\n", stats.Users)
	fmt.Fprintf(out, "Ledgers:         %d\n", stats.Ledgers)
	fmt.Fprintf(out, "Transactions:    %d\n", stats.Transactions)
	fmt.Fprintf(out, "Messages:        %d (%d unread)\n", stats.Messages, stats.UnreadMessages)
	fmt.Fprintln(out)

	slog.Info("Statistics displayed successfully")
}
