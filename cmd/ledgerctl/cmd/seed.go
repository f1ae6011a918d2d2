package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Domi-X-in/financial-ledger-app/pkg/seed"
)

var seedFile string

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users, ledgers and transactions from a YAML file",
	Long: `Load a YAML seed file into the configured storage backend.

This command:
1. Creates the listed users (existing emails are skipped)
2. Creates each ledger for the user named by its owner email
3. Grants the listed permissions
4. Imports each ledger's transactions, rejecting the ledger's batch if any row is invalid

Example:
  ledgerctl seed --file seed.yaml`,
	Run: runSeed,
}

func init() {
	// Flags
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Seed file (YAML) (required)")

	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) {
	slog.Info("Starting seed", "file", seedFile)

	file, err := seed.Load(seedFile)
	exitOnError(err, "failed to load seed file")

	env, err := openEnvironment()
	exitOnError(err, "failed to open storage")
	defer env.Close()

	res, err := seed.Apply(context.Background(), env.svc, file, slog.Default())
	exitOnError(err, "failed to apply seed")

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%d skipped), %d ledgers, %d transactions\n",
		res.Users, res.SkippedUsers, res.Ledgers, res.Transactions)
}
