package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

var (
	exportLedger string
	exportOut    string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a ledger's transactions to CSV",
	Long: `Export a ledger's transactions, sorted by date with running balances,
in the same CSV format the server sends.

Without --out the file is written to {DATA_DIR}/exports/ under the
name derived from the ledger. Use --out - to write to stdout.

Example:
  ledgerctl export --ledger 2f1c...
  ledgerctl export --ledger 2f1c... --out savings.csv`,
	Run: runExport,
}

func init() {
	// Flags
	exportCmd.Flags().StringVar(&exportLedger, "ledger", "", "Ledger ID (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file, or - for stdout")

	_ = exportCmd.MarkFlagRequired("ledger")
}

func runExport(cmd *cobra.Command, args []string) {
	env, err := openEnvironment()
	exitOnError(err, "failed to open storage")
	defer env.Close()

	name, data, err := env.svc.ExportCSV(context.Background(), access.System, models.LedgerID(exportLedger))
	exitOnError(err, "failed to export ledger")

	if exportOut == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		exitOnError(err, "failed to write export")
		return
	}

	path := exportOut
	if path == "" {
		path, err = env.paths.GetExportPath(name)
		exitOnError(err, "failed to resolve export path")
	}
	exitOnError(env.paths.EnsureParentDir(path), "failed to create export directory")
	exitOnError(os.WriteFile(path, data, 0o644), "failed to write export")

	slog.Info("Ledger exported", "ledger_id", exportLedger, "path", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
}
