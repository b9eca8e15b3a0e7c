package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/store"
)

// SnapshotImportOptions holds flags for the snapshot import command.
type SnapshotImportOptions struct {
	*RootOptions
	Database string
}

// SnapshotImportResult is the JSON payload of snapshot import.
type SnapshotImportResult struct {
	Database string `json:"database"`
	Objects  int    `json:"objects"`
	Tables   int    `json:"tables"`
	Entries  int    `json:"entries"`
	Events   int    `json:"events"`
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage offline ledger snapshots",
	}
	cmd.AddCommand(newSnapshotImportCommand(rootOpts))
	return cmd
}

func newSnapshotImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Load a YAML ledger fixture into a SQLite snapshot",
		Long: `Load a YAML ledger fixture into a SQLite snapshot database.

The database is created if needed. Existing snapshot contents are
replaced in a single transaction.

Example:
  ledgerlens snapshot import ./fixtures/marketplace.yaml --db ./ledger.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSnapshotImport(opts *SnapshotImportOptions, fixture string, cmd *cobra.Command) error {
	snap, err := ledger.LoadSnapshot(fixture)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	stats, err := st.Import(commandContext(cmd), snap)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	result := SnapshotImportResult{
		Database: opts.Database,
		Objects:  stats.Objects,
		Tables:   stats.Tables,
		Entries:  stats.Entries,
		Events:   stats.Events,
	}
	text := fmt.Sprintf("Imported %d objects, %d tables (%d entries), %d events into %s\n",
		result.Objects, result.Tables, result.Entries, result.Events, result.Database)
	return newFormatter(opts.RootOptions, cmd).Success(result, text, "")
}
