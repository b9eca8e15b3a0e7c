package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerlens/internal/config"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/ledger/rpc"
	"github.com/roach88/ledgerlens/internal/resolve"
	"github.com/roach88/ledgerlens/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Registry  string
	Requester string
	Snapshot  string

	// TraceIDs overrides the trace id generator (for testing).
	TraceIDs resolve.TraceIDGenerator
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an identifier to a project record",
		Long: `Resolve an identifier to a canonical project record.

The ledger is a SQLite snapshot when --snapshot (or the snapshot config
key) is set, and the JSON-RPC node at rpc.endpoint otherwise.

Exit codes:
  0 - Record resolved
  1 - Not found, or found but unavailable
  2 - Command or transport error

Examples:
  ledgerlens resolve 7 --registry 0xreg
  ledgerlens resolve 0xf1e1d07 --snapshot ./ledger.db --format json
  ledgerlens resolve 42 --requester 0xb0b --config ./ledgerlens.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "registry object id (defaults to registry.id)")
	cmd.Flags().StringVar(&opts.Requester, "requester", "", "requesting account, for the owner scan")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "SQLite snapshot database (overrides snapshot config)")

	return cmd
}

func runResolve(opts *ResolveOptions, id string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	registry := opts.Registry
	if registry == "" {
		registry = cfg.Registry.ID
	}
	if registry == "" {
		return NewExitError(ExitCommandError, "registry id is required (--registry or registry.id)")
	}

	client, closeClient, err := openLedger(cfg, opts.Snapshot)
	if err != nil {
		return err
	}
	defer closeClient()

	ropts := []resolve.ResolverOption{resolve.WithLogger(slog.Default())}
	if opts.TraceIDs != nil {
		ropts = append(ropts, resolve.WithTraceIDGenerator(opts.TraceIDs))
	}
	resolver := resolve.New(client, cfg.Settings(), ropts...)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := resolver.Resolve(ctx, id, resolve.Context{RegistryID: registry, RequesterID: opts.Requester})
	return reportResolution(newFormatter(opts.RootOptions, cmd), id, res, err)
}

// openLedger picks the snapshot store when a snapshot is configured and
// the JSON-RPC client otherwise. The returned func releases it.
func openLedger(cfg config.Config, snapshotFlag string) (ledger.Client, func(), error) {
	path := snapshotFlag
	if path == "" {
		path = cfg.Snapshot
	}

	if path != "" {
		st, err := store.OpenReadOnly(path)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open snapshot", err)
		}
		slog.Debug("using snapshot ledger", "path", path)
		return st, func() {
			if err := st.Close(); err != nil {
				slog.Error("error closing snapshot", "error", err)
			}
		}, nil
	}

	if cfg.RPC.Endpoint == "" {
		return nil, nil, NewExitError(ExitCommandError, "no ledger configured: set rpc.endpoint or --snapshot")
	}
	if err := cfg.ValidateOnline(); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = slog.Default()
	client, err := rpc.NewClient(clientCfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create rpc client", err)
	}
	slog.Debug("using rpc ledger", "endpoint", cfg.RPC.Endpoint)
	return client, func() {}, nil
}

// reportResolution prints the outcome and maps it to an exit code.
func reportResolution(f *OutputFormatter, id string, res *resolve.Resolution, err error) error {
	traceID := ""
	if res != nil {
		traceID = res.TraceID
	}

	if err == nil {
		return f.Success(res, formatResolution(res), traceID)
	}

	var re *resolve.Error
	if !errors.As(err, &re) {
		_ = f.Error("E_INTERNAL", err.Error(), nil, traceID)
		return WrapExitError(ExitCommandError, "resolve failed", err)
	}

	var details any
	if res != nil {
		details = res.Steps
	}
	if outErr := f.Error(string(re.Code), re.Error(), details, traceID); outErr != nil {
		return outErr
	}
	if f.Format != "json" && res != nil {
		writeSteps(f.Writer, res.Steps)
	}

	if re.Code == resolve.ErrCodeTransport {
		return WrapExitError(ExitCommandError, fmt.Sprintf("resolve %s", id), err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("resolve %s", id), err)
}

func formatResolution(res *resolve.Resolution) string {
	var b strings.Builder
	rec := res.Record

	fmt.Fprintf(&b, "Record %s", rec.ID)
	if rec.Key != nil {
		fmt.Fprintf(&b, " (key %d)", *rec.Key)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  title:    %s\n", rec.Title)
	if rec.Owner != "" {
		fmt.Fprintf(&b, "  owner:    %s\n", rec.Owner)
	}
	fmt.Fprintf(&b, "  status:   %s\n", rec.Status)
	fmt.Fprintf(&b, "  budget:   %d-%d\n", rec.BudgetMin, rec.BudgetMax)
	fmt.Fprintf(&b, "  strategy: %s (%s match)\n", res.Strategy, res.Match)
	fmt.Fprintf(&b, "  trace:    %s\n", res.TraceID)
	writeSteps(&b, res.Steps)
	return b.String()
}

func writeSteps(w io.Writer, steps []resolve.Step) {
	fmt.Fprintln(w, "Steps:")
	for _, s := range steps {
		if s.Detail != "" {
			fmt.Fprintf(w, "  %-16s %-12s %s\n", s.Name, s.Outcome, s.Detail)
			continue
		}
		fmt.Fprintf(w, "  %-16s %s\n", s.Name, s.Outcome)
	}
}
