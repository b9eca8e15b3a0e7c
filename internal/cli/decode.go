package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/payload"
	"github.com/roach88/ledgerlens/internal/resolve"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Decode a raw project payload without ledger reads",
		Long: `Decode a raw project payload into record attributes.

The payload may be flat, wrapped in "fields", or a dynamic-field object
wrapping the record in "value". Comments and trailing commas (JSONC) are
accepted. Use - to read stdin.

Examples:
  ledgerlens decode ./payload.json
  sui client object 0xf1e1d07 --json | ledgerlens decode - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read payload", err)
	}

	raw, err := payload.ParseJSON(jsonc.ToJSON(data))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid payload", err)
	}

	f := newFormatter(opts, cmd)
	attrs := resolve.DecodeOnly(raw)
	if attrs.Empty() {
		_ = f.Error("E_EMPTY", "payload carries no record attributes", nil, "")
		return NewExitError(ExitFailure, "payload carries no record attributes")
	}
	return f.Success(attrs, formatAttributes(attrs), "")
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func formatAttributes(a decode.Attributes) string {
	var b strings.Builder
	row := func(name string, value any) {
		fmt.Fprintf(&b, "%-17s %v\n", name+":", value)
	}

	if a.ObjectID != "" {
		row("object_id", a.ObjectID)
	}
	if a.HasKey {
		row("key", a.Key)
	}
	row("title", a.Title)
	row("summary", a.Summary)
	row("category", a.Category)
	row("experience_level", a.ExperienceLevel)
	row("budget", fmt.Sprintf("%d-%d", a.BudgetMin, a.BudgetMax))
	row("timeline_weeks", a.TimelineWeeks)
	row("skills", strings.Join(a.Skills, ", "))
	row("owner", a.Owner)
	row("status", a.Status)
	if a.CreatedAtMs != 0 {
		row("created_at_ms", a.CreatedAtMs)
	}
	if len(a.Attachments) > 0 {
		row("attachments", strings.Join(a.Attachments, ", "))
	}
	return b.String()
}
