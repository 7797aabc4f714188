package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/ledger"
)

// LogEntry is one mutation as shown by the log command.
type LogEntry struct {
	Seq        int64            `json:"seq"`
	Kind       ledger.EventKind `json:"kind"`
	RecordedAt time.Time        `json:"recorded_at"`
	Payload    json.RawMessage  `json:"payload"`
}

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Limit int
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the mutation log",
		Long: `Show the ledger's append-only mutation log in sequence order. Each entry
is one accepted intent with the event payload it recorded.

Examples:
  myh2o log
  myh2o log --limit 5
  myh2o log --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the last n entries (0 = all)")
	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	mutations, err := eng.Mutations(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read mutation log", err)
	}
	if opts.Limit > 0 && len(mutations) > opts.Limit {
		mutations = mutations[len(mutations)-opts.Limit:]
	}

	entries := make([]LogEntry, len(mutations))
	for i, m := range mutations {
		entries[i] = LogEntry{
			Seq:        m.Seq,
			Kind:       m.Kind,
			RecordedAt: m.RecordedAt,
			Payload:    json.RawMessage(m.Payload),
		}
	}

	loc := eng.Location()
	return newFormatter(opts.RootOptions, cmd).Render(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No mutations recorded.")
			return
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%4d  %s  %-17s %s\n",
				e.Seq, e.RecordedAt.In(loc).Format(time.DateTime), e.Kind, e.Payload)
		}
	})
}
