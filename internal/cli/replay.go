package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/engine"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the ledger from its mutation log and verify it",
		Long: `Rebuild the ledger from its base document and mutation log, then compare
the result with the stored snapshot. Nothing is written.

Exit codes:
  0 - Replay matches the snapshot
  1 - Replay diverged from the snapshot
  2 - Command error (database not found, etc.)

Examples:
  myh2o replay
  myh2o replay --ledger work --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := eng.Replay(ctx)
	if err != nil {
		if engine.IsReplayMismatch(err) {
			return WrapExitError(ExitFailure, "replay diverged from snapshot", err)
		}
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	return newFormatter(opts, cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Replayed %d mutation(s) for ledger %q (last seq %d)\n",
			result.Mutations, result.Key, result.LastSeq)
	})
}
