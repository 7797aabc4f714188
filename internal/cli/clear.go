package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all drink history",
		Long: `Delete every logged drink and daily total. Profile, settings and the
onboarding flag are kept. Pending reminders are not touched.

Requires --yes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deleting the history")
	return cmd
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "refusing to clear history without --yes")
	}

	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	removed := len(eng.Document().DrinkHistory)
	if err := eng.ClearHistory(ctx); err != nil {
		return intentError("failed to clear history", err)
	}

	result := map[string]int{"removed": removed}
	return newFormatter(opts.RootOptions, cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Cleared %d drink(s)\n", removed)
	})
}
