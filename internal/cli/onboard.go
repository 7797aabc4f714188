package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Mark onboarding as complete",
		Long: `Mark onboarding as complete. Running it again has no further effect on
the ledger.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, closeFn, err := rootOpts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := eng.CompleteOnboarding(ctx); err != nil {
				return intentError("failed to complete onboarding", err)
			}
			result := map[string]bool{"onBoarding": eng.Document().OnBoarding}
			return newFormatter(rootOpts, cmd).Render(result, func(w io.Writer) {
				fmt.Fprintln(w, "✓ Onboarding complete")
			})
		},
	}
}
