package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/recommend"
)

// StatusResult is the output of the status command.
type StatusResult struct {
	Date       string              `json:"date"`
	Hydration  recommend.Hydration `json:"hydration"`
	Suggestion string              `json:"suggestion"`
	OnBoarding bool                `json:"onBoarding"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's goal and progress",
		Long: `Show today's adjusted goal, how much you have drunk and an encouragement
message for your current progress.

Examples:
  myh2o status
  myh2o status --tz Europe/Berlin --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	eng, closeFn, err := opts.openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	result := StatusResult{
		Date:       ledger.DateKey(eng.Now(), eng.Location()),
		Hydration:  eng.Recommendations(),
		Suggestion: eng.Suggestion(),
		OnBoarding: eng.Document().OnBoarding,
	}
	return newFormatter(opts, cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s\n", result.Date)
		writeHydration(w, result.Hydration)
		fmt.Fprintf(w, "\n%s\n", result.Suggestion)
		if !result.OnBoarding {
			fmt.Fprintln(w, "\nTip: set your weight and sleep times with `myh2o profile`, then run `myh2o onboard`.")
		}
	})
}

// writeHydration prints today's progress block.
func writeHydration(w io.Writer, h recommend.Hydration) {
	fmt.Fprintf(w, "Today: %d / %s mL (%d%%)\n",
		h.TotalDrankToday, formatML(h.AdjustedDailyGoal), h.ProgressPercent)
	fmt.Fprintf(w, "  Base goal: %d mL\n", h.BaseGoal)
	if h.ExtraWaterNeeded > 0 {
		fmt.Fprintf(w, "  Water debt: +%s mL\n", formatML(h.ExtraWaterNeeded))
	}
	if h.RemainingToGoal > 0 {
		fmt.Fprintf(w, "  Remaining: %s mL\n", formatML(h.RemainingToGoal))
	} else {
		fmt.Fprintln(w, "  Goal reached")
	}
}
