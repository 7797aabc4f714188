package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/recommend"
)

// DrinkResult is the output of the drink command.
type DrinkResult struct {
	Entry     ledger.DrinkEntry   `json:"entry"`
	Hydration recommend.Hydration `json:"hydration"`
}

// NewDrinkCommand creates the drink command.
func NewDrinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drink <beverage> <volume-ml>",
		Short: "Log a drink",
		Long: `Log a drink of the given beverage and volume (mL) at the current time.

Non-water beverages add a water debt to today's goal. Alcohol schedules an
after-alcohol reminder in 30 minutes; every drink re-arms the 3-hour
inactivity reminder.

Examples:
  myh2o drink water 500
  myh2o drink coffee 100
  myh2o drink beer 330 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrink(rootOpts, cmd, args[0], args[1])
		},
	}
}

func runDrink(opts *RootOptions, cmd *cobra.Command, name, volumeArg string) error {
	t, err := beverage.ParseType(name)
	if err != nil {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("unknown beverage (choose from %s)", beverageList()), err)
	}
	volume, err := strconv.Atoi(volumeArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "volume must be a whole number of mL", err)
	}

	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entry, err := eng.AddDrink(ctx, t, volume)
	if err != nil {
		return intentError("failed to log drink", err)
	}

	result := DrinkResult{Entry: entry, Hydration: eng.Recommendations()}
	return newFormatter(opts, cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Logged %d mL of %s", entry.Volume, entry.Type)
		if entry.ExtraWaterNeeded > 0 {
			fmt.Fprintf(w, " (+%s mL water debt)", formatML(entry.ExtraWaterNeeded))
		}
		fmt.Fprintln(w)
		writeHydration(w, result.Hydration)
	})
}

func beverageList() string {
	types := beverage.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = strings.ToLower(t.String())
	}
	return strings.Join(names, ", ")
}

// formatML renders a millilitre amount without a trailing ".0".
func formatML(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
