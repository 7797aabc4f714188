package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
)

// barWidth is the width of a full-scale bar in the text chart.
const barWidth = 30

// NewWeekCommand creates the week command.
func NewWeekCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show the last seven days",
		Long: `Show litres drunk on each of the last seven calendar days, oldest first.

The chart scale is the larger of today's adjusted goal, the busiest day and
2.5 L.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeFn, err := rootOpts.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			week := eng.Week()
			return newFormatter(rootOpts, cmd).Render(week, func(w io.Writer) {
				for _, d := range week.Days {
					n := 0
					if week.MaxScale > 0 {
						n = int(math.Round(d.Liters / week.MaxScale * barWidth))
					}
					fmt.Fprintf(w, "%s %s %-*s %.2f L\n",
						d.DayLabel, d.Date, barWidth, strings.Repeat("█", n), d.Liters)
				}
				fmt.Fprintf(w, "Scale: %.2f L\n", week.MaxScale)
			})
		},
	}
}
