package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/beverage"
)

// BeverageInfo describes one beverage type.
type BeverageInfo struct {
	Type      beverage.Type `json:"type"`
	DebtPer50 int           `json:"debtPer50ml"`
	Alcoholic bool          `json:"alcoholic"`
}

// NewBeveragesCommand creates the beverages command.
func NewBeveragesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "beverages",
		Short: "List beverage types and their water debt",
		Long: `List every beverage type with the extra water (mL) it adds to the
daily goal per 50 mL drunk. Water adds nothing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []BeverageInfo
			for _, t := range beverage.Types() {
				ratio, err := beverage.WaterDebtRatio(t)
				if err != nil {
					return err
				}
				if t == beverage.Water {
					ratio = 0
				}
				infos = append(infos, BeverageInfo{Type: t, DebtPer50: ratio, Alcoholic: t.Alcoholic()})
			}

			return newFormatter(rootOpts, cmd).Render(infos, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "BEVERAGE\tDEBT PER 50 mL\tALCOHOL")
				for _, b := range infos {
					alcohol := ""
					if b.Alcoholic {
						alcohol = "yes"
					}
					fmt.Fprintf(tw, "%s\t%d mL\t%s\n", b.Type, b.DebtPer50, alcohol)
				}
				tw.Flush()
			})
		},
	}
}
