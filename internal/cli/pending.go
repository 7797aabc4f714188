package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/scheduler"
)

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List scheduled reminders",
		Long: `List the reminders currently handed to the notification outbox, one per
kind, with their next fire time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeFn, err := rootOpts.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			pending := eng.Pending()
			loc := eng.Location()
			return newFormatter(rootOpts, cmd).Render(pending, func(w io.Writer) {
				writePending(w, pending, loc)
			})
		},
	}
}

func writePending(w io.Writer, pending []scheduler.Notification, loc *time.Location) {
	if len(pending) == 0 {
		fmt.Fprintln(w, "No reminders scheduled.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tFIRES AT\tREPEAT\tMESSAGE")
	for _, n := range pending {
		repeat := "once"
		if n.RepeatDaily {
			repeat = "daily"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.Kind, n.FireAt.In(loc).Format("Mon Jan 2 15:04"), repeat, n.Message)
	}
	tw.Flush()
}
