package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/ledger"
)

// SettingsOptions holds flags for the settings command.
type SettingsOptions struct {
	*RootOptions
	Goal          int
	Notifications bool
	Interval      int
}

// SettingsResult is the output of the settings command.
type SettingsResult struct {
	Settings ledger.UserSettings `json:"settings"`
	Updated  bool                `json:"updated"`
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update settings",
		Long: `Show the settings, or update the fields given as flags.

Turning notifications off cancels every pending reminder. Turning them back
on re-arms the wake and bed reminders from the profile.

Examples:
  myh2o settings
  myh2o settings --goal 2500
  myh2o settings --notifications=false`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Goal, "goal", 0, "base daily goal in mL")
	cmd.Flags().BoolVar(&opts.Notifications, "notifications", true, "enable reminders")
	cmd.Flags().IntVar(&opts.Interval, "interval", 0, "reminder interval in minutes")

	return cmd
}

func (o *SettingsOptions) settingsPatch(cmd *cobra.Command) (ledger.SettingsPatch, bool) {
	var patch ledger.SettingsPatch
	changed := false
	if cmd.Flags().Changed("goal") {
		patch.DailyGoal = &o.Goal
		changed = true
	}
	if cmd.Flags().Changed("notifications") {
		patch.Notifications = &o.Notifications
		changed = true
	}
	if cmd.Flags().Changed("interval") {
		patch.ReminderIntervalMinutes = &o.Interval
		changed = true
	}
	return patch, changed
}

func runSettings(opts *SettingsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	patch, changed := opts.settingsPatch(cmd)
	if changed {
		if err := eng.UpdateSettings(ctx, patch); err != nil {
			return intentError("failed to update settings", err)
		}
	}

	result := SettingsResult{Settings: eng.Document().Settings, Updated: changed}
	return newFormatter(opts.RootOptions, cmd).Render(result, func(w io.Writer) {
		if changed {
			fmt.Fprintln(w, "✓ Settings updated")
		}
		s := result.Settings
		fmt.Fprintf(w, "Daily goal:        %d mL\n", s.DailyGoal)
		fmt.Fprintf(w, "Notifications:     %s\n", onOff(s.Notifications))
		fmt.Fprintf(w, "Reminder interval: %d min\n", s.ReminderIntervalMinutes)
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
