package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/ledger"
)

// ProfileOptions holds flags for the profile command.
type ProfileOptions struct {
	*RootOptions
	Name        string
	Avatar      string
	Gender      string
	Unit        string
	Age         string
	Weight      string
	WorkdayWake string
	WorkdayBed  string
	WeekendWake string
	WeekendBed  string
}

// ProfileResult is the output of the profile command.
type ProfileResult struct {
	Profile   ledger.UserProfile `json:"profile"`
	DailyGoal int                `json:"dailyGoal"`
	Updated   bool               `json:"updated"`
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the profile",
		Long: `Show the profile, or update the fields given as flags.

Setting --weight recomputes the daily goal as weight in kg × 35 mL.
Wake and bed times use the 12-hour "H:MM AM" form and reschedule the
matching daily reminder.

Examples:
  myh2o profile
  myh2o profile --weight 70 --unit kg
  myh2o profile --workday-wake "6:30 AM" --workday-bed "10:30 PM"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Name, "name", "", "display name")
	f.StringVar(&opts.Avatar, "avatar", "", "avatar reference")
	f.StringVar(&opts.Gender, "gender", "", "gender (men|women|other)")
	f.StringVar(&opts.Unit, "unit", "", "weight unit (kg|lbs)")
	f.StringVar(&opts.Age, "age", "", "age")
	f.StringVar(&opts.Weight, "weight", "", "body weight in --unit")
	f.StringVar(&opts.WorkdayWake, "workday-wake", "", `workday wake time ("7:00 AM")`)
	f.StringVar(&opts.WorkdayBed, "workday-bed", "", `workday bed time ("11:00 PM")`)
	f.StringVar(&opts.WeekendWake, "weekend-wake", "", `weekend wake time ("10:00 AM")`)
	f.StringVar(&opts.WeekendBed, "weekend-bed", "", `weekend bed time ("12:00 AM")`)

	return cmd
}

// profilePatch builds a patch from the flags that were set explicitly.
func (o *ProfileOptions) profilePatch(cmd *cobra.Command) (ledger.ProfilePatch, bool) {
	var patch ledger.ProfilePatch
	changed := false
	str := func(flag string, v string, dst **string) {
		if cmd.Flags().Changed(flag) {
			*dst = &v
			changed = true
		}
	}

	str("name", o.Name, &patch.Name)
	str("avatar", o.Avatar, &patch.Avatar)
	str("age", o.Age, &patch.Age)
	str("weight", o.Weight, &patch.Weight)
	str("workday-wake", o.WorkdayWake, &patch.WorkdayWakeTime)
	str("workday-bed", o.WorkdayBed, &patch.WorkdayBedTime)
	str("weekend-wake", o.WeekendWake, &patch.WeekendWakeTime)
	str("weekend-bed", o.WeekendBed, &patch.WeekendBedTime)

	if cmd.Flags().Changed("gender") {
		g := ledger.Gender(o.Gender)
		patch.Gender = &g
		changed = true
	}
	if cmd.Flags().Changed("unit") {
		u := ledger.WeightUnit(o.Unit)
		patch.WeightUnit = &u
		changed = true
	}
	return patch, changed
}

func runProfile(opts *ProfileOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	patch, changed := opts.profilePatch(cmd)
	if changed {
		if err := eng.UpdateProfile(ctx, patch); err != nil {
			return intentError("failed to update profile", err)
		}
	}

	doc := eng.Document()
	result := ProfileResult{Profile: doc.Profile, DailyGoal: doc.Settings.DailyGoal, Updated: changed}
	return newFormatter(opts.RootOptions, cmd).Render(result, func(w io.Writer) {
		if changed {
			fmt.Fprintln(w, "✓ Profile updated")
		}
		p := result.Profile
		name := p.Name
		if name == "" {
			name = "(unset)"
		}
		fmt.Fprintf(w, "Name:          %s\n", name)
		fmt.Fprintf(w, "Gender:        %s\n", p.Gender)
		if p.Age != "" {
			fmt.Fprintf(w, "Age:           %s\n", p.Age)
		}
		if p.Weight != "" {
			fmt.Fprintf(w, "Weight:        %s %s\n", p.Weight, p.WeightUnit)
		}
		fmt.Fprintf(w, "Workday:       wake %s, bed %s\n", p.WorkdayWakeTime, p.WorkdayBedTime)
		fmt.Fprintf(w, "Weekend:       wake %s, bed %s\n", p.WeekendWakeTime, p.WeekendBedTime)
		fmt.Fprintf(w, "Daily goal:    %d mL\n", result.DailyGoal)
	})
}
