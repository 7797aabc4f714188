package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/myh2o/internal/config"
	"github.com/roach88/myh2o/internal/engine"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/store"
)

// RootOptions holds global flags for all commands.
//
// Empty flag values fall back to the config file, then the environment, then
// the defaults (see config.Load).
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string
	Timezone   string
	Ledger     string

	cfg   *config.Config
	clock ledger.Clock
	rnd   engine.Rand
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the myh2o CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "myh2o",
		Short: "MyH2o - hydration tracker",
		Long: `Track what you drink, see how far you are from today's goal, and keep
water reminders in step with your sleep schedule.

Coffee, soda and alcohol add a water debt on top of the daily goal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), cfg.SlogLevel())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to CUE config file")
	flags.StringVar(&opts.DBPath, "db", "", "path to SQLite database (default from config)")
	flags.StringVar(&opts.Timezone, "tz", "", "IANA timezone for calendar dates (default from config)")
	flags.StringVar(&opts.Ledger, "ledger", "", "ledger key within the database (default from config)")

	cmd.AddCommand(NewDrinkCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewOnboardCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWeekCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewBeveragesCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	if err := cmd.Execute(); err != nil {
		f := &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		}
		_ = f.Error(errorCode(err), err.Error(), nil)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// Config resolves the effective configuration once: defaults, config file,
// environment, then non-empty flags.
func (o *RootOptions) Config() (config.Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.Timezone != "" {
		cfg.Timezone = o.Timezone
	}
	if o.Ledger != "" {
		cfg.LedgerKey = o.Ledger
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.cfg = &cfg
	return cfg, nil
}

// openEngine opens the configured store and ledger. The returned close
// function releases the store.
func (o *RootOptions) openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid timezone", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	engOpts := []engine.Option{
		engine.WithLedgerKey(cfg.LedgerKey),
		engine.WithLocation(loc),
		engine.WithChannel(cfg.Channel),
	}
	if o.clock != nil {
		engOpts = append(engOpts, engine.WithWallClock(o.clock))
	}
	if o.rnd != nil {
		engOpts = append(engOpts, engine.WithRand(o.rnd))
	}

	eng, err := engine.Open(ctx, st, engOpts...)
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return eng, func() { st.Close() }, nil
}

// setupLogging installs the process-wide slog handler on w.
func setupLogging(w io.Writer, level slog.Level) {
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
