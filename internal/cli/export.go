package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger document as JSON",
		Long: `Write the ledger document (profile, settings, drink history and daily
totals) as JSON to stdout, or to a file with -o.

Examples:
  myh2o export > backup.json
  myh2o export -o backup.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	eng, closeFn, err := opts.openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := eng.Export()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export ledger", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write export", err)
		}
		result := map[string]any{"path": opts.Output, "bytes": len(data) + 1}
		return newFormatter(opts.RootOptions, cmd).Render(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ Exported ledger to %s\n", opts.Output)
		})
	}

	// Text mode prints the bare document.
	return newFormatter(opts.RootOptions, cmd).Render(json.RawMessage(data), func(w io.Writer) {
		fmt.Fprintf(w, "%s\n", data)
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the ledger with a JSON document",
		Long: `Replace the ledger with a document written by export. The mutation log
starts over from the imported document, and sleep-schedule reminders are
re-armed from its profile.

Examples:
  myh2o import backup.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, cmd, args[0])
		},
	}
}

func runImport(opts *RootOptions, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}

	ctx := cmd.Context()
	eng, closeFn, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := eng.Import(ctx, data); err != nil {
		return WrapExitError(ExitCommandError, "failed to import ledger", err)
	}

	doc := eng.Document()
	result := map[string]int{"drinks": len(doc.DrinkHistory), "days": len(doc.DailyStats)}
	return newFormatter(opts, cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Imported %d drink(s) across %d day(s)\n", result["drinks"], result["days"])
	})
}
