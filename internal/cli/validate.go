package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	TableFlags
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a table without scoring it",
		Long: `Load a table and report every problem: table-level errors such as
duplicate units or columns, and unit-level errors such as negative,
missing or non-numeric values.

Exit codes:
  0 - Every unit is valid
  1 - The table or one of its units is invalid
  2 - Command error (unreadable file, bad flags)`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	opts.TableFlags.register(cmd)
	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	fmtr := newFormatter(opts.RootOptions, cmd)

	t, err := loadTable(fmtr, &opts.TableFlags)
	if err != nil {
		return err
	}

	summary := summarizeTable(t)
	text := func(w io.Writer) error { return writeTableSummary(w, summary) }
	if n := len(summary.Problems); n > 0 {
		msg := fmt.Sprintf("%d invalid unit(s)", n)
		if err := fmtr.Fail(ErrCodeInvalidTable, msg, summary, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return fmtr.Render(summary, text)
}
