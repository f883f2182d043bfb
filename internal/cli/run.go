package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/frontier/internal/config"
	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	TableFlags
	Config    string
	Database  string
	Precision int
	Cross     bool

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
	// Solver overrides the configured backend (for testing).
	Solver solver.Solver
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score every unit of a table",
		Long: `Run CCR efficiency, super-efficiency, cross-efficiency and closest
targets over a table. Unit-level failures are reported per unit; the run
continues past them.

The run is archived when --db is given or frontier.yaml names a database.

Examples:
  frontier run --inputs inputs.csv --outputs outputs.csv
  frontier run --table branches.csv --input-cols staff,space --output-cols visits
  frontier run --inputs in.csv --outputs out.csv --db runs.db --precision 4`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	opts.TableFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Config, "config", "", "configuration file (default ./"+config.FileName+" when present)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")
	cmd.Flags().IntVar(&opts.Precision, "precision", config.DefaultPrecision, "decimal places of reported values")
	cmd.Flags().BoolVar(&opts.Cross, "cross", false, "print the full cross-efficiency matrix")

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	fmtr := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(fmtr, opts.Config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("precision") {
		cfg.Precision = opts.Precision
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeConfig, "invalid settings", err)
	}

	t, err := loadTable(fmtr, &opts.TableFlags)
	if err != nil {
		return err
	}
	fmtr.VerboseLog("Loaded %d units (%d invalid)", t.Len(), len(t.Problems()))

	ctx, stop := signalContext(cmd)
	defer stop()

	slv := opts.Solver
	if slv == nil {
		slv = newSolver(cfg)
	}
	engOpts := append(engineSettings(cfg), engine.WithLogger(logger))
	if opts.RunIDs != nil {
		engOpts = append(engOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}
	rep, err := engine.New(slv, engOpts...).Run(ctx, t)
	if err != nil {
		return runFailure(fmtr, err)
	}

	if cfg.Database != "" {
		if err := archiveRun(ctx, fmtr, cfg.Database, rep, t); err != nil {
			return err
		}
		logger.Info("run archived", "run_id", rep.RunID, "db", cfg.Database)
	}

	return fmtr.Render(rep, func(w io.Writer) error {
		if err := writeReport(w, rep); err != nil {
			return err
		}
		if opts.Cross {
			fmt.Fprintln(w)
			return writeCross(w, rep.Cross)
		}
		return nil
	})
}

func archiveRun(ctx context.Context, fmtr *OutputFormatter, path string, rep *engine.Report, t *table.Table) error {
	st, err := openArchive(fmtr, path, true)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveRun(ctx, rep, t); err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to archive run", err)
	}
	return nil
}

// runFailure maps a fatal engine error to an exit error.
func runFailure(fmtr *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, solver.ErrUnavailable):
		return fail(fmtr, ExitCommandError, ErrCodeSolver, "solver unavailable", err)
	case errors.Is(err, context.Canceled):
		return fail(fmtr, ExitFailure, ErrCodeSolver, "run interrupted", err)
	default:
		return fail(fmtr, ExitCommandError, ErrCodeSolver, "run failed", err)
	}
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM, so a long run stops between units.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
