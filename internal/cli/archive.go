package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/store"
)

// ArchiveOptions holds flags shared by the commands that read the archive.
type ArchiveOptions struct {
	*RootOptions
	Database string
	Config   string
}

func (o *ArchiveOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to the run archive (default: database in frontier.yaml)")
	cmd.Flags().StringVar(&o.Config, "config", "", "configuration file")
}

func (o *ArchiveOptions) open(fmtr *OutputFormatter) (*store.Store, error) {
	path, err := archivePath(fmtr, o.Database, o.Config)
	if err != nil {
		return nil, err
	}
	return openArchive(fmtr, path, false)
}

// resolveRun expands an ID prefix, mapping lookup errors to exit codes.
func resolveRun(ctx context.Context, fmtr *OutputFormatter, st *store.Store, prefix string) (string, error) {
	id, err := st.Resolve(ctx, prefix)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", fail(fmtr, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", prefix), nil)
	case errors.Is(err, store.ErrAmbiguous):
		return "", fail(fmtr, ExitCommandError, ErrCodeNotFound, "ambiguous run ID", err)
	case err != nil:
		return "", fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to read archive", err)
	}
	return id, nil
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	ArchiveOptions
	TableDigest string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		Long: `List archived runs, oldest first.

Examples:
  frontier history --db runs.db
  frontier history --db runs.db --table-digest 3f9a...`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.TableDigest, "table-digest", "", "only runs over the table with this digest")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	fmtr := newFormatter(opts.RootOptions, cmd)
	st, err := opts.open(fmtr)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var runs []store.RunSummary
	if opts.TableDigest != "" {
		runs, err = st.RunsForTable(ctx, opts.TableDigest)
	} else {
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	return fmtr.Render(runs, func(w io.Writer) error { return writeHistory(w, runs) })
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	ArchiveOptions
	Cross bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print an archived run",
		Long: `Print an archived run. Any unique prefix of the run ID is accepted.

Examples:
  frontier show --db runs.db 0192f3
  frontier show --db runs.db 0192f3 --cross --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.Cross, "cross", false, "print the full cross-efficiency matrix")
	return cmd
}

func runShow(opts *ShowOptions, prefix string, cmd *cobra.Command) error {
	fmtr := newFormatter(opts.RootOptions, cmd)
	st, err := opts.open(fmtr)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	id, err := resolveRun(ctx, fmtr, st, prefix)
	if err != nil {
		return err
	}
	rep, err := st.LoadRun(ctx, id)
	if err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to load run", err)
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

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	ArchiveOptions

	// Solver overrides the configured backend (for testing).
	Solver solver.Solver
}

// VerifyResult is the outcome of re-running an archived table.
type VerifyResult struct {
	RunID      string `json:"run_id"`
	Digest     string `json:"digest"`
	Recomputed string `json:"recomputed"`
	Match      bool   `json:"match"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "verify <run-id>",
		Short: "Re-run an archived table and compare digests",
		Long: `Re-run the table of an archived run with its recorded settings and
compare the new report digest with the archived one.

Exit codes:
  0 - Digests match
  1 - Digests differ
  2 - Command error (archive missing, run not found)`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	opts.register(cmd)
	return cmd
}

func runVerify(opts *VerifyOptions, prefix string, cmd *cobra.Command) error {
	fmtr := newFormatter(opts.RootOptions, cmd)
	st, err := opts.open(fmtr)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	id, err := resolveRun(ctx, fmtr, st, prefix)
	if err != nil {
		return err
	}
	archived, err := st.LoadRun(ctx, id)
	if err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to load run", err)
	}
	t, err := st.LoadTable(ctx, id)
	if err != nil {
		return fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to load table", err)
	}

	slv := opts.Solver
	if slv == nil {
		cfg, err := loadConfig(fmtr, opts.Config)
		if err != nil {
			return err
		}
		slv = newSolver(cfg)
	}
	eng := engine.New(slv,
		engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		engine.WithPrecision(archived.Settings.Precision),
		engine.WithBigM(archived.Settings.BigM),
		engine.WithBigMFactor(archived.Settings.BigMFactor),
	)
	rep, err := eng.Run(ctx, t)
	if err != nil {
		return runFailure(fmtr, err)
	}

	result := VerifyResult{
		RunID:      id,
		Digest:     archived.Digest,
		Recomputed: rep.Digest,
		Match:      rep.Digest == archived.Digest,
	}
	text := func(w io.Writer) error {
		mark := "✓"
		if !result.Match {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, result.RunID)
		fmt.Fprintf(w, "  archived:   %s\n", result.Digest)
		_, err := fmt.Fprintf(w, "  recomputed: %s\n", result.Recomputed)
		return err
	}
	if !result.Match {
		msg := fmt.Sprintf("report digest of run %s changed", id)
		if err := fmtr.Fail(ErrCodeMismatch, msg, result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return fmtr.Render(result, text)
}
