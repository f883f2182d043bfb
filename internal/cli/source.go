package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/frontier/internal/config"
	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/store"
	"github.com/roach88/frontier/internal/table"
)

// TableFlags select the table to load: an inputs/outputs file pair, or one
// file with explicit column lists.
type TableFlags struct {
	Inputs     string
	Outputs    string
	Table      string
	InputCols  []string
	OutputCols []string
}

func (f *TableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Inputs, "inputs", "", "CSV file of unit inputs")
	cmd.Flags().StringVar(&f.Outputs, "outputs", "", "CSV file of unit outputs")
	cmd.Flags().StringVar(&f.Table, "table", "", "single CSV file holding inputs and outputs")
	cmd.Flags().StringSliceVar(&f.InputCols, "input-cols", nil, "input columns of --table")
	cmd.Flags().StringSliceVar(&f.OutputCols, "output-cols", nil, "output columns of --table")
}

// check rejects flag combinations that name no table or two tables.
func (f *TableFlags) check() error {
	pair := f.Inputs != "" || f.Outputs != ""
	switch {
	case pair && f.Table != "":
		return errors.New("--table cannot be combined with --inputs/--outputs")
	case pair && (f.Inputs == "" || f.Outputs == ""):
		return errors.New("--inputs and --outputs must be given together")
	case f.Table != "" && (len(f.InputCols) == 0 || len(f.OutputCols) == 0):
		return errors.New("--table requires --input-cols and --output-cols")
	case !pair && f.Table == "":
		return errors.New("a table is required: use --inputs/--outputs or --table")
	}
	return nil
}

func (f *TableFlags) load() (*table.Table, error) {
	if f.Table != "" {
		return table.LoadCSV(f.Table, f.InputCols, f.OutputCols)
	}
	return table.LoadPair(f.Inputs, f.Outputs)
}

// loadTable loads the table and maps its errors to exit codes: unreadable
// files are command errors, a table that cannot be built at all is a failure.
func loadTable(fmtr *OutputFormatter, f *TableFlags) (*table.Table, error) {
	if err := f.check(); err != nil {
		return nil, fail(fmtr, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	t, err := f.load()
	switch {
	case errors.Is(err, table.ErrInvalidTable):
		return nil, fail(fmtr, ExitFailure, ErrCodeInvalidTable, "invalid table", err)
	case err != nil:
		return nil, fail(fmtr, ExitCommandError, ErrCodeTableLoad, "failed to load table", err)
	}
	return t, nil
}

// loadConfig reads the file named by --config, or frontier.yaml from the
// working directory when present.
func loadConfig(fmtr *OutputFormatter, path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, fail(fmtr, ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	return cfg, nil
}

// newSolver builds the solver backend from configuration.
func newSolver(cfg *config.Config) solver.Solver {
	return solver.NewSimplex(
		solver.WithTolerance(cfg.Solver.Tolerance),
		solver.WithIntegralityTolerance(cfg.Solver.IntegralityTolerance),
		solver.WithMaxNodes(cfg.Solver.NodeLimit),
		solver.WithTimeout(cfg.Solver.Timeout),
	)
}

// engineSettings converts configuration into engine options.
func engineSettings(cfg *config.Config) []engine.EngineOption {
	return []engine.EngineOption{
		engine.WithPrecision(cfg.Precision),
		engine.WithBigM(cfg.Target.BigM),
		engine.WithBigMFactor(cfg.Target.BigMFactor),
	}
}

// openArchive opens the run archive at path. Unless create is set the file
// must already exist, so a mistyped path is reported instead of creating an
// empty archive.
func openArchive(fmtr *OutputFormatter, path string, create bool) (*store.Store, error) {
	if path == "" {
		return nil, fail(fmtr, ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("a run archive is required: pass --db or set database in %s", config.FileName), nil)
	}
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fail(fmtr, ExitCommandError, ErrCodeNotFound, "database not found", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fail(fmtr, ExitCommandError, ErrCodeArchive, "failed to open database", err)
	}
	return st, nil
}

// archivePath returns --db when given, else the configured database.
func archivePath(fmtr *OutputFormatter, db, configPath string) (string, error) {
	if db != "" {
		return db, nil
	}
	cfg, err := loadConfig(fmtr, configPath)
	if err != nil {
		return "", err
	}
	return cfg.Database, nil
}
