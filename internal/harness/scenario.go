package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/table"
)

// Scenario is one evaluation of a table with expectations about the report.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run identifier of the report.
	// If empty, defaults to "scenario-<name>" for deterministic golden files.
	RunID string `yaml:"run_id,omitempty"`

	// Settings override the engine defaults.
	Settings *Settings `yaml:"settings,omitempty"`

	// Table is an inline table. Exactly one of Table and CSV is set.
	Table *TableSpec `yaml:"table,omitempty"`

	// CSV loads the table from files relative to the scenario file.
	CSV *CSVSource `yaml:"csv,omitempty"`

	// Assertions validate the report.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory of the scenario file; CSV paths resolve against it.
	dir string
}

// Settings are engine overrides. nil fields keep the defaults.
type Settings struct {
	Precision  *int     `yaml:"precision,omitempty"`
	BigM       *float64 `yaml:"big_m,omitempty"`
	BigMFactor *float64 `yaml:"big_m_factor,omitempty"`
}

// TableSpec is a table written out in the scenario.
type TableSpec struct {
	Inputs  []string  `yaml:"inputs"`
	Outputs []string  `yaml:"outputs"`
	Units   []UnitRow `yaml:"units"`
}

// UnitRow is one unit of an inline table. Use .nan for a missing value.
type UnitRow struct {
	ID string    `yaml:"id"`
	X  []float64 `yaml:"x"`
	Y  []float64 `yaml:"y"`
}

// CSVSource names the table files: either an inputs/outputs pair or a
// single file with explicit column lists.
type CSVSource struct {
	Inputs  string `yaml:"inputs,omitempty"`
	Outputs string `yaml:"outputs,omitempty"`

	File       string   `yaml:"file,omitempty"`
	InputCols  []string `yaml:"input_cols,omitempty"`
	OutputCols []string `yaml:"output_cols,omitempty"`
}

// Assertion checks one fact of the report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "score": rounded CCR or super-efficiency score of a unit
	// - "failure": a unit failed under a formulation with the given code
	// - "cross": rounded cross-efficiency of unit under rater's weights
	// - "cross_mean": rounded mean peer appraisal of a unit
	// - "target": closest-target score and/or facet of a unit
	// - "failure_count": total number of unit failures
	Type string `yaml:"type"`

	// Model is "ccr" or "super" for score; any formulation for failure.
	Model string `yaml:"model,omitempty"`

	Unit  string `yaml:"unit,omitempty"`
	Rater string `yaml:"rater,omitempty"`

	Value *float64 `yaml:"value,omitempty"`

	// Tolerance is the allowed absolute difference. Default: DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Code is the expected failure code (failure).
	Code string `yaml:"code,omitempty"`

	// Facet is the expected reference facet in table order (target).
	Facet []string `yaml:"facet,omitempty"`

	// Count is the expected number of failures (failure_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertScore        = "score"
	AssertFailure      = "failure"
	AssertCross        = "cross"
	AssertCrossMean    = "cross_mean"
	AssertTarget       = "target"
	AssertFailureCount = "failure_count"
)

// DefaultTolerance absorbs float noise in already rounded values.
const DefaultTolerance = 1e-9

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScenario parses scenario YAML. CSV paths resolve against the
// working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// RunIDOrDefault returns the scenario's run ID.
func (s *Scenario) RunIDOrDefault() string {
	if s.RunID != "" {
		return s.RunID
	}
	return "scenario-" + s.Name
}

// BuildTable returns the scenario's table.
func (s *Scenario) BuildTable() (*table.Table, error) {
	if s.Table != nil {
		b := table.NewBuilder(s.Table.Inputs, s.Table.Outputs)
		for _, u := range s.Table.Units {
			b.Add(u.ID, u.X, u.Y)
		}
		return b.Build()
	}
	c := s.CSV
	if c.File != "" {
		return table.LoadCSV(s.resolve(c.File), c.InputCols, c.OutputCols)
	}
	return table.LoadPair(s.resolve(c.Inputs), s.resolve(c.Outputs))
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// engineOptions converts the settings overrides.
func (s *Scenario) engineOptions() []engine.EngineOption {
	if s.Settings == nil {
		return nil
	}
	var opts []engine.EngineOption
	if p := s.Settings.Precision; p != nil {
		opts = append(opts, engine.WithPrecision(*p))
	}
	if m := s.Settings.BigM; m != nil {
		opts = append(opts, engine.WithBigM(*m))
	}
	if f := s.Settings.BigMFactor; f != nil {
		opts = append(opts, engine.WithBigMFactor(*f))
	}
	return opts
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Table == nil && s.CSV == nil:
		return fmt.Errorf("table or csv is required")
	case s.Table != nil && s.CSV != nil:
		return fmt.Errorf("table and csv are mutually exclusive")
	case s.Table != nil:
		if len(s.Table.Units) == 0 {
			return fmt.Errorf("table.units must be non-empty")
		}
	case s.CSV.File != "":
		if s.CSV.Inputs != "" || s.CSV.Outputs != "" {
			return fmt.Errorf("csv: file and inputs/outputs are mutually exclusive")
		}
		if len(s.CSV.InputCols) == 0 || len(s.CSV.OutputCols) == 0 {
			return fmt.Errorf("csv: input_cols and output_cols are required with file")
		}
	default:
		if s.CSV.Inputs == "" || s.CSV.Outputs == "" {
			return fmt.Errorf("csv: inputs and outputs are required")
		}
	}

	if s.Settings != nil && s.Settings.Precision != nil && *s.Settings.Precision < 0 {
		return fmt.Errorf("settings.precision must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

var formulations = map[string]bool{
	model.Efficiency.String():      true,
	model.SuperEfficiency.String(): true,
	model.CrossEfficiency.String(): true,
	model.ClosestTarget.String():   true,
}

var failureCodes = map[string]bool{
	string(engine.CodeInfeasible):    true,
	string(engine.CodeUnbounded):     true,
	string(engine.CodeSolverFailure): true,
	string(engine.CodeDependency):    true,
	string(engine.CodeInvalidInput):  true,
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	needUnit := func() error {
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for %s", index, a.Type)
		}
		return nil
	}
	needValue := func() error {
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertScore:
		if a.Model != model.Efficiency.String() && a.Model != model.SuperEfficiency.String() {
			return fmt.Errorf("assertions[%d]: model must be ccr or super for score, got %q", index, a.Model)
		}
		if err := needUnit(); err != nil {
			return err
		}
		return needValue()
	case AssertFailure:
		if !formulations[a.Model] {
			return fmt.Errorf("assertions[%d]: unknown model %q", index, a.Model)
		}
		if !failureCodes[a.Code] {
			return fmt.Errorf("assertions[%d]: unknown failure code %q", index, a.Code)
		}
		return needUnit()
	case AssertCross:
		if a.Rater == "" {
			return fmt.Errorf("assertions[%d]: rater is required for cross", index)
		}
		if err := needUnit(); err != nil {
			return err
		}
		return needValue()
	case AssertCrossMean:
		if err := needUnit(); err != nil {
			return err
		}
		return needValue()
	case AssertTarget:
		if err := needUnit(); err != nil {
			return err
		}
		if a.Value == nil && a.Facet == nil {
			return fmt.Errorf("assertions[%d]: value or facet is required for target", index)
		}
	case AssertFailureCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for failure_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
