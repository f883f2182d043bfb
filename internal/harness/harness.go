package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/store"
)

// Epoch is the creation time of every scenario report. A fixed timestamp
// keeps golden files byte-identical across runs.
var Epoch = time.Unix(0, 0).UTC()

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Report is the report as loaded back from the archive.
	Report *engine.Report `json:"report"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness runs scenarios through the engine.
type Harness struct {
	solver solver.Solver
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithSolver sets the solver backend. Default: solver.NewSimplex().
func WithSolver(s solver.Solver) Option {
	return func(h *Harness) {
		h.solver = s
	}
}

// WithLogger sets the engine logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		solver: solver.NewSimplex(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with the default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory archive for isolation.
//
// Execution flow:
// 1. Build the table (inline or from CSV)
// 2. Run the engine with a fixed run ID and timestamp
// 3. Archive the report and load it back
// 4. Evaluate assertions against the loaded report
//
// A returned error means the scenario could not be executed; assertion
// failures are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	tbl, err := scenario.BuildTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}

	opts := append([]engine.EngineOption{
		engine.WithLogger(h.logger),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(scenario.RunIDOrDefault())),
		engine.WithClock(func() time.Time { return Epoch }),
	}, scenario.engineOptions()...)
	rep, err := engine.New(h.solver, opts...).Run(ctx, tbl)
	if err != nil {
		return nil, fmt.Errorf("failed to run engine: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.SaveRun(ctx, rep, tbl); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}
	archived, err := st.LoadRun(ctx, rep.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived report: %w", err)
	}

	result := NewResult()
	result.Report = archived

	digest, err := engine.ReportDigest(archived)
	if err != nil {
		return nil, err
	}
	if digest != rep.Digest {
		result.AddError(fmt.Sprintf("archive changed the report digest: %s, computed %s", digest, rep.Digest))
	}

	for _, msg := range EvaluateAssertions(archived, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
