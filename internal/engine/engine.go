package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// DefaultPrecision is the number of decimal places scores are rounded to.
const DefaultPrecision = 3

// Engine evaluates tables. It holds configuration only and may be reused
// across runs; a single Run is sequential.
type Engine struct {
	solver     solver.Solver
	logger     *slog.Logger
	precision  int
	bigM       float64
	bigMFactor float64
	runIDs     RunIDGenerator
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPrecision sets the decimal places of rounded scores.
func WithPrecision(places int) EngineOption {
	return func(e *Engine) {
		e.precision = places
	}
}

// WithBigM fixes the closest-target relaxation constant. Zero keeps the
// data-derived value.
func WithBigM(m float64) EngineOption {
	return func(e *Engine) {
		e.bigM = m
	}
}

// WithBigMFactor sets the multiplier of the data-derived big-M.
func WithBigMFactor(f float64) EngineOption {
	return func(e *Engine) {
		e.bigMFactor = f
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithClock sets the source of report timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine that solves through s.
func New(s solver.Solver, opts ...EngineOption) *Engine {
	e := &Engine{
		solver:     s,
		logger:     slog.Default(),
		precision:  DefaultPrecision,
		bigMFactor: model.DefaultBigMFactor,
		runIDs:     UUIDv7Generator{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the engine parameters that shape results.
func (e *Engine) Settings() Settings {
	return Settings{Precision: e.precision, BigM: e.bigM, BigMFactor: e.bigMFactor}
}

// Settings are the engine parameters recorded with a report.
type Settings struct {
	Precision  int     `json:"precision"`
	BigM       float64 `json:"big_m"`
	BigMFactor float64 `json:"big_m_factor"`
}

// round rounds x to the engine's precision.
func (e *Engine) round(x float64) float64 {
	return Round(x, e.precision)
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	if places < 0 {
		return x
	}
	p := math.Pow(10, float64(places))
	r := math.Round(x*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// solve runs one program. A unit-level failure is returned as *UnitError;
// a non-nil error aborts the run (solver unavailable or caller cancelled).
func (e *Engine) solve(ctx context.Context, m model.Model) (lp.Result, *UnitError, error) {
	r, err := e.solver.Solve(ctx, m.Problem)
	if err != nil {
		if errors.Is(err, solver.ErrUnavailable) {
			return lp.Result{}, nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return lp.Result{}, nil, ctxErr
		}
		return lp.Result{}, newUnitError(CodeSolverFailure, m.UnitID(), m.Kind, "%v", err), nil
	}
	if !r.Optimal() {
		return r, statusError(m.UnitID(), m.Kind, r), nil
	}
	return r, nil, nil
}

// buildFailure maps a model construction error to a unit failure.
func buildFailure(t *table.Table, u int, k model.Kind, err error) *UnitError {
	if f := invalidUnit(t, u, k); f != nil {
		return f
	}
	if errors.Is(err, model.ErrInvalidUnit) {
		return newUnitError(CodeInvalidInput, t.Unit(u), k, "%v", err)
	}
	return newUnitError(CodeSolverFailure, t.Unit(u), k, "%v", err)
}

// invalidUnit returns the INVALID_INPUT failure of a flagged unit, or nil.
func invalidUnit(t *table.Table, u int, k model.Kind) *UnitError {
	p := t.Problem(u)
	if p == nil {
		return nil
	}
	reason := p.Reason
	if p.Column != "" {
		reason = "column " + p.Column + ": " + reason
	}
	return newUnitError(CodeInvalidInput, t.Unit(u), k, "%s", reason)
}

func (e *Engine) logFailure(f *UnitError) {
	e.logger.Warn("unit failed",
		"unit", f.Unit,
		"model", f.Model,
		"status", string(f.Code),
		"reason", f.Message,
	)
}

func (e *Engine) modelOptions() []model.Option {
	return []model.Option{model.WithBigM(e.bigM), model.WithBigMFactor(e.bigMFactor)}
}
