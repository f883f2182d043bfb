package engine

import (
	"context"
	"time"

	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// Target is one unit's closest-target solution.
type Target struct {
	Unit string `json:"unit"`
	// Score is the minimised weighted output, rounded.
	Score float64 `json:"score"`
	Raw   float64 `json:"raw"`
	// Facet lists the reference units selected by the indicators, in table order.
	Facet         []string   `json:"facet"`
	InputWeights  []float64  `json:"input_weights"`
	OutputWeights []float64  `json:"output_weights"`
	BigM          float64    `json:"big_m"`
	Nodes         int        `json:"nodes"`
	Failure       *UnitError `json:"failure,omitempty"`
}

// OK reports whether the target is defined.
func (t Target) OK() bool { return t.Failure == nil }

// Targets lists one Target per table unit, in table order.
type Targets []Target

// Failures returns the failures in order.
func (ts Targets) Failures() []*UnitError {
	var out []*UnitError
	for _, t := range ts {
		if t.Failure != nil {
			out = append(out, t.Failure)
		}
	}
	return out
}

// ClosestTargets solves the closest-target MIP of every unit.
func (e *Engine) ClosestTargets(ctx context.Context, t *table.Table) (Targets, error) {
	if err := solver.Check(e.solver); err != nil {
		return nil, err
	}
	start := time.Now()
	out := make(Targets, 0, t.Len())
	for u := 0; u < t.Len(); u++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tg, err := e.target(ctx, t, u)
		if err != nil {
			return nil, err
		}
		if tg.Failure != nil {
			e.logFailure(tg.Failure)
		}
		out = append(out, tg)
	}
	e.logger.Info("stage complete",
		"stage", "target",
		"units", t.Len(),
		"failures", len(out.Failures()),
		"elapsed", time.Since(start),
	)
	return out, nil
}

func (e *Engine) target(ctx context.Context, t *table.Table, u int) (Target, error) {
	tg := Target{Unit: t.Unit(u)}
	if f := invalidUnit(t, u, model.ClosestTarget); f != nil {
		tg.Failure = f
		return tg, nil
	}
	m, err := model.Target(t, u, e.modelOptions()...)
	if err != nil {
		tg.Failure = buildFailure(t, u, model.ClosestTarget, err)
		return tg, nil
	}
	tg.BigM = m.BigM

	r, fail, err := e.solve(ctx, m)
	if err != nil {
		return Target{}, err
	}
	tg.Nodes = r.Nodes
	if fail != nil {
		tg.Failure = fail
		return tg, nil
	}
	tg.Raw = r.Objective
	tg.Score = e.round(r.Objective)
	tg.Facet = make([]string, 0, len(m.Refs))
	for _, v := range m.Facet(r) {
		tg.Facet = append(tg.Facet, t.Unit(v))
	}
	tg.InputWeights = roundWeights(m.InputWeights(r))
	tg.OutputWeights = roundWeights(m.OutputWeights(r))
	return tg, nil
}

// roundWeights rounds weights to weightPrecision places.
func roundWeights(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Round(x, weightPrecision)
	}
	return out
}

const weightPrecision = 6
