package engine

import (
	"context"
	"time"

	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// Score is one unit's result under a scalar formulation.
type Score struct {
	Unit string `json:"unit"`
	// Value is Raw rounded to the engine precision.
	Value float64 `json:"value"`
	Raw   float64 `json:"raw"`
	// Failure is set instead of Value and Raw when the unit has no score.
	Failure *UnitError `json:"failure,omitempty"`
}

// OK reports whether the score is defined.
func (s Score) OK() bool { return s.Failure == nil }

// Scores lists one Score per table unit, in table order.
type Scores []Score

// Lookup finds a unit's score.
func (s Scores) Lookup(unit string) (Score, bool) {
	for _, sc := range s {
		if sc.Unit == unit {
			return sc, true
		}
	}
	return Score{}, false
}

// Failures returns the failures in order.
func (s Scores) Failures() []*UnitError {
	var out []*UnitError
	for _, sc := range s {
		if sc.Failure != nil {
			out = append(out, sc.Failure)
		}
	}
	return out
}

// EfficiencyResult holds the standard and super-efficiency scores.
type EfficiencyResult struct {
	Standard Scores `json:"standard"`
	Super    Scores `json:"super"`
}

// Efficiency computes CCR and super-efficiency scores for every unit.
func (e *Engine) Efficiency(ctx context.Context, t *table.Table) (EfficiencyResult, error) {
	if err := solver.Check(e.solver); err != nil {
		return EfficiencyResult{}, err
	}
	start := time.Now()
	res := EfficiencyResult{
		Standard: make(Scores, 0, t.Len()),
		Super:    make(Scores, 0, t.Len()),
	}
	for u := 0; u < t.Len(); u++ {
		if err := ctx.Err(); err != nil {
			return EfficiencyResult{}, err
		}
		std, err := e.score(ctx, t, u, model.Efficiency)
		if err != nil {
			return EfficiencyResult{}, err
		}
		sup, err := e.score(ctx, t, u, model.SuperEfficiency)
		if err != nil {
			return EfficiencyResult{}, err
		}
		res.Standard = append(res.Standard, std)
		res.Super = append(res.Super, sup)
	}
	e.logger.Info("stage complete",
		"stage", "efficiency",
		"units", t.Len(),
		"failures", len(res.Standard.Failures())+len(res.Super.Failures()),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (e *Engine) score(ctx context.Context, t *table.Table, u int, k model.Kind) (Score, error) {
	sc := Score{Unit: t.Unit(u)}
	if f := invalidUnit(t, u, k); f != nil {
		sc.Failure = f
		e.logFailure(f)
		return sc, nil
	}

	var (
		m   model.Model
		err error
	)
	if k == model.SuperEfficiency {
		m, err = model.Super(t, u)
	} else {
		m, err = model.CCR(t, u)
	}
	if err != nil {
		sc.Failure = buildFailure(t, u, k, err)
		e.logFailure(sc.Failure)
		return sc, nil
	}

	r, fail, err := e.solve(ctx, m)
	if err != nil {
		return Score{}, err
	}
	if fail != nil {
		sc.Failure = fail
		e.logFailure(fail)
		return sc, nil
	}
	sc.Raw = r.Objective
	sc.Value = e.round(r.Objective)
	e.logger.Debug("unit solved", "unit", sc.Unit, "model", k.String(), "score", sc.Raw)
	return sc, nil
}
