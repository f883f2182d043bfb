package engine

import (
	"context"
	"time"

	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// CrossRow is the appraisal of every unit under one rating unit's weights.
// Values and Raw align with CrossMatrix.Units; nil marks an undefined entry.
type CrossRow struct {
	Rater   string     `json:"rater"`
	Values  []*float64 `json:"values"`
	Raw     []*float64 `json:"raw"`
	Failure *UnitError `json:"failure,omitempty"`
}

// CrossMatrix is the unit-by-unit cross-efficiency matrix. Entry (i, j) is
// the efficiency of unit j under unit i's weights.
type CrossMatrix struct {
	Units []string   `json:"units"`
	Rows  []CrossRow `json:"rows"`
	// Means is the rounded column mean over defined entries: how the peers
	// appraise each unit on average. nil where a column has no entry.
	Means []*float64 `json:"means"`
}

// At returns the unrounded entry (i, j).
func (c CrossMatrix) At(i, j int) (float64, bool) {
	if p := c.Rows[i].Raw[j]; p != nil {
		return *p, true
	}
	return 0, false
}

// Failures returns the failed rows' failures in order.
func (c CrossMatrix) Failures() []*UnitError {
	var out []*UnitError
	for _, row := range c.Rows {
		if row.Failure != nil {
			out = append(out, row.Failure)
		}
	}
	return out
}

// CrossEfficiency builds the cross-efficiency matrix. standard must hold the
// CCR scores of the same table; a rater without one gets a DEPENDENCY failure.
func (e *Engine) CrossEfficiency(ctx context.Context, t *table.Table, standard Scores) (CrossMatrix, error) {
	if err := solver.Check(e.solver); err != nil {
		return CrossMatrix{}, err
	}
	start := time.Now()
	n := t.Len()
	cm := CrossMatrix{Units: t.Units(), Rows: make([]CrossRow, 0, n)}
	for u := 0; u < n; u++ {
		if err := ctx.Err(); err != nil {
			return CrossMatrix{}, err
		}
		row, err := e.crossRow(ctx, t, u, standard)
		if err != nil {
			return CrossMatrix{}, err
		}
		if row.Failure != nil {
			e.logFailure(row.Failure)
		}
		cm.Rows = append(cm.Rows, row)
	}
	cm.Means = e.columnMeans(cm, n)

	e.logger.Info("stage complete",
		"stage", "cross",
		"units", n,
		"failures", len(cm.Failures()),
		"elapsed", time.Since(start),
	)
	return cm, nil
}

func (e *Engine) crossRow(ctx context.Context, t *table.Table, u int, standard Scores) (CrossRow, error) {
	n := t.Len()
	row := CrossRow{Rater: t.Unit(u), Values: make([]*float64, n), Raw: make([]*float64, n)}
	if f := invalidUnit(t, u, model.CrossEfficiency); f != nil {
		row.Failure = f
		return row, nil
	}
	theta, ok := standard.Lookup(t.Unit(u))
	if !ok || !theta.OK() {
		row.Failure = newUnitError(CodeDependency, t.Unit(u), model.CrossEfficiency, "no efficiency score for rating unit")
		return row, nil
	}

	m, err := model.Cross(t, u, theta.Raw)
	if err != nil {
		row.Failure = buildFailure(t, u, model.CrossEfficiency, err)
		return row, nil
	}
	r, fail, err := e.solve(ctx, m)
	if err != nil {
		return CrossRow{}, err
	}
	if fail != nil {
		row.Failure = fail
		return row, nil
	}
	for v := 0; v < n; v++ {
		if !t.Valid(v) {
			continue
		}
		ratio, ok := m.Ratio(r, v)
		if !ok {
			continue
		}
		raw, rounded := ratio, e.round(ratio)
		row.Raw[v], row.Values[v] = &raw, &rounded
	}
	return row, nil
}

func (e *Engine) columnMeans(cm CrossMatrix, n int) []*float64 {
	means := make([]*float64, n)
	for j := 0; j < n; j++ {
		var sum float64
		var count int
		for i := range cm.Rows {
			if v, ok := cm.At(i, j); ok {
				sum += v
				count++
			}
		}
		if count > 0 {
			m := e.round(sum / float64(count))
			means[j] = &m
		}
	}
	return means
}
