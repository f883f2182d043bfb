package model

import (
	"fmt"
	"math"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/table"
)

// Cross builds the secondary cross-efficiency model of rating unit u.
// theta is u's unrounded CCR score. The model maximizes the summed weighted
// outputs of the other units with their summed weighted inputs normalized to
// one, keeps every other unit at or below one, and pins u's own ratio to theta.
//
// With no other valid unit the normalization row is empty and the program is
// infeasible.
func Cross(t *table.Table, u int, theta float64, opts ...Option) (Model, error) {
	if err := checkUnit(t, u); err != nil {
		return Model{}, err
	}
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return Model{}, fmt.Errorf("model: cross-efficiency of %q needs a finite score, got %v", t.Unit(u), theta)
	}
	refs := newOptions(opts).reference(t, u)

	var peersOut, peersIn lp.Expr
	for _, v := range refs {
		peersOut = peersOut.Add(WeightedOutputs(t, v))
		peersIn = peersIn.Add(WeightedInputs(t, v))
	}

	b := lp.NewBuilder(problemName(CrossEfficiency, t, u), lp.Maximize)
	addWeights(b, t)
	b.SetObjective(peersOut)
	b.AddConstraint("norm", peersIn, lp.EQ, lp.Const(1))
	for _, v := range refs {
		b.AddConstraint(refName(t, v), WeightedOutputs(t, v), lp.LE, WeightedInputs(t, v))
	}
	b.AddConstraint("pin", WeightedOutputs(t, u).Sub(WeightedInputs(t, u).Scale(theta)), lp.EQ, lp.Const(0))

	p, err := b.Build()
	if err != nil {
		return Model{}, fmt.Errorf("model: build %s: %w", CrossEfficiency, err)
	}
	return Model{Kind: CrossEfficiency, Unit: u, Problem: p, Refs: refs, t: t}, nil
}
