package model

import (
	"fmt"
	"math"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/table"
)

// Target builds the closest-target MIP of unit u.
//
//	minimize   sum_r y_ur u_r
//	subject to sum_i x_ui v_i = 1
//	           out_v >= in_v - M (1 - z_v)   for every reference unit v
//	           out_v <= in_v                 for every reference unit v
//	           sum_v z_v >= 1
//
// A unit with z_v = 1 sits on the selected facet with zero slack.
func Target(t *table.Table, u int, opts ...Option) (Model, error) {
	if err := checkUnit(t, u); err != nil {
		return Model{}, err
	}
	o := newOptions(opts)
	refs := o.reference(t, -1)
	if !contains(refs, u) {
		refs = insertSorted(refs, u)
	}
	m := o.bigM
	if m <= 0 {
		m = BigM(t, u, refs, o.factor)
	}

	b := lp.NewBuilder(problemName(ClosestTarget, t, u), lp.Minimize)
	addWeights(b, t)
	for _, v := range refs {
		b.AddVar(lp.BinaryVar(Indicator(t.Unit(v))))
	}
	b.SetObjective(WeightedOutputs(t, u))
	b.AddConstraint("norm", WeightedInputs(t, u), lp.EQ, lp.Const(1))

	cover := make([]lp.Term, len(refs))
	for i, v := range refs {
		z := Indicator(t.Unit(v))
		out, in := WeightedOutputs(t, v), WeightedInputs(t, v)
		// out_v - in_v - M z_v >= -M
		b.AddConstraint("dom["+t.Unit(v)+"]", out.Sub(in).Add(lp.Sum(lp.T(z, -m))), lp.GE, lp.Const(-m))
		b.AddConstraint("facet["+t.Unit(v)+"]", out, lp.LE, in)
		cover[i] = lp.T(z, 1)
	}
	b.AddConstraint("cover", lp.Sum(cover...), lp.GE, lp.Const(1))

	p, err := b.Build()
	if err != nil {
		return Model{}, fmt.Errorf("model: build %s: %w", ClosestTarget, err)
	}
	return Model{Kind: ClosestTarget, Unit: u, Problem: p, Refs: refs, BigM: m, t: t}, nil
}

// BigM derives the relaxation constant for unit u over the reference set:
// factor * max_v(sum_i x_vi) / min{x_ui : x_ui > 0}, never below 1. A
// non-positive factor falls back to DefaultBigMFactor.
func BigM(t *table.Table, u int, refs []int, factor float64) float64 {
	if factor <= 0 {
		factor = DefaultBigMFactor
	}
	var maxSum float64
	for _, v := range refs {
		var s float64
		for i := range t.Inputs() {
			s += t.Input(v, i)
		}
		maxSum = math.Max(maxSum, s)
	}
	minPos := math.Inf(1)
	for i := range t.Inputs() {
		if x := t.Input(u, i); x > 0 && x < minPos {
			minPos = x
		}
	}
	if math.IsInf(minPos, 1) {
		minPos = 1
	}
	return math.Max(1, factor*maxSum/minPos)
}
