package model

import (
	"fmt"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/table"
)

// CCR builds the standard efficiency model of unit u. The reference set is
// every valid unit, u included.
func CCR(t *table.Table, u int, opts ...Option) (Model, error) {
	o := newOptions(opts)
	o.withSelf = true
	return ccr(Efficiency, t, u, o)
}

// Super builds the super-efficiency model of unit u: the CCR model with u
// left out of its own reference set unless WithSelf is given.
//
// With no other valid unit the model keeps only the normalization row; the
// solver then reports it unbounded whenever u has a positive output.
func Super(t *table.Table, u int, opts ...Option) (Model, error) {
	return ccr(SuperEfficiency, t, u, newOptions(opts))
}

func ccr(k Kind, t *table.Table, u int, o options) (Model, error) {
	if err := checkUnit(t, u); err != nil {
		return Model{}, err
	}
	exclude := u
	if o.withSelf {
		exclude = -1
	}
	refs := o.reference(t, exclude)
	if o.withSelf && !contains(refs, u) {
		refs = insertSorted(refs, u)
	}

	b := lp.NewBuilder(problemName(k, t, u), lp.Maximize)
	addWeights(b, t)
	b.SetObjective(WeightedOutputs(t, u))
	b.AddConstraint("norm", WeightedInputs(t, u), lp.EQ, lp.Const(1))
	for _, v := range refs {
		b.AddConstraint(refName(t, v), WeightedOutputs(t, v), lp.LE, WeightedInputs(t, v))
	}
	p, err := b.Build()
	if err != nil {
		return Model{}, fmt.Errorf("model: build %s: %w", k, err)
	}
	return Model{Kind: k, Unit: u, Problem: p, Refs: refs, t: t}, nil
}

func contains(s []int, x int) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

func insertSorted(s []int, x int) []int {
	out := make([]int, 0, len(s)+1)
	placed := false
	for _, v := range s {
		if !placed && x < v {
			out = append(out, x)
			placed = true
		}
		out = append(out, v)
	}
	if !placed {
		out = append(out, x)
	}
	return out
}
