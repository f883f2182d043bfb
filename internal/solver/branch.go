package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/frontier/internal/lp"
)

// bbNode is one subproblem: the original rows under tightened bounds.
type bbNode struct {
	lower []float64
	upper []float64
}

// branchAndBound explores subproblems depth-first, branching on the most
// fractional integral variable and pruning any node whose relaxation cannot
// beat the incumbent. Ties in branching pick the lowest index so runs are
// reproducible.
func (s *Simplex) branchAndBound(ctx context.Context, p lp.Problem, d *dense) (lp.Result, error) {
	stack := []bbNode{{lower: cloneFloats(d.lower), upper: cloneFloats(d.upper)}}
	for j, integral := range d.integral {
		if !integral {
			continue
		}
		stack[0].lower[j] = math.Ceil(stack[0].lower[j] - s.intTol)
		if !math.IsInf(stack[0].upper[j], 1) {
			stack[0].upper[j] = math.Floor(stack[0].upper[j] + s.intTol)
		}
	}

	var (
		best     []float64
		bestCost = math.Inf(1)
		nodes    int
		lastErr  string
	)
	for len(stack) > 0 {
		if nodes >= s.maxNodes {
			return lp.Result{Status: lp.StatusOther, Nodes: nodes,
				Detail: fmt.Sprintf("branch-and-bound node limit %d reached", s.maxNodes)}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		rel, err := s.relaxNode(ctx, d, nd.lower, nd.upper)
		if err != nil {
			return lp.Result{}, err
		}
		switch rel.status {
		case lp.StatusInfeasible:
			continue
		case lp.StatusUnbounded:
			return toResult(p, d, rel, nodes), nil
		case lp.StatusOther:
			if nodes == 1 {
				return toResult(p, d, rel, nodes), nil
			}
			lastErr = rel.detail
			continue
		}

		cost := d.costOf(rel.x)
		if best != nil && cost >= bestCost-1e-9*(1+math.Abs(bestCost)) {
			continue
		}

		j := s.mostFractional(d, rel.x)
		if j < 0 {
			x, err := s.polish(ctx, d, rel.x)
			if err != nil {
				return lp.Result{}, err
			}
			best, bestCost = x, d.costOf(x)
			continue
		}

		v := rel.x[j]
		fl := math.Floor(v)
		down := bbNode{lower: cloneFloats(nd.lower), upper: cloneFloats(nd.upper)}
		down.upper[j] = fl
		up := bbNode{lower: cloneFloats(nd.lower), upper: cloneFloats(nd.upper)}
		up.lower[j] = fl + 1
		// The side nearer the relaxed value is explored first.
		if v-fl >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best == nil {
		detail := "no integral solution"
		if lastErr != "" {
			detail = fmt.Sprintf("no integral solution (last relaxation failure: %s)", lastErr)
		}
		return lp.Result{Status: lp.StatusInfeasible, Detail: detail, Nodes: nodes}, nil
	}
	return toResult(p, d, relaxation{status: lp.StatusOptimal, x: best}, nodes), nil
}

// polish rounds the integral variables of an incumbent and re-solves the
// continuous part with them fixed, so big-M rows see exact 0/1 values.
// If the fixed problem fails numerically the rounded relaxation is kept.
func (s *Simplex) polish(ctx context.Context, d *dense, x []float64) ([]float64, error) {
	lower, upper := cloneFloats(d.lower), cloneFloats(d.upper)
	rounded := cloneFloats(x)
	for j, integral := range d.integral {
		if integral {
			rounded[j] = math.Round(x[j])
			lower[j], upper[j] = rounded[j], rounded[j]
		}
	}
	rel, err := s.relaxNode(ctx, d, lower, upper)
	if err != nil {
		return nil, err
	}
	if rel.status != lp.StatusOptimal {
		return rounded, nil
	}
	return rel.x, nil
}

// relaxNode solves a node relaxation. Branching pins integral variables, so
// an infeasible verdict is confirmed with the pinned columns kept as explicit
// equality rows before the node is pruned.
func (s *Simplex) relaxNode(ctx context.Context, d *dense, lower, upper []float64) (relaxation, error) {
	rel, err := s.relax(ctx, d, lower, upper, false)
	if err != nil || rel.status != lp.StatusInfeasible || !pinned(lower, upper) {
		return rel, err
	}
	return s.relax(ctx, d, lower, upper, true)
}

func pinned(lower, upper []float64) bool {
	for j := range lower {
		if math.Abs(upper[j]-lower[j]) <= feasTol {
			return true
		}
	}
	return false
}

// mostFractional returns the integral variable farthest from an integer, or -1.
func (s *Simplex) mostFractional(d *dense, x []float64) int {
	best, bestDist := -1, s.intTol
	for j, integral := range d.integral {
		if !integral {
			continue
		}
		dist := math.Abs(x[j] - math.Round(x[j]))
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
