package solver

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// pivotTol is the smallest column entry accepted as a pivot.
	pivotTol = 1e-9
	// ratioTieTol decides when two ratio-test candidates are tied.
	ratioTieTol = 1e-12
	// degenerateRun is the number of consecutive zero-length pivots after
	// which entering columns are chosen by Bland's rule.
	degenerateRun = 8
	// ctxEvery is how many pivots pass between context checks.
	ctxEvery = 32
)

var (
	errInfeasible = errors.New("simplex: problem is infeasible")
	errUnbounded  = errors.New("simplex: problem is unbounded")
	errStalled    = errors.New("simplex: pivot limit reached")
)

// tableau is a dense two-phase simplex tableau for
//
//	minimize cᵀx  s.t.  Ax = b, x >= 0, b >= 0.
//
// Rows 0..m-1 hold the constraints and row m the reduced costs. Columns
// 0..n-1 are the caller's, n..n+art-1 are artificials and the last column is
// the right-hand side.
type tableau struct {
	t      *mat.Dense
	m, n   int
	width  int
	basis  []int
	tol    float64
	limit  int
	pivots int
	bland  bool
}

// pivotBudget is the default pivot limit for an m×n standard form.
func pivotBudget(m, n int) int {
	return 50*(m+n) + 1000
}

// solveStandard solves the standard form LP. unit[i] names a column that is
// the i-th unit vector of A, or -1; such columns start basic and spare an
// artificial. limit caps the pivots of both phases together; zero picks
// pivotBudget.
func solveStandard(ctx context.Context, c []float64, A *mat.Dense, b []float64, unit []int, tol float64, limit int) ([]float64, error) {
	m, n := A.Dims()
	art := 0
	for _, u := range unit {
		if u < 0 {
			art++
		}
	}
	if limit <= 0 {
		limit = pivotBudget(m, n+art)
	}
	tb := &tableau{
		t:     mat.NewDense(m+1, n+art+1, nil),
		m:     m,
		n:     n,
		width: n + art,
		basis: make([]int, m),
		tol:   tol,
		limit: limit,
	}

	k := n
	for i := 0; i < m; i++ {
		row := tb.t.RawRowView(i)
		copy(row, A.RawRowView(i))
		row[tb.width] = b[i]
		if unit[i] >= 0 {
			tb.basis[i] = unit[i]
			continue
		}
		row[k] = 1
		tb.basis[i] = k
		k++
	}

	if art > 0 {
		phase1 := make([]float64, tb.width)
		for j := n; j < tb.width; j++ {
			phase1[j] = 1
		}
		tb.price(phase1)
		if err := tb.iterate(ctx, tb.width); err != nil {
			return nil, err
		}
		if -tb.objective() > feasTol*(1+floats.Norm(b, math.Inf(1))) {
			return nil, errInfeasible
		}
		tb.evictArtificials()
	}

	phase2 := make([]float64, tb.width)
	copy(phase2, c)
	tb.price(phase2)
	if err := tb.iterate(ctx, n); err != nil {
		return nil, err
	}

	x := make([]float64, n)
	for i, j := range tb.basis {
		if j < n {
			x[j] = math.Max(0, tb.t.At(i, tb.width))
		}
	}
	return x, nil
}

// objective is the negated objective value held in the price row.
func (tb *tableau) objective() float64 {
	return tb.t.At(tb.m, tb.width)
}

// price rewrites the reduced-cost row for cost against the current basis.
func (tb *tableau) price(cost []float64) {
	obj := tb.t.RawRowView(tb.m)
	copy(obj, cost)
	obj[tb.width] = 0
	for i, j := range tb.basis {
		if cost[j] != 0 {
			floats.AddScaled(obj, -cost[j], tb.t.RawRowView(i))
		}
	}
}

// iterate pivots until no column below cols has a negative reduced cost.
// Dantzig's rule picks the entering column until the walk stalls on a
// degenerate vertex, then Bland's rule takes over so it cannot cycle.
func (tb *tableau) iterate(ctx context.Context, cols int) error {
	degenerate := 0
	for {
		e := tb.entering(cols)
		if e < 0 {
			return nil
		}
		r := tb.leaving(e)
		if r < 0 {
			return errUnbounded
		}
		if tb.pivots >= tb.limit {
			return errStalled
		}
		if tb.pivots%ctxEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if tb.t.At(r, tb.width) <= pivotTol {
			degenerate++
			if degenerate >= degenerateRun {
				tb.bland = true
			}
		} else {
			degenerate = 0
		}
		tb.pivot(r, e)
	}
}

func (tb *tableau) entering(cols int) int {
	obj := tb.t.RawRowView(tb.m)
	best, bestCost := -1, -tb.tol
	for j := 0; j < cols; j++ {
		if obj[j] >= bestCost {
			continue
		}
		if tb.bland {
			return j
		}
		best, bestCost = j, obj[j]
	}
	return best
}

// leaving runs the ratio test on column e. Ties go to the lowest basic index.
func (tb *tableau) leaving(e int) int {
	best, bestRatio := -1, math.Inf(1)
	for i := 0; i < tb.m; i++ {
		a := tb.t.At(i, e)
		if a <= pivotTol {
			continue
		}
		ratio := tb.t.At(i, tb.width) / a
		switch {
		case best < 0 || ratio < bestRatio-ratioTieTol:
			best, bestRatio = i, ratio
		case ratio <= bestRatio+ratioTieTol && tb.basis[i] < tb.basis[best]:
			best = i
		}
	}
	return best
}

func (tb *tableau) pivot(r, e int) {
	prow := tb.t.RawRowView(r)
	floats.Scale(1/prow[e], prow)
	prow[e] = 1
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		if f := row[e]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[e] = 0
		}
	}
	tb.basis[r] = e
	tb.pivots++
}

// evictArtificials swaps zero-level artificials out of the basis after
// phase one. A row with nothing left to pivot on is redundant and keeps its
// artificial at zero; phase two never lets artificials enter.
func (tb *tableau) evictArtificials() {
	for i, j := range tb.basis {
		if j < tb.n {
			continue
		}
		row := tb.t.RawRowView(i)
		best, bestAbs := -1, pivotTol
		for k := 0; k < tb.n; k++ {
			if a := math.Abs(row[k]); a > bestAbs {
				best, bestAbs = k, a
			}
		}
		if best >= 0 {
			tb.pivot(i, best)
		}
	}
}
