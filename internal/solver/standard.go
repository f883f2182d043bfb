package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/frontier/internal/lp"
)

const (
	// feasTol decides whether a bound range is empty or a fixed value
	// satisfies an emptied row.
	feasTol = 1e-9
	// cleanTol snaps simplex noise around zero back to zero.
	cleanTol = 1e-12
)

// dense is the index-based view of a problem in minimization form.
type dense struct {
	names    []string
	lower    []float64
	upper    []float64
	integral []bool
	cost     []float64
	rows     []denseRow
}

type denseRow struct {
	name string
	coef []float64
	op   lp.Op
	rhs  float64
}

// compile reads the descriptor once. The problem itself is never touched again.
func compile(p lp.Problem) *dense {
	vars := p.Vars()
	d := &dense{
		names:    make([]string, len(vars)),
		lower:    make([]float64, len(vars)),
		upper:    make([]float64, len(vars)),
		integral: make([]bool, len(vars)),
		cost:     make([]float64, len(vars)),
	}
	index := make(map[string]int, len(vars))
	for j, v := range vars {
		index[v.Name] = j
		d.names[j] = v.Name
		d.lower[j] = v.Lower
		d.upper[j] = v.Upper
		d.integral[j] = v.Integral()
	}

	sign := 1.0
	if p.Sense() == lp.Maximize {
		sign = -1
	}
	for name, c := range p.Objective().Coefficients() {
		d.cost[index[name]] = sign * c
	}

	for _, c := range p.Constraints() {
		coefs, op, rhs := c.Normalized()
		row := denseRow{name: c.Name, coef: make([]float64, len(vars)), op: op, rhs: rhs}
		for name, v := range coefs {
			row.coef[index[name]] = v
		}
		d.rows = append(d.rows, row)
	}
	return d
}

// costOf evaluates the minimization-form objective without its constant.
func (d *dense) costOf(x []float64) float64 {
	var sum float64
	for j, c := range d.cost {
		sum += c * x[j]
	}
	return sum
}

// relaxation is the outcome of one continuous solve.
type relaxation struct {
	status lp.Status
	x      []float64
	detail string
}

type stdRow struct {
	name string
	a    []float64
	op   lp.Op
	b    float64
}

// relax solves the continuous relaxation of d under the given bounds.
// Columns pinned by their bounds are folded into the right-hand sides, or,
// with keepFixed, stay as columns held by an equality row.
func (s *Simplex) relax(ctx context.Context, d *dense, lower, upper []float64, keepFixed bool) (relaxation, error) {
	n := len(d.names)
	x := make([]float64, n)
	copy(x, lower)

	var cols []int
	fixed := make([]bool, n)
	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+feasTol {
			return relaxation{status: lp.StatusInfeasible, detail: fmt.Sprintf("empty bounds on %s", d.names[j])}, nil
		}
		fixed[j] = upper[j]-lower[j] <= feasTol
		if !fixed[j] || keepFixed {
			cols = append(cols, j)
		}
	}

	var rows []stdRow
	for _, r := range d.rows {
		b := r.rhs
		scale := math.Max(1, math.Abs(r.rhs))
		for j, c := range r.coef {
			b -= c * lower[j]
			scale = math.Max(scale, math.Abs(c*lower[j]))
		}
		a := make([]float64, len(cols))
		var width float64
		for k, j := range cols {
			a[k] = r.coef[j]
			width = math.Max(width, math.Abs(a[k]))
		}
		if width == 0 {
			if !holds(r.op, b, scale) {
				return relaxation{status: lp.StatusInfeasible, detail: fmt.Sprintf("constraint %s cannot hold", r.name)}, nil
			}
			continue
		}
		floats.Scale(1/width, a)
		rows = append(rows, stdRow{name: r.name, a: a, op: r.op, b: b / width})
	}
	for k, j := range cols {
		a := make([]float64, len(cols))
		a[k] = 1
		switch {
		case fixed[j]:
			rows = append(rows, stdRow{name: "fix:" + d.names[j], a: a, op: lp.EQ})
		case !math.IsInf(upper[j], 1):
			rows = append(rows, stdRow{name: "ub:" + d.names[j], a: a, op: lp.LE, b: upper[j] - lower[j]})
		}
	}

	var kept []int
	for k, j := range cols {
		used := false
		for _, r := range rows {
			if r.a[k] != 0 {
				used = true
				break
			}
		}
		if used {
			kept = append(kept, k)
			continue
		}
		if d.cost[j] < 0 {
			return relaxation{status: lp.StatusUnbounded, detail: fmt.Sprintf("%s improves the objective without limit", d.names[j])}, nil
		}
	}
	if len(rows) == 0 {
		return relaxation{status: lp.StatusOptimal, x: x}, nil
	}

	nSlack := 0
	for _, r := range rows {
		if r.op != lp.EQ {
			nSlack++
		}
	}
	m, nc := len(rows), len(kept)+nSlack
	A := mat.NewDense(m, nc, nil)
	b := make([]float64, m)
	c := make([]float64, nc)
	unit := make([]int, m)
	for k, kk := range kept {
		c[k] = d.cost[cols[kk]]
	}
	slack := len(kept)
	for i, r := range rows {
		sign := 1.0
		if r.b < 0 {
			sign = -1
		}
		for k, kk := range kept {
			A.Set(i, k, sign*r.a[kk])
		}
		unit[i] = -1
		switch r.op {
		case lp.LE:
			A.Set(i, slack, sign)
			if sign > 0 {
				unit[i] = slack
			}
			slack++
		case lp.GE:
			A.Set(i, slack, -sign)
			if sign < 0 {
				unit[i] = slack
			}
			slack++
		}
		b[i] = sign * r.b
	}

	sol, err := solveStandard(ctx, c, A, b, unit, s.tol, s.pivotLimit)
	switch {
	case errors.Is(err, errInfeasible):
		return relaxation{status: lp.StatusInfeasible, detail: err.Error()}, nil
	case errors.Is(err, errUnbounded):
		return relaxation{status: lp.StatusUnbounded, detail: err.Error()}, nil
	case errors.Is(err, errStalled):
		return relaxation{status: lp.StatusOther, detail: err.Error()}, nil
	case err != nil:
		return relaxation{}, err
	}
	for k, kk := range kept {
		v := sol[k]
		if v < cleanTol {
			v = 0
		}
		x[cols[kk]] = lower[cols[kk]] + v
	}
	return relaxation{status: lp.StatusOptimal, x: x}, nil
}

// holds reports whether an emptied row op b is satisfied, with the tolerance
// widened by the magnitude of the terms folded into b.
func holds(op lp.Op, b, scale float64) bool {
	tol := feasTol * scale
	switch op {
	case lp.LE:
		return 0 <= b+tol
	case lp.GE:
		return 0 >= b-tol
	default:
		return math.Abs(b) <= tol
	}
}
