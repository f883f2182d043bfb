package solver

import (
	"context"
	"time"

	"github.com/roach88/frontier/internal/lp"
)

// Default Simplex settings.
const (
	DefaultTolerance            = 1e-10
	DefaultIntegralityTolerance = 1e-6
	DefaultMaxNodes             = 10000
)

// Simplex is the pure-Go solver backend: a dense two-phase simplex over gonum
// matrices with branch-and-bound for integer variables.
//
// Thread-safety: a Simplex holds only configuration and may be shared.
type Simplex struct {
	tol        float64
	intTol     float64
	maxNodes   int
	pivotLimit int
	timeout    time.Duration
}

// Option configures a Simplex.
type Option func(*Simplex)

// WithTolerance sets the reduced-cost tolerance of the simplex.
func WithTolerance(tol float64) Option {
	return func(s *Simplex) {
		s.tol = tol
	}
}

// WithIntegralityTolerance sets how far from an integer a value may be and
// still count as integral during branch-and-bound.
func WithIntegralityTolerance(tol float64) Option {
	return func(s *Simplex) {
		s.intTol = tol
	}
}

// WithMaxNodes bounds the branch-and-bound search.
func WithMaxNodes(n int) Option {
	return func(s *Simplex) {
		s.maxNodes = n
	}
}

// WithPivotLimit caps the simplex pivots of one relaxation. A relaxation
// that runs out reports StatusOther. Zero sizes the cap from the problem.
func WithPivotLimit(n int) Option {
	return func(s *Simplex) {
		s.pivotLimit = n
	}
}

// WithTimeout bounds every Solve call. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Simplex) {
		s.timeout = d
	}
}

// NewSimplex creates a Simplex solver.
func NewSimplex(opts ...Option) *Simplex {
	s := &Simplex{
		tol:      DefaultTolerance,
		intTol:   DefaultIntegralityTolerance,
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve solves p. Problems with integer or binary variables go through
// branch-and-bound; everything else is a single relaxation.
func (s *Simplex) Solve(ctx context.Context, p lp.Problem) (lp.Result, error) {
	if s == nil {
		return lp.Result{}, ErrUnavailable
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return lp.Result{}, err
	}

	d := compile(p)
	if !p.HasIntegers() {
		rel, err := s.relax(ctx, d, d.lower, d.upper, false)
		if err != nil {
			return lp.Result{}, err
		}
		return toResult(p, d, rel, 1), nil
	}
	return s.branchAndBound(ctx, p, d)
}

func toResult(p lp.Problem, d *dense, rel relaxation, nodes int) lp.Result {
	if rel.status != lp.StatusOptimal {
		r := lp.Failed(rel.status, rel.detail)
		r.Nodes = nodes
		return r
	}
	values := make(map[string]float64, len(d.names))
	for j, name := range d.names {
		values[name] = rel.x[j]
	}
	r := lp.NewResult(lp.StatusOptimal, p.Objective().Eval(values), values)
	r.Nodes = nodes
	return r
}
