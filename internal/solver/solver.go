package solver

import (
	"context"
	"errors"

	"github.com/roach88/frontier/internal/lp"
)

// ErrUnavailable is returned when no usable solver backend is configured.
// It is fatal for a run.
var ErrUnavailable = errors.New("solver: backend unavailable")

// Solver solves one LP/MIP descriptor. Implementations must not retain or
// modify the problem.
type Solver interface {
	Solve(ctx context.Context, p lp.Problem) (lp.Result, error)
}

// Func adapts a plain function to the Solver interface.
type Func func(ctx context.Context, p lp.Problem) (lp.Result, error)

// Solve calls f. A nil Func reports ErrUnavailable.
func (f Func) Solve(ctx context.Context, p lp.Problem) (lp.Result, error) {
	if f == nil {
		return lp.Result{}, ErrUnavailable
	}
	return f(ctx, p)
}

// Check reports ErrUnavailable for a nil solver, including typed nils.
func Check(s Solver) error {
	switch v := s.(type) {
	case nil:
		return ErrUnavailable
	case *Simplex:
		if v == nil {
			return ErrUnavailable
		}
	case Func:
		if v == nil {
			return ErrUnavailable
		}
	}
	return nil
}
