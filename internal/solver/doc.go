// Package solver turns lp.Problem descriptors into lp.Result values.
//
// The Solver interface is the only surface the DEA engines see. The default
// backend, Simplex, is pure Go: it rewrites the descriptor into the standard
// form
//
//	minimize   c^T x
//	subject to A x = b, x >= 0
//
// by shifting lower bounds to zero, turning finite upper bounds into rows,
// adding one slack or surplus column per inequality, scaling every row to a
// unit max-abs coefficient and eliminating fixed variables, empty rows and
// unused columns. A two-phase dense tableau over gonum matrices solves it
// within a pivot budget, falling back to Bland's rule on degenerate stalls.
// Integer and binary variables are handled by a depth-first branch-and-bound
// over that relaxation.
//
// Infeasible and unbounded problems are reported through lp.Result.Status.
// Solve only returns an error when the solver itself cannot run
// (ErrUnavailable) or the context expires.
package solver
