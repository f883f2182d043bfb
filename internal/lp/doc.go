// Package lp defines the linear and mixed-integer program descriptor that
// model builders produce and solvers consume.
//
// A Problem is an immutable value. It is assembled with a Builder, validated
// once in Build, and from then on only read through accessor methods that
// return copies. Solvers receive a Problem by value and hand back a separate
// Result; nothing in this package holds solver state.
//
// # Invariants
//
//   - Variable names are unique within one Problem.
//   - Lower bounds are finite and non-negative; upper bounds are >= lower or +Inf.
//   - Binary variables are bounded to [0, 1].
//   - Constraints reference only declared variables and have unique names.
//   - All coefficients and constants are finite.
package lp
