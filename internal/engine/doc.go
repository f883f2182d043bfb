// Package engine runs the DEA formulations over a table and assembles the
// results.
//
// Stages run in a fixed order: efficiency (CCR and super-efficiency), then
// cross-efficiency, which needs the CCR scores, then closest targets. Every
// program is built by package model and solved synchronously through a
// solver.Solver, one unit at a time in table order.
//
// Failure policy:
//
//   - A unit whose program is infeasible, unbounded or fails numerically gets
//     a UnitError in place of its result. The run continues.
//   - Units flagged by table validation get an INVALID_INPUT failure under
//     every formulation and never appear in another unit's reference set.
//   - solver.ErrUnavailable and cancellation of the caller's context abort
//     the run and are returned as errors.
//
// Every unit appears in every result, either with a value or with a failure.
package engine
