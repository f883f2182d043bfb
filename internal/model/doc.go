// Package model turns a DMU table into the linear and mixed-integer programs
// solved for one target unit.
//
// Four formulations are built here:
//
//   - CCR efficiency: maximize the target's weighted outputs with its weighted
//     inputs normalized to one and no reference unit scoring above one.
//   - Super-efficiency: the CCR model with the target removed from its own
//     reference set.
//   - Cross-efficiency: the secondary model that keeps the target's CCR score
//     while maximizing the aggregate score of its peers.
//   - Closest target: a MIP choosing a reference facet with binary indicators
//     and big-M relaxed domination rows.
//
// Variable names are derived from the table: v[column] for input weights,
// u[column] for output weights and z[unit] for facet indicators. Constraint
// names follow the same scheme (ref[unit], dom[unit], facet[unit]) so a
// descriptor can be read back against the table that produced it.
//
// Units flagged by table validation never enter a reference set and cannot
// be modelled as targets.
package model
