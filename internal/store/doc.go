// Package store archives completed runs in SQLite.
//
// A run is stored with its table (every unit's measures and validation
// problem) and its results: efficiency and super-efficiency scores, the
// cross-efficiency matrix and the closest targets. The solved programs are
// not stored; an archived run is re-evaluated from its table.
//
// # Layout
//
//   - runs: one row per run with settings and digests
//   - units: the table, one row per unit, keyed by table position (seq)
//   - scores, cross_rows, cross_entries, targets: results keyed by seq
//
// All loads order by seq, so a loaded report lists units in table order and
// reproduces the digest it was saved with.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Column lists and weight vectors are stored as canonical JSON (internal/ir).
package store
