package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/ir"
	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/table"
)

// ErrRunExists is returned when a run with the same ID is already archived.
var ErrRunExists = errors.New("store: run already exists")

// SaveRun archives a report together with the table it was computed from.
// The write is atomic: either every row of the run is stored or none.
//
// t must be the table rep was computed from; its units must match
// rep.Units in order.
func (s *Store) SaveRun(ctx context.Context, rep *engine.Report, t *table.Table) error {
	if err := checkShape(rep, t); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertRun(ctx, tx, rep, t); err != nil {
		return fmt.Errorf("save run %s: %w", rep.RunID, err)
	}
	if err := insertUnits(ctx, tx, rep, t); err != nil {
		return fmt.Errorf("save run %s: units: %w", rep.RunID, err)
	}
	if err := insertScores(ctx, tx, rep.RunID, model.Efficiency, rep.Efficiency.Standard); err != nil {
		return fmt.Errorf("save run %s: scores: %w", rep.RunID, err)
	}
	if err := insertScores(ctx, tx, rep.RunID, model.SuperEfficiency, rep.Efficiency.Super); err != nil {
		return fmt.Errorf("save run %s: scores: %w", rep.RunID, err)
	}
	if err := insertCross(ctx, tx, rep.RunID, rep.Cross); err != nil {
		return fmt.Errorf("save run %s: cross: %w", rep.RunID, err)
	}
	if err := insertTargets(ctx, tx, rep.RunID, rep.Targets); err != nil {
		return fmt.Errorf("save run %s: targets: %w", rep.RunID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s: commit: %w", rep.RunID, err)
	}
	return nil
}

func checkShape(rep *engine.Report, t *table.Table) error {
	if rep == nil || t == nil {
		return errors.New("nil report or table")
	}
	if rep.RunID == "" {
		return errors.New("report has no run ID")
	}
	if len(rep.Units) != t.Len() {
		return fmt.Errorf("report has %d units, table has %d", len(rep.Units), t.Len())
	}
	for i, u := range rep.Units {
		if t.Unit(i) != u {
			return fmt.Errorf("unit %d is %q in the report and %q in the table", i, u, t.Unit(i))
		}
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, rep *engine.Report, t *table.Table) error {
	inputs, err := marshalStrings(t.Inputs())
	if err != nil {
		return err
	}
	outputs, err := marshalStrings(t.Outputs())
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, table_digest, digest, precision, big_m, big_m_factor,
		 inputs, outputs, unit_count, failure_count, format_version, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rep.RunID,
		rep.CreatedAt.UTC().Format(timeLayout),
		rep.TableDigest,
		rep.Digest,
		rep.Settings.Precision,
		rep.Settings.BigM,
		rep.Settings.BigMFactor,
		inputs,
		outputs,
		t.Len(),
		len(rep.Failures),
		ir.FormatVersion,
		ir.ToolVersion,
	)
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrRunExists, rep.RunID)
	}
	return err
}

func isPrimaryKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func insertUnits(ctx context.Context, tx *sql.Tx, rep *engine.Report, t *table.Table) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (run_id, seq, unit, x, y, problem_column, problem_reason, cross_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		x, err := marshalFloats(t.InputRow(i))
		if err != nil {
			return err
		}
		y, err := marshalFloats(t.OutputRow(i))
		if err != nil {
			return err
		}
		var column, reason sql.NullString
		if p := t.Problem(i); p != nil {
			column = sql.NullString{String: p.Column, Valid: true}
			reason = sql.NullString{String: p.Reason, Valid: true}
		}
		var mean sql.NullFloat64
		if i < len(rep.Cross.Means) {
			mean = nullFloat(rep.Cross.Means[i])
		}
		if _, err := stmt.ExecContext(ctx, rep.RunID, i, t.Unit(i), x, y, column, reason, mean); err != nil {
			return err
		}
	}
	return nil
}

func insertScores(ctx context.Context, tx *sql.Tx, runID string, k model.Kind, scores engine.Scores) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scores (run_id, seq, model, value, raw, failure_code, failure_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sc := range scores {
		var value, raw sql.NullFloat64
		if sc.OK() {
			value = sql.NullFloat64{Float64: sc.Value, Valid: true}
			raw = sql.NullFloat64{Float64: sc.Raw, Valid: true}
		}
		code, msg := failureColumns(sc.Failure)
		if _, err := stmt.ExecContext(ctx, runID, i, k.String(), value, raw, code, msg); err != nil {
			return err
		}
	}
	return nil
}

func insertCross(ctx context.Context, tx *sql.Tx, runID string, cm engine.CrossMatrix) error {
	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cross_rows (run_id, seq, failure_code, failure_message)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cross_entries (run_id, rater_seq, ratee_seq, value, raw)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	for i, row := range cm.Rows {
		code, msg := failureColumns(row.Failure)
		if _, err := rowStmt.ExecContext(ctx, runID, i, code, msg); err != nil {
			return err
		}
		for j, v := range row.Values {
			if v == nil || j >= len(row.Raw) || row.Raw[j] == nil {
				continue
			}
			if _, err := entryStmt.ExecContext(ctx, runID, i, j, *v, *row.Raw[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertTargets(ctx context.Context, tx *sql.Tx, runID string, targets engine.Targets) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO targets
		(run_id, seq, score, raw, facet, input_weights, output_weights, big_m, nodes,
		 failure_code, failure_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, tg := range targets {
		facet, err := marshalStrings(tg.Facet)
		if err != nil {
			return err
		}
		in, err := marshalFloats(tg.InputWeights)
		if err != nil {
			return err
		}
		out, err := marshalFloats(tg.OutputWeights)
		if err != nil {
			return err
		}
		code, msg := failureColumns(tg.Failure)
		if _, err := stmt.ExecContext(ctx, runID, i, tg.Score, tg.Raw, facet, in, out, tg.BigM, tg.Nodes, code, msg); err != nil {
			return err
		}
	}
	return nil
}
