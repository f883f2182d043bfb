package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/model"
	"github.com/roach88/frontier/internal/table"
)

var (
	// ErrNotFound is returned when no archived run matches an ID.
	ErrNotFound = errors.New("store: run not found")

	// ErrAmbiguous is returned when an ID prefix matches several runs.
	ErrAmbiguous = errors.New("store: ambiguous run ID prefix")
)

// RunSummary is the archive listing of one run.
type RunSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	TableDigest string    `json:"table_digest"`
	Digest      string    `json:"digest"`
	Precision   int       `json:"precision"`
	Units       int       `json:"units"`
	Failures    int       `json:"failures"`
}

const summaryColumns = `id, created_at, table_digest, digest, precision, unit_count, failure_count`

// ListRuns returns every archived run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM runs
		ORDER BY created_at ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return scanSummaries(rows)
}

// RunsForTable returns the archived runs of one table, oldest first.
func (s *Store) RunsForTable(ctx context.Context, tableDigest string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM runs
		WHERE table_digest = ?
		ORDER BY created_at ASC, id ASC COLLATE BINARY
	`, tableDigest)
	if err != nil {
		return nil, fmt.Errorf("runs for table: %w", err)
	}
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]RunSummary, error) {
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var (
			rs      RunSummary
			created string
		)
		if err := rows.Scan(&rs.ID, &created, &rs.TableDigest, &rs.Digest, &rs.Precision, &rs.Units, &rs.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		t, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("run %s: created_at: %w", rs.ID, err)
		}
		rs.CreatedAt = t
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Resolve expands a run ID prefix to the full ID. An exact match wins over
// longer IDs sharing the prefix.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty ID", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY id ASC COLLATE BINARY
	`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve %s: %w", prefix, err)
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve %s: %w", prefix, err)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d runs", ErrAmbiguous, prefix, len(ids))
	}
}

// unitRow is one stored table row.
type unitRow struct {
	unit    string
	x, y    []float64
	problem *table.ValidationError
	mean    *float64
}

// LoadRun rebuilds an archived report. The result carries the digests it
// was saved with; recomputing ReportDigest over it yields the same value.
func (s *Store) LoadRun(ctx context.Context, id string) (*engine.Report, error) {
	rep, err := s.loadHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	units, err := s.loadUnits(ctx, id)
	if err != nil {
		return nil, err
	}
	n := len(units)
	rep.Units = make([]string, n)
	rep.Cross.Means = make([]*float64, n)
	for i, u := range units {
		rep.Units[i] = u.unit
		rep.Cross.Means[i] = u.mean
	}

	if err := s.loadScores(ctx, rep); err != nil {
		return nil, err
	}
	if err := s.loadCross(ctx, rep); err != nil {
		return nil, err
	}
	if err := s.loadTargets(ctx, rep); err != nil {
		return nil, err
	}

	rep.Failures = append(rep.Failures, rep.Efficiency.Standard.Failures()...)
	rep.Failures = append(rep.Failures, rep.Efficiency.Super.Failures()...)
	rep.Failures = append(rep.Failures, rep.Cross.Failures()...)
	rep.Failures = append(rep.Failures, rep.Targets.Failures()...)
	return rep, nil
}

// LoadTable rebuilds the table an archived run was computed from, including
// the validation problem of every flagged unit.
func (s *Store) LoadTable(ctx context.Context, id string) (*table.Table, error) {
	rep, err := s.loadHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	units, err := s.loadUnits(ctx, id)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(rep.Inputs, rep.Outputs)
	for _, u := range units {
		b.Restore(u.unit, u.x, u.y, u.problem)
	}
	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) loadHeader(ctx context.Context, id string) (*engine.Report, error) {
	var (
		rep             engine.Report
		created         string
		inputs, outputs sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, table_digest, digest, precision, big_m, big_m_factor, inputs, outputs
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&rep.RunID,
		&created,
		&rep.TableDigest,
		&rep.Digest,
		&rep.Settings.Precision,
		&rep.Settings.BigM,
		&rep.Settings.BigMFactor,
		&inputs,
		&outputs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	if rep.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("load run %s: created_at: %w", id, err)
	}
	if rep.Inputs, err = unmarshalStrings(inputs); err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	if rep.Outputs, err = unmarshalStrings(outputs); err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &rep, nil
}

func (s *Store) loadUnits(ctx context.Context, id string) ([]unitRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit, x, y, problem_column, problem_reason, cross_mean
		FROM units
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load units of %s: %w", id, err)
	}
	defer rows.Close()

	var out []unitRow
	for rows.Next() {
		var (
			u              unitRow
			x, y           sql.NullString
			column, reason sql.NullString
			mean           sql.NullFloat64
		)
		if err := rows.Scan(&u.unit, &x, &y, &column, &reason, &mean); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		if u.x, err = unmarshalFloats(x); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.unit, err)
		}
		if u.y, err = unmarshalFloats(y); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.unit, err)
		}
		if reason.Valid {
			u.problem = &table.ValidationError{Unit: u.unit, Column: column.String, Reason: reason.String}
		}
		u.mean = floatPtr(mean)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return out, nil
}

func (s *Store) loadScores(ctx context.Context, rep *engine.Report) error {
	n := len(rep.Units)
	rep.Efficiency.Standard = make(engine.Scores, n)
	rep.Efficiency.Super = make(engine.Scores, n)
	for i, u := range rep.Units {
		rep.Efficiency.Standard[i].Unit = u
		rep.Efficiency.Super[i].Unit = u
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, model, value, raw, failure_code, failure_message
		FROM scores
		WHERE run_id = ?
		ORDER BY model ASC, seq ASC
	`, rep.RunID)
	if err != nil {
		return fmt.Errorf("load scores of %s: %w", rep.RunID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq        int
			kind       string
			value, raw sql.NullFloat64
			code, msg  sql.NullString
		)
		if err := rows.Scan(&seq, &kind, &value, &raw, &code, &msg); err != nil {
			return fmt.Errorf("scan score: %w", err)
		}
		if seq < 0 || seq >= n {
			return fmt.Errorf("score row for unknown unit %d", seq)
		}
		target := rep.Efficiency.Standard
		if kind == model.SuperEfficiency.String() {
			target = rep.Efficiency.Super
		}
		sc := &target[seq]
		sc.Value = value.Float64
		sc.Raw = raw.Float64
		sc.Failure = failureFrom(code, msg, sc.Unit, kind)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate scores: %w", err)
	}
	return nil
}

func (s *Store) loadCross(ctx context.Context, rep *engine.Report) error {
	n := len(rep.Units)
	rep.Cross.Units = append([]string(nil), rep.Units...)
	rep.Cross.Rows = make([]engine.CrossRow, n)
	for i, u := range rep.Units {
		rep.Cross.Rows[i] = engine.CrossRow{
			Rater:  u,
			Values: make([]*float64, n),
			Raw:    make([]*float64, n),
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, failure_code, failure_message
		FROM cross_rows
		WHERE run_id = ?
		ORDER BY seq ASC
	`, rep.RunID)
	if err != nil {
		return fmt.Errorf("load cross rows of %s: %w", rep.RunID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			seq       int
			code, msg sql.NullString
		)
		if err := rows.Scan(&seq, &code, &msg); err != nil {
			return fmt.Errorf("scan cross row: %w", err)
		}
		if seq < 0 || seq >= n {
			return fmt.Errorf("cross row for unknown unit %d", seq)
		}
		rep.Cross.Rows[seq].Failure = failureFrom(code, msg, rep.Units[seq], model.CrossEfficiency.String())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cross rows: %w", err)
	}

	entries, err := s.db.QueryContext(ctx, `
		SELECT rater_seq, ratee_seq, value, raw
		FROM cross_entries
		WHERE run_id = ?
		ORDER BY rater_seq ASC, ratee_seq ASC
	`, rep.RunID)
	if err != nil {
		return fmt.Errorf("load cross entries of %s: %w", rep.RunID, err)
	}
	defer entries.Close()
	for entries.Next() {
		var (
			i, j       int
			value, raw float64
		)
		if err := entries.Scan(&i, &j, &value, &raw); err != nil {
			return fmt.Errorf("scan cross entry: %w", err)
		}
		if i < 0 || i >= n || j < 0 || j >= n {
			return fmt.Errorf("cross entry (%d, %d) outside a %d-unit matrix", i, j, n)
		}
		rep.Cross.Rows[i].Values[j] = &value
		rep.Cross.Rows[i].Raw[j] = &raw
	}
	if err := entries.Err(); err != nil {
		return fmt.Errorf("iterate cross entries: %w", err)
	}
	return nil
}

func (s *Store) loadTargets(ctx context.Context, rep *engine.Report) error {
	n := len(rep.Units)
	rep.Targets = make(engine.Targets, n)
	for i, u := range rep.Units {
		rep.Targets[i].Unit = u
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, score, raw, facet, input_weights, output_weights, big_m, nodes,
		       failure_code, failure_message
		FROM targets
		WHERE run_id = ?
		ORDER BY seq ASC
	`, rep.RunID)
	if err != nil {
		return fmt.Errorf("load targets of %s: %w", rep.RunID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq              int
			facet, in, out   sql.NullString
			code, msg        sql.NullString
			score, raw, bigM float64
			nodes            int
		)
		if err := rows.Scan(&seq, &score, &raw, &facet, &in, &out, &bigM, &nodes, &code, &msg); err != nil {
			return fmt.Errorf("scan target: %w", err)
		}
		if seq < 0 || seq >= n {
			return fmt.Errorf("target row for unknown unit %d", seq)
		}
		tg := &rep.Targets[seq]
		tg.Score, tg.Raw, tg.BigM, tg.Nodes = score, raw, bigM, nodes
		if tg.Facet, err = unmarshalStrings(facet); err != nil {
			return fmt.Errorf("target %s: %w", tg.Unit, err)
		}
		if tg.InputWeights, err = unmarshalFloats(in); err != nil {
			return fmt.Errorf("target %s: %w", tg.Unit, err)
		}
		if tg.OutputWeights, err = unmarshalFloats(out); err != nil {
			return fmt.Errorf("target %s: %w", tg.Unit, err)
		}
		tg.Failure = failureFrom(code, msg, tg.Unit, model.ClosestTarget.String())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate targets: %w", err)
	}
	return nil
}
