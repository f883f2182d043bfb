package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
	"github.com/roach88/frontier/internal/testutil"
)

var baseTime = time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// runReport evaluates tbl with a fixed run ID and timestamp.
func runReport(t *testing.T, tbl *table.Table, runID string, at time.Time) *engine.Report {
	t.Helper()
	e := engine.New(solver.NewSimplex(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithClock(func() time.Time { return at }),
	)
	rep, err := e.Run(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return rep
}

// saveThreeUnits archives a run of testutil.ThreeUnits under runID.
func saveThreeUnits(t *testing.T, s *Store, runID string) (*engine.Report, *table.Table) {
	t.Helper()
	tbl := testutil.ThreeUnits(t)
	rep := runReport(t, tbl, runID, baseTime)
	if err := s.SaveRun(context.Background(), rep, tbl); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	return rep, tbl
}
