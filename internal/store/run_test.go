package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
	"github.com/roach88/frontier/internal/testutil"
)

func TestSaveRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rep, _ := saveThreeUnits(t, s, "run-1")

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rep, loaded)

	digest, err := engine.ReportDigest(loaded)
	require.NoError(t, err)
	assert.Equal(t, rep.Digest, digest)
}

func TestSaveRun_RoundTripWithFailures(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		table func(testing.TB) *table.Table
	}{
		{"invalid unit", testutil.WithInvalidUnit},
		{"single unit", testutil.SingleUnit},
		{"identical pair", testutil.IdenticalPair},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			tbl := tt.table(t)
			rep := runReport(t, tbl, "run-1", baseTime)
			require.NoError(t, s.SaveRun(ctx, rep, tbl))

			loaded, err := s.LoadRun(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, rep, loaded)
		})
	}
}

func TestLoadTable_ReproducesDigests(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tbl := testutil.WithInvalidUnit(t)
	rep := runReport(t, tbl, "run-1", baseTime)
	require.NoError(t, s.SaveRun(ctx, rep, tbl))

	loaded, err := s.LoadTable(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, tbl.Units(), loaded.Units())
	assert.Equal(t, tbl.Inputs(), loaded.Inputs())
	assert.Equal(t, tbl.Outputs(), loaded.Outputs())
	for i := 0; i < tbl.Len(); i++ {
		assert.Equal(t, tbl.InputRow(i), loaded.InputRow(i))
		assert.Equal(t, tbl.OutputRow(i), loaded.OutputRow(i))
		assert.Equal(t, tbl.Problem(i), loaded.Problem(i))
	}

	digest, err := engine.TableDigest(loaded)
	require.NoError(t, err)
	assert.Equal(t, rep.TableDigest, digest)

	// Re-running the archived table reproduces the report digest.
	again := runReport(t, loaded, "run-2", baseTime.Add(time.Hour))
	assert.Equal(t, rep.Digest, again.Digest)
}

func TestSaveRun_Duplicate(t *testing.T) {
	s := createTestStore(t)
	rep, tbl := saveThreeUnits(t, s, "run-1")

	err := s.SaveRun(context.Background(), rep, tbl)
	require.ErrorIs(t, err, ErrRunExists)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRun_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rep := runReport(t, testutil.ThreeUnits(t), "run-1", baseTime)

	err := s.SaveRun(ctx, rep, testutil.SingleUnit(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report has 3 units, table has 1")

	err = s.SaveRun(ctx, nil, testutil.SingleUnit(t))
	require.Error(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadTable(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns_Order(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	three := testutil.ThreeUnits(t)
	single := testutil.SingleUnit(t)
	later := runReport(t, three, "run-b", baseTime.Add(2*time.Minute))
	earlier := runReport(t, single, "run-a", baseTime)
	sameTime := runReport(t, three, "run-c", baseTime.Add(2*time.Minute))
	require.NoError(t, s.SaveRun(ctx, later, three))
	require.NoError(t, s.SaveRun(ctx, earlier, single))
	require.NoError(t, s.SaveRun(ctx, sameTime, three))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	ids := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, ids)

	first := runs[0]
	assert.True(t, baseTime.Equal(first.CreatedAt))
	assert.Equal(t, 1, first.Units)
	assert.Equal(t, len(earlier.Failures), first.Failures)
	assert.Equal(t, earlier.Digest, first.Digest)
	assert.Equal(t, earlier.TableDigest, first.TableDigest)
	assert.Equal(t, engine.DefaultPrecision, first.Precision)

	byTable, err := s.RunsForTable(ctx, later.TableDigest)
	require.NoError(t, err)
	require.Len(t, byTable, 2)
	assert.Equal(t, "run-b", byTable[0].ID)
	assert.Equal(t, "run-c", byTable[1].ID)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tbl := testutil.ThreeUnits(t)
	for i, id := range []string{"0190a1-aaaa", "0190a1-aabb", "0190b2-cccc", "run-1", "run-10"} {
		rep := runReport(t, tbl, id, baseTime.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.SaveRun(ctx, rep, tbl))
	}

	tests := []struct {
		prefix string
		want   string
		err    error
	}{
		{"0190b", "0190b2-cccc", nil},
		{"0190a1-aab", "0190a1-aabb", nil},
		{"0190a1-aaaa", "0190a1-aaaa", nil},
		{"run-1", "run-1", nil},
		{"0190a1", "", ErrAmbiguous},
		{"ffff", "", ErrNotFound},
		{"", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := s.Resolve(ctx, tt.prefix)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveRun_StoresOnlyDefinedCrossEntries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tbl := testutil.WithInvalidUnit(t)
	rep := runReport(t, tbl, "run-1", baseTime)
	require.NoError(t, s.SaveRun(ctx, rep, tbl))

	var defined int
	for _, row := range rep.Cross.Rows {
		for _, v := range row.Values {
			if v != nil {
				defined++
			}
		}
	}
	var stored int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM cross_entries WHERE run_id = 'run-1'`).Scan(&stored))
	assert.Equal(t, defined, stored)
	assert.Less(t, stored, tbl.Len()*tbl.Len())
}

func TestListRuns_RepeatedRuns(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tbl := testutil.Airports(t)
	clock := testutil.NewStepClock(baseTime, time.Minute)
	e := engine.New(solver.NewSimplex(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDGenerator(engine.NewFixedGenerator("c", "b", "a")),
		engine.WithClock(clock.Now),
	)
	for i := 0; i < 3; i++ {
		rep, err := e.Run(ctx, tbl)
		require.NoError(t, err)
		require.NoError(t, s.SaveRun(ctx, rep, tbl))
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Timestamps, not IDs, order the listing.
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)
	assert.True(t, runs[2].CreatedAt.Equal(baseTime.Add(2*time.Minute)))
	assert.Equal(t, runs[0].Digest, runs[2].Digest)
}
