package engine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/testutil"
)

const eps = 1e-6

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(opts ...engine.EngineOption) *engine.Engine {
	base := []engine.EngineOption{
		engine.WithLogger(quietLogger()),
		engine.WithRunIDGenerator(engine.NewFixedGenerator("run-1", "run-2", "run-3")),
		engine.WithClock(func() time.Time { return fixedTime }),
	}
	return engine.New(solver.NewSimplex(), append(base, opts...)...)
}

func values(s engine.Scores) []float64 {
	out := make([]float64, len(s))
	for i, sc := range s {
		out[i] = sc.Value
	}
	return out
}

func TestRun_ThreeUnits(t *testing.T) {
	tbl := testutil.ThreeUnits(t)
	rep, err := newEngine().Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, fixedTime, rep.CreatedAt)
	assert.Len(t, rep.Digest, 64)
	assert.Len(t, rep.TableDigest, 64)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, []string{"1", "2", "3"}, rep.Units)

	assert.Equal(t, []float64{1, 1, 0.5}, values(rep.Efficiency.Standard))
	assert.Equal(t, []float64{2, 2, 0.5}, values(rep.Efficiency.Super))

	for i := range rep.Units {
		for j, want := range []float64{1, 1, 0.5} {
			got, ok := rep.Cross.At(i, j)
			require.True(t, ok, "entry (%d, %d)", i, j)
			assert.InDelta(t, want, got, eps)
		}
	}
	require.Len(t, rep.Cross.Means, 3)
	assert.Equal(t, 0.5, *rep.Cross.Means[2])

	wantTargets := []float64{0.5, 0.5, 0.333}
	for i, tg := range rep.Targets {
		require.True(t, tg.OK(), "unit %s: %v", tg.Unit, tg.Failure)
		assert.Equal(t, wantTargets[i], tg.Score)
		assert.NotEmpty(t, tg.Facet)
		assert.Greater(t, tg.BigM, 1.0)
		assert.GreaterOrEqual(t, tg.Nodes, 1)
	}
	assert.Equal(t, []string{"2"}, rep.Targets[0].Facet)
	assert.Equal(t, []string{"1"}, rep.Targets[1].Facet)
}

func TestRun_ScoresInUnitIntervalAndRawKept(t *testing.T) {
	rep, err := newEngine().Run(context.Background(), testutil.Airports(t))
	require.NoError(t, err)

	for _, sc := range rep.Efficiency.Standard {
		require.True(t, sc.OK(), "%s: %v", sc.Unit, sc.Failure)
		assert.Greater(t, sc.Raw, 0.0)
		assert.LessOrEqual(t, sc.Raw, 1+eps)
		assert.Equal(t, engine.Round(sc.Raw, 3), sc.Value)
	}
	for i, sc := range rep.Efficiency.Super {
		if sc.OK() {
			assert.GreaterOrEqual(t, sc.Raw, rep.Efficiency.Standard[i].Raw-eps)
		}
	}
}

func TestRun_CrossDiagonalEqualsRawScore(t *testing.T) {
	rep, err := newEngine().Run(context.Background(), testutil.Airports(t))
	require.NoError(t, err)

	for i, sc := range rep.Efficiency.Standard {
		row := rep.Cross.Rows[i]
		require.Nil(t, row.Failure, "rater %s", row.Rater)
		diag, ok := rep.Cross.At(i, i)
		require.True(t, ok)
		assert.InDelta(t, sc.Raw, diag, eps, "rater %s", row.Rater)
		for j := range rep.Units {
			if v, ok := rep.Cross.At(i, j); ok {
				assert.LessOrEqual(t, v, 1+eps)
			}
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	tbl := testutil.Airports(t)
	e := newEngine()

	first, err := e.Run(context.Background(), tbl)
	require.NoError(t, err)
	second, err := e.Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "run-2", second.RunID)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.TableDigest, second.TableDigest)
	assert.Equal(t, first.Efficiency, second.Efficiency)
	assert.Equal(t, first.Targets, second.Targets)
}

func TestRun_DigestTracksSettings(t *testing.T) {
	tbl := testutil.ThreeUnits(t)
	a, err := newEngine().Run(context.Background(), tbl)
	require.NoError(t, err)
	b, err := newEngine(engine.WithPrecision(2)).Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, a.TableDigest, b.TableDigest)
	assert.NotEqual(t, a.Digest, b.Digest)
	assert.Equal(t, 0.33, b.Targets[2].Score)
}

func TestRun_SingleUnit(t *testing.T) {
	rep, err := newEngine().Run(context.Background(), testutil.SingleUnit(t))
	require.NoError(t, err)

	std := rep.Efficiency.Standard[0]
	require.True(t, std.OK())
	assert.Equal(t, 1.0, std.Value)

	sup := rep.Efficiency.Super[0]
	require.False(t, sup.OK())
	assert.True(t, engine.IsUnbounded(sup.Failure))
	assert.Equal(t, "super", sup.Failure.Model)
	assert.Equal(t, "only", sup.Failure.Unit)

	require.NotNil(t, rep.Cross.Rows[0].Failure)
	assert.True(t, engine.IsInfeasible(rep.Cross.Rows[0].Failure))
	assert.Nil(t, rep.Cross.Means[0])

	require.True(t, rep.Targets[0].OK())
	assert.Equal(t, 1.0, rep.Targets[0].Score)
	assert.Equal(t, []string{"only"}, rep.Targets[0].Facet)

	assert.Len(t, rep.Failures, 2)
}

func TestRun_IdenticalUnitsScoreAlike(t *testing.T) {
	rep, err := newEngine().Run(context.Background(), testutil.IdenticalPair(t))
	require.NoError(t, err)

	eff := rep.Efficiency
	assert.Equal(t, eff.Standard[0].Value, eff.Standard[1].Value)
	assert.Equal(t, eff.Super[0].OK(), eff.Super[1].OK())
	assert.Equal(t, eff.Super[0].Value, eff.Super[1].Value)
	assert.Equal(t, rep.Targets[0].Score, rep.Targets[1].Score)
	for i := range rep.Cross.Rows {
		a, okA := rep.Cross.At(i, 0)
		b, okB := rep.Cross.At(i, 1)
		assert.Equal(t, okA, okB)
		assert.InDelta(t, a, b, eps)
	}
}

func TestRun_InvalidUnitIsReportedNotUsed(t *testing.T) {
	rep, err := newEngine().Run(context.Background(), testutil.WithInvalidUnit(t))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 0.5}, values(rep.Efficiency.Standard[:3]))

	bad := rep.Efficiency.Standard[3]
	require.NotNil(t, bad.Failure)
	assert.True(t, engine.IsInvalidInput(bad.Failure))
	assert.Contains(t, bad.Failure.Message, "x1")
	assert.True(t, engine.IsInvalidInput(rep.Efficiency.Super[3].Failure))
	assert.True(t, engine.IsInvalidInput(rep.Cross.Rows[3].Failure))
	assert.True(t, engine.IsInvalidInput(rep.Targets[3].Failure))
	assert.Len(t, rep.Failures, 4)

	for i := 0; i < 3; i++ {
		_, ok := rep.Cross.At(i, 3)
		assert.False(t, ok)
	}
	assert.Nil(t, rep.Cross.Means[3])
}

func TestRun_FailedSolvesBecomeUnitFailures(t *testing.T) {
	stub := solver.Func(func(ctx context.Context, p lp.Problem) (lp.Result, error) {
		return lp.Failed(lp.StatusOther, "numerical trouble"), nil
	})
	e := engine.New(stub, engine.WithLogger(quietLogger()))

	rep, err := e.Run(context.Background(), testutil.ThreeUnits(t))
	require.NoError(t, err)

	for _, sc := range rep.Efficiency.Standard {
		assert.True(t, engine.IsSolverFailure(sc.Failure))
		assert.Contains(t, sc.Failure.Message, "numerical trouble")
	}
	for _, row := range rep.Cross.Rows {
		assert.True(t, engine.IsDependencyError(row.Failure))
	}
	for _, tg := range rep.Targets {
		assert.True(t, engine.IsSolverFailure(tg.Failure))
	}
	assert.Len(t, rep.Failures, 12)
}

func TestRun_SolverErrorIsUnitFailure(t *testing.T) {
	stub := solver.Func(func(ctx context.Context, p lp.Problem) (lp.Result, error) {
		return lp.Result{}, errors.New("backend crashed")
	})
	sc, err := engine.New(stub, engine.WithLogger(quietLogger())).
		Efficiency(context.Background(), testutil.SingleUnit(t))
	require.NoError(t, err)
	assert.True(t, engine.IsSolverFailure(sc.Standard[0].Failure))
	assert.Contains(t, sc.Standard[0].Failure.Error(), "backend crashed")
}

func TestRun_SolverUnavailableIsFatal(t *testing.T) {
	_, err := engine.New(nil, engine.WithLogger(quietLogger())).Run(context.Background(), testutil.ThreeUnits(t))
	assert.ErrorIs(t, err, solver.ErrUnavailable)

	calls := 0
	flaky := solver.Func(func(ctx context.Context, p lp.Problem) (lp.Result, error) {
		calls++
		if calls > 2 {
			return lp.Result{}, solver.ErrUnavailable
		}
		return solver.NewSimplex().Solve(ctx, p)
	})
	_, err = engine.New(flaky, engine.WithLogger(quietLogger())).Run(context.Background(), testutil.ThreeUnits(t))
	assert.ErrorIs(t, err, solver.ErrUnavailable)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine().Run(ctx, testutil.ThreeUnits(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsUnitFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := engine.New(solver.NewSimplex(), engine.WithLogger(logger))

	_, err := e.Run(context.Background(), testutil.SingleUnit(t))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="unit failed" unit=only model=super status=UNBOUNDED`)
	assert.Contains(t, out, "stage=efficiency")
	assert.Contains(t, out, "stage=cross")
	assert.Contains(t, out, "stage=target")
	assert.Contains(t, out, `msg="run complete"`)
}

func TestCrossEfficiency_MissingScoreIsDependencyFailure(t *testing.T) {
	tbl := testutil.ThreeUnits(t)
	cm, err := newEngine().CrossEfficiency(context.Background(), tbl, nil)
	require.NoError(t, err)
	for _, row := range cm.Rows {
		assert.True(t, engine.IsDependencyError(row.Failure))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.333, engine.Round(1.0/3, 3))
	assert.Equal(t, 0.5, engine.Round(0.4999999999, 3))
	assert.Equal(t, 1.0, engine.Round(0.99951, 3))
	assert.Equal(t, 0.0, engine.Round(-0.0001, 3))
	assert.Equal(t, 2.0, engine.Round(1.5, 0))
	assert.Equal(t, 1.23456, engine.Round(1.23456, -1))
}

func TestUnitError(t *testing.T) {
	err := &engine.UnitError{Code: engine.CodeUnbounded, Unit: "A", Model: "super", Message: "solver returned unbounded"}
	assert.Equal(t, "UNBOUNDED: solver returned unbounded (unit=A, model=super)", err.Error())

	wrapped := errors.Join(errors.New("context"), err)
	ue, ok := engine.AsUnitError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "A", ue.Unit)
	assert.True(t, engine.IsUnbounded(wrapped))
	assert.False(t, engine.IsInfeasible(wrapped))
	assert.False(t, engine.IsUnbounded(errors.New("plain")))
}
