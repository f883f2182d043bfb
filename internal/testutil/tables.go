package testutil

import (
	"testing"

	"github.com/roach88/frontier/internal/table"
)

// MustTable builds a table from parallel rows, failing the test on error.
func MustTable(t testing.TB, inputs, outputs []string, units []string, x, y [][]float64) *table.Table {
	t.Helper()
	b := table.NewBuilder(inputs, outputs)
	for i, u := range units {
		b.Add(u, x[i], y[i])
	}
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

// ThreeUnits is the two-input, one-output example whose third unit is
// dominated: units 1 and 2 score 1, unit 3 scores 0.5.
func ThreeUnits(t testing.TB) *table.Table {
	return MustTable(t,
		[]string{"x1", "x2"}, []string{"y"},
		[]string{"1", "2", "3"},
		[][]float64{{2, 1}, {1, 2}, {3, 3}},
		[][]float64{{1}, {1}, {1}})
}

// SingleUnit is a one-row table.
func SingleUnit(t testing.TB) *table.Table {
	return MustTable(t,
		[]string{"x"}, []string{"y"},
		[]string{"only"},
		[][]float64{{4}},
		[][]float64{{2}})
}

// IdenticalPair holds two units with the same measures and a third that
// dominates neither.
func IdenticalPair(t testing.TB) *table.Table {
	return MustTable(t,
		[]string{"x1", "x2"}, []string{"y1", "y2"},
		[]string{"a", "b", "c"},
		[][]float64{{3, 2}, {3, 2}, {2, 4}},
		[][]float64{{5, 1}, {5, 1}, {3, 3}})
}

// Airports is a small four-input, two-output table in the shape of the
// classic airport benchmark.
func Airports(t testing.TB) *table.Table {
	return MustTable(t,
		[]string{"i1", "i2", "i3", "i4"}, []string{"o1", "o2"},
		[]string{"WAW", "KRK", "KAT", "WRO", "POZ", "LCJ"},
		[][]float64{
			{10.5, 36, 129.4, 7.0},
			{3.1, 19, 31.6, 7.9},
			{3.6, 32, 57.4, 10.5},
			{1.5, 12, 18.0, 3.0},
			{1.5, 10, 24.0, 4.0},
			{0.6, 12, 24.0, 3.9},
		},
		[][]float64{
			{9.5, 129.7},
			{2.9, 31.3},
			{2.4, 21.1},
			{1.5, 18.8},
			{1.3, 16.2},
			{0.3, 4.2},
		})
}

// WithInvalidUnit is ThreeUnits plus a fourth unit with a negative input.
func WithInvalidUnit(t testing.TB) *table.Table {
	t.Helper()
	tbl, err := table.NewBuilder([]string{"x1", "x2"}, []string{"y"}).
		Add("1", []float64{2, 1}, []float64{1}).
		Add("2", []float64{1, 2}, []float64{1}).
		Add("3", []float64{3, 3}, []float64{1}).
		Add("bad", []float64{-1, 1}, []float64{1}).
		Build()
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}
