package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/three_units.yaml")
	require.NoError(t, err)

	assert.Equal(t, "three_units", scenario.Name)
	assert.NotEmpty(t, scenario.Description)
	require.NotNil(t, scenario.Table)
	assert.Equal(t, []string{"x1", "x2"}, scenario.Table.Inputs)
	assert.Equal(t, []string{"y"}, scenario.Table.Outputs)
	require.Len(t, scenario.Table.Units, 3)
	assert.Equal(t, UnitRow{ID: "3", X: []float64{3, 3}, Y: []float64{1}}, scenario.Table.Units[2])
	assert.Len(t, scenario.Assertions, 12)
	assert.Equal(t, "scenario-three_units", scenario.RunIDOrDefault())
}

func TestLoadScenario_ExplicitRunID(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/single_unit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "single-0001", scenario.RunIDOrDefault())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelt key"
table:
  inputs: [x]
  outputs: [y]
  units: [{id: a, x: [1], y: [1]}]
assertion:
  - {type: failure_count, count: 0}
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestBuildTable_CSVRelativeToScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/csv_pair.yaml")
	require.NoError(t, err)

	tbl, err := scenario.BuildTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south", "east"}, tbl.Units())
	assert.Equal(t, []string{"staff", "space"}, tbl.Inputs())
	assert.Equal(t, []string{"visits"}, tbl.Outputs())
}

func TestBuildTable_SingleCSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"),
		[]byte("unit,x,y\nA,2,1\nB,4,1\n"), 0644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: single_file
description: "one file with column lists"
csv:
  file: data.csv
  input_cols: [x]
  output_cols: [y]
assertions:
  - {type: score, model: ccr, unit: B, value: 0.5}
`), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	tbl, err := scenario.BuildTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Units())
}

func TestBuildTable_InlineMissingValue(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/invalid_unit.yaml")
	require.NoError(t, err)

	tbl, err := scenario.BuildTable()
	require.NoError(t, err)
	require.Len(t, tbl.Problems(), 1)
	assert.Equal(t, "gap", tbl.Problems()[0].Unit)
	assert.Equal(t, "missing value", tbl.Problems()[0].Reason)
}

func TestParseScenario_Invalid(t *testing.T) {
	const table = `
table:
  inputs: [x]
  outputs: [y]
  units: [{id: a, x: [1], y: [1]}]
`
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\n" + table + "assertions: [{type: failure_count, count: 0}]\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\n" + table + "assertions: [{type: failure_count, count: 0}]\n",
			want:    "description is required",
		},
		{
			name:    "no table",
			content: "name: n\ndescription: d\nassertions: [{type: failure_count, count: 0}]\n",
			want:    "table or csv is required",
		},
		{
			name:    "table and csv",
			content: "name: n\ndescription: d\n" + table + "csv: {file: a.csv, input_cols: [x], output_cols: [y]}\nassertions: [{type: failure_count, count: 0}]\n",
			want:    "mutually exclusive",
		},
		{
			name:    "csv pair incomplete",
			content: "name: n\ndescription: d\ncsv: {inputs: in.csv}\nassertions: [{type: failure_count, count: 0}]\n",
			want:    "inputs and outputs are required",
		},
		{
			name:    "csv file without columns",
			content: "name: n\ndescription: d\ncsv: {file: t.csv}\nassertions: [{type: failure_count, count: 0}]\n",
			want:    "input_cols and output_cols are required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\n" + table,
			want:    "assertions list is required",
		},
		{
			name:    "negative precision",
			content: "name: n\ndescription: d\nsettings: {precision: -1}\n" + table + "assertions: [{type: failure_count, count: 0}]\n",
			want:    "precision must be non-negative",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: trace_contains}]\n",
			want:    `unknown assertion type "trace_contains"`,
		},
		{
			name:    "score with bad model",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: score, model: cross, unit: a, value: 1}]\n",
			want:    "model must be ccr or super",
		},
		{
			name:    "score without value",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: score, model: ccr, unit: a}]\n",
			want:    "value is required for score",
		},
		{
			name:    "failure with bad code",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: failure, model: ccr, unit: a, code: OOPS}]\n",
			want:    `unknown failure code "OOPS"`,
		},
		{
			name:    "cross without rater",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: cross, unit: a, value: 1}]\n",
			want:    "rater is required",
		},
		{
			name:    "target without expectation",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: target, unit: a}]\n",
			want:    "value or facet is required",
		},
		{
			name:    "failure_count without count",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: failure_count}]\n",
			want:    "non-negative count is required",
		},
		{
			name:    "negative tolerance",
			content: "name: n\ndescription: d\n" + table + "assertions: [{type: cross_mean, unit: a, value: 1, tolerance: -1}]\n",
			want:    "tolerance must be non-negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
