package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/ir"
)

// Snapshot renders the golden form of a scenario report: the canonical
// report value with its run ID and digest, indented for readable diffs.
// Raw scores are excluded so goldens do not churn on float noise.
func Snapshot(name string, rep *engine.Report) ([]byte, error) {
	v := ir.NewObject(
		ir.O("scenario", ir.String(name)),
		ir.O("run_id", ir.String(rep.RunID)),
		ir.O("digest", ir.String(rep.Digest)),
		ir.O("report", engine.ReportValue(rep)),
	)
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// GoldenPath returns the golden file of a scenario file:
// <dir>/golden/<base>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes data as the golden file at path.
func UpdateGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the golden file at path holds data.
// A missing file is returned as an os.ErrNotExist error.
func CompareGolden(path string, data []byte) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(golden, data), nil
}

// AssertGolden compares a result's snapshot against the golden file name
// managed by g. Run the test with -update to regenerate it.
func AssertGolden(t *testing.T, g *goldie.Goldie, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result.Report)
	if err != nil {
		return err
	}
	g.Assert(t, name, data)
	return nil
}
