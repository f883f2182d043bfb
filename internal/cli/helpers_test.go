package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/store"
)

const (
	threeInputs  = "dmu,x1,x2\n1,2,1\n2,1,2\n3,3,3\n"
	threeOutputs = "dmu,y\n1,1\n2,1\n3,1\n"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// threeUnitFiles writes the three-unit table as an inputs/outputs pair.
func threeUnitFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "inputs.csv", threeInputs), writeFile(t, dir, "outputs.csv", threeOutputs)
}

// reportResponse is the JSON envelope of commands that print a report.
type reportResponse struct {
	Status string         `json:"status"`
	Data   *engine.Report `json:"data"`
	Error  *CLIError      `json:"error"`
}

func decodeReport(t *testing.T, out string) reportResponse {
	t.Helper()
	var resp reportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// archiveThreeUnits runs the three-unit table into a new archive and returns
// the archive path and the archived report.
func archiveThreeUnits(t *testing.T) (string, *engine.Report) {
	t.Helper()
	in, out := threeUnitFiles(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	stdout, _, err := execute(t, "run", "--format", "json", "--inputs", in, "--outputs", out, "--db", db)
	require.NoError(t, err)
	resp := decodeReport(t, stdout)
	require.Equal(t, "ok", resp.Status)
	return db, resp.Data
}

func openTestArchive(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
