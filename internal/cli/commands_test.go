package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotImport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, "snapshot", "import", filepath.Join("testdata", "ledger.yaml"), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 objects, 1 tables (2 entries), 0 events")

	out, err = execute(t, "--format", "json", "snapshot", "import", filepath.Join("testdata", "ledger.yaml"), "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data SnapshotImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Entries, "re-import replaces rather than appends")
}

func TestSnapshotImport_BadFixture(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte("objects: [{id: a}, {id: a}]"), 0644))

	_, err := execute(t, "snapshot", "import", fixture, "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestDecode_JSONC(t *testing.T) {
	out, err := execute(t, "decode", filepath.Join("testdata", "payload.jsonc"))
	require.NoError(t, err)
	assert.Contains(t, out, "key:              7")
	assert.Contains(t, out, "title:            Indexer")
	assert.Contains(t, out, "skills:           go, sql")
	assert.Contains(t, out, "budget:           0-1500")
}

func TestDecode_Stdin(t *testing.T) {
	t.Setenv("LEDGERLENS_CONFIG", "")
	out := &strings.Builder{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader(`{"fields": {"title": "Piped", "project_id": 4}}`))
	cmd.SetArgs([]string{"--format", "json", "decode", "-"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data struct {
			Key    uint64 `json:"key"`
			HasKey bool   `json:"has_key"`
			Title  string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &resp))
	assert.Equal(t, "Piped", resp.Data.Title)
	assert.True(t, resp.Data.HasKey)
	assert.Equal(t, uint64(4), resp.Data.Key)
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"unrelated": true}`), 0644))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"title": `), 0644))

	_, err := execute(t, "decode", empty)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "decode", broken)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "decode", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registry:\n  id: \"0xreg\"\nrpc:\n  timeout: 3s\n"), 0644))

	out, err := execute(t, "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "id: 0xreg")
	assert.Contains(t, out, "timeout: 3s")

	out, err = execute(t, "--format", "json", "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "0xreg"`)
}

func TestTestCommand_Scenarios(t *testing.T) {
	out, err := execute(t, "test", filepath.Join("testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ table_lookup")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_UpdateThenMismatch(t *testing.T) {
	dir := t.TempDir()
	fixture, err := os.ReadFile(filepath.Join("testdata", "ledger.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yaml"), fixture, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenarios"), 0755))
	scenario := `
name: lookup
description: "Key 3 resolves"
snapshot: ../ledger.yaml
context: {registry: "0xreg"}
requests: [{id: "3", expect: {outcome: resolved}}]
`
	scenariosDir := filepath.Join(dir, "scenarios")
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "lookup.yaml"), []byte(scenario), 0644))

	out, err := execute(t, "test", scenariosDir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ lookup (golden updated)")

	goldenPath := filepath.Join(scenariosDir, "golden", "lookup.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"record_id": "0xf1e1d03"`)

	_, err = execute(t, "test", scenariosDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = execute(t, "test", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FilterAndJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", filepath.Join("testdata", "scenarios"), "--filter", "nothing-*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_LoadErrorFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
