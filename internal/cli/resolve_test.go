package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importFixture loads testdata/ledger.yaml into a fresh snapshot database.
func importFixture(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "ledger.db")
	_, err := execute(t, "snapshot", "import", filepath.Join("testdata", "ledger.yaml"), "--db", db)
	require.NoError(t, err)
	return db
}

func TestResolve_SnapshotHit(t *testing.T) {
	db := importFixture(t)

	out, err := execute(t, "resolve", "3", "--registry", "0xreg", "--snapshot", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Record 0xf1e1d03 (key 3)")
	assert.Contains(t, out, "title:    Explorer")
	assert.Contains(t, out, "strategy: table (exact match)")
	assert.Contains(t, out, "budget:   200-900")
}

func TestResolve_SnapshotJSON(t *testing.T) {
	db := importFixture(t)

	out, err := execute(t, "--format", "json", "resolve", "0xf1e1d03", "--registry", "0xreg", "--snapshot", db)
	require.NoError(t, err)

	var resp struct {
		Status  string `json:"status"`
		TraceID string `json:"trace_id"`
		Data    struct {
			Record struct {
				ID    string `json:"id"`
				Key   uint64 `json:"key"`
				Title string `json:"title"`
			} `json:"record"`
			Strategy string `json:"strategy"`
			Steps    []struct {
				Step    string `json:"step"`
				Outcome string `json:"outcome"`
			} `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, "0xf1e1d03", resp.Data.Record.ID)
	assert.Equal(t, uint64(3), resp.Data.Record.Key)
	assert.Equal(t, "table", resp.Data.Strategy)
	require.Len(t, resp.Data.Steps, 2)
	assert.Equal(t, "hit", resp.Data.Steps[1].Outcome)
}

func TestResolve_UnavailableExitsOne(t *testing.T) {
	db := importFixture(t)

	out, err := execute(t, "resolve", "0xf1e1d09", "--registry", "0xreg", "--snapshot", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [FOUND_BUT_UNAVAILABLE]")
	assert.Contains(t, out, "owned-requester  skipped")
}

func TestResolve_NotFoundJSON(t *testing.T) {
	db := importFixture(t)

	out, err := execute(t, "--format", "json", "resolve", "0xdeadbeef", "--registry", "0xreg", "--snapshot", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.NotEmpty(t, resp.TraceID)
}

func TestResolve_CommandErrors(t *testing.T) {
	db := importFixture(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no registry", []string{"resolve", "3", "--snapshot", db}, "registry id is required"},
		{"missing snapshot", []string{"resolve", "3", "--registry", "0xreg", "--snapshot", filepath.Join(t.TempDir(), "nope.db")}, "failed to open snapshot"},
		{"no ledger", []string{"resolve", "3", "--registry", "0xreg"}, "no ledger configured"},
		{"bad config", []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "resolve", "3"}, "failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolve_SnapshotFlagOverridesEndpoint(t *testing.T) {
	db := importFixture(t)
	t.Setenv("LEDGERLENS_RPC_ENDPOINT", "http://127.0.0.1:1")

	// The default creation event type is not fully qualified. That only
	// matters when the node is queried.
	out, err := execute(t, "resolve", "3", "--registry", "0xreg", "--snapshot", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Record 0xf1e1d03 (key 3)")

	_, err = execute(t, "resolve", "3", "--registry", "0xreg")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "must be fully qualified")
}
