package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResponse struct {
	Status string        `json:"status"`
	Data   HistoryResult `json:"data"`
}

// recordRuns checks each fixture in turn into a fresh verdict log and
// returns the database path.
func recordRuns(t *testing.T, fixtures ...string) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "verdicts.db")
	unit := filepath.Join(dir, "unit.cue")
	for _, f := range fixtures {
		writeFile(t, dir, "unit.cue", f)
		_, _, _ = execute(t, "check", "--db", db, unit)
	}
	return db
}

func TestHistoryLatestRun(t *testing.T) {
	db := recordRuns(t, cleanFixture, failingFixture)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "(seq 2)")
	assert.Contains(t, out, "Roots:     5")
	assert.Contains(t, out, "Failures:  2")
	assert.Contains(t, out, "✗ alpha[0] LOCAL_ASSIGNMENT_WRONG")
	assert.Contains(t, out, "✗ beta[0] ARG_OUT_OF_RANGE")
	assert.NotContains(t, out, "✓")
}

func TestHistoryAllVerdicts(t *testing.T) {
	db := recordRuns(t, failingFixture)

	out, _, err := execute(t, "history", "--db", db, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ alpha[1]")
	assert.Contains(t, out, "✓ beta[1]")
	assert.Contains(t, out, "✗ alpha[0]")
}

func TestHistoryJSON(t *testing.T) {
	db := recordRuns(t, failingFixture)

	out, _, err := execute(t, "--format", "json", "history", "--db", db, "--all")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Run)
	assert.Equal(t, int64(1), resp.Data.Run.Seq)
	assert.Equal(t, 5, resp.Data.Run.Roots)
	assert.Equal(t, 2, resp.Data.Run.Failures)
	assert.Equal(t, Version, resp.Data.Run.ToolVersion)

	require.Len(t, resp.Data.Verdicts, 5)
	assert.Equal(t, "alpha", resp.Data.Verdicts[0].Method)
	assert.Equal(t, "fail", resp.Data.Verdicts[0].Status)
	assert.Equal(t, "ok", resp.Data.Verdicts[1].Status)
	assert.Equal(t, "beta", resp.Data.Verdicts[4].Method)
	assert.Equal(t, 1, resp.Data.Verdicts[4].Root)
}

func TestHistoryRuns(t *testing.T) {
	db := recordRuns(t, cleanFixture, failingFixture)

	out, _, err := execute(t, "--format", "json", "history", "--db", db, "--runs")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, int64(1), resp.Data.Runs[0].Seq)
	assert.Equal(t, 0, resp.Data.Runs[0].Failures)
	assert.Equal(t, int64(2), resp.Data.Runs[1].Seq)
	assert.Equal(t, 2, resp.Data.Runs[1].Failures)
	assert.NotEqual(t, resp.Data.Runs[0].UnitHash, resp.Data.Runs[1].UnitHash)
}

func TestHistoryDiff(t *testing.T) {
	db := recordRuns(t, failingFixture, fixedFixture)

	out, _, err := execute(t, "history", "--db", db, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha[0]: LOCAL_ASSIGNMENT_WRONG -> ok")
	assert.Contains(t, out, "beta[0]: ARG_OUT_OF_RANGE -> ok")
	assert.NotContains(t, out, "alpha[1]")
}

func TestHistoryDiffUnchanged(t *testing.T) {
	db := recordRuns(t, failingFixture, failingFixture)

	out, _, err := execute(t, "history", "--db", db, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes since run")
}

func TestHistoryDiffSingleRun(t *testing.T) {
	db := recordRuns(t, failingFixture)

	out, _, err := execute(t, "history", "--db", db, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "No preceding run to compare with.")
}

func TestHistoryByCode(t *testing.T) {
	db := recordRuns(t, failingFixture, fixedFixture, failingFixture)

	out, _, err := execute(t, "--format", "json", "history", "--db", db, "--code", "ARG_OUT_OF_RANGE")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Verdicts, 2)
	for _, v := range resp.Data.Verdicts {
		assert.Equal(t, "beta", v.Method)
		assert.Equal(t, "ARG_OUT_OF_RANGE", v.Code)
	}
	assert.NotEqual(t, resp.Data.Verdicts[0].RunID, resp.Data.Verdicts[1].RunID)
}

func TestHistoryEmptyLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	out, _, err = execute(t, "history", "--db", db, "--runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryUnknownRun(t *testing.T) {
	db := recordRuns(t, cleanFixture)

	_, _, err := execute(t, "history", "--db", db, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run no-such-run not found")
}

func TestHistoryRequiresDB(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryDBFromConfig(t *testing.T) {
	db := recordRuns(t, cleanFixture)
	cfg := writeFile(t, t.TempDir(), "ilverify.yaml", "db: "+db+"\n")

	out, _, err := execute(t, "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Failures:  0")
}

func TestHistoryExclusiveFlags(t *testing.T) {
	_, _, err := execute(t, "history", "--db", "x.db", "--runs", "--diff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
