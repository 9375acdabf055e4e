package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ilverify.yaml", "fail_fast: true\nmemoize: true\ndb: verdicts.db\ngraphs_dir: graphs\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{FailFast: true, Memoize: true, DB: "verdicts.db", GraphsDir: "graphs"}, *cfg)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{}, *cfg)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "fail_fast: true\nparallel: 4\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open config")
}

func TestConfigFlagLoadsFile(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.cue", failingFixture)
	cfg := writeFile(t, dir, "ilverify.yaml", "fail_fast: true\n")

	out, _, err := execute(t, "--config", cfg, "check", unit)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Stopped early")
	assert.NotContains(t, out, "beta[0]")
}

func TestConfigFlagOverriddenByFlag(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.cue", failingFixture)
	cfg := writeFile(t, dir, "ilverify.yaml", "fail_fast: true\n")

	out, _, err := execute(t, "--config", cfg, "check", "--fail-fast=false", unit)
	require.Error(t, err)
	assert.Contains(t, out, "alpha[0]")
	assert.Contains(t, out, "beta[0]")
	assert.NotContains(t, out, "Stopped early")
}

func TestConfigFlagBadFile(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.cue", cleanFixture)
	cfg := writeFile(t, dir, "ilverify.yaml", "threads: 8\n")

	_, _, err := execute(t, "--config", cfg, "check", unit)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
