package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "app:\n  env: dev\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8087", cfg.App.HTTPAddr)
	assert.Equal(t, float64(10), cfg.Analysis.DefaultLeverage)
	assert.Equal(t, "plain", cfg.Analysis.DefaultProfile)
	assert.Equal(t, "time_gap", cfg.Analysis.DefaultPolicy)
	assert.Equal(t, 300, cfg.Analysis.GapSeconds)
	assert.True(t, cfg.Analysis.SplitOnSideFlip)
	assert.NotEmpty(t, cfg.Store.DSN)
}

func TestLoadExplicitFalseSurvivesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
analysis:
  split_on_side_flip: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Analysis.SplitOnSideFlip, "explicit false must not be re-defaulted to true")
}

func TestLoadIncludeMerging(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
app:
  log_level: debug
analysis:
  default_leverage: 5
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
analysis:
  default_profile: all_kill
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, float64(5), cfg.Analysis.DefaultLeverage)
	assert.Equal(t, "all_kill", cfg.Analysis.DefaultProfile)
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidationRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"leverage": "analysis:\n  default_leverage: 0.5\n",
		"gap":      "analysis:\n  gap_seconds: -1\n",
		"policy":   "analysis:\n  default_policy: sideways\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, dir, name+".yaml", content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
