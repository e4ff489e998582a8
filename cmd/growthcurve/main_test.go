package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/config"
)

const assignmentDoc = `{"dataset": {"rows": [
  {"well": "A1", "sample": "wt", "replicate": 1, "time_min": 0, "val_od600": 0.05},
  {"well": "A1", "sample": "wt", "replicate": 1, "time_min": 10, "val_od600": 0.05},
  {"well": "A1", "sample": "wt", "replicate": 1, "time_min": 20, "val_od600": 0.05},
  {"well": "A1", "sample": "wt", "replicate": 1, "time_min": 30, "val_od600": 0.05},
  {"well": "A1", "sample": "wt", "replicate": 1, "time_min": 40, "val_od600": 0.2},
  {"well": "B1", "sample": "blank", "replicate": 1, "time_min": 0, "val_od600": 0.04}
]}}`

const smoothedDoc = `{"samples": [
  {"sample": "wt", "history": [
    {"label": "raw", "points": [{"x": 0, "y": 0.02}]},
    {"label": "SG 7", "points": [{"x": 0, "y": 0.02}]}
  ]}
]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBaselineCommandJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "assignment.json", assignmentDoc)

	out, err := execute(t, "baseline", path, "--well", "A1", "--json")
	require.NoError(t, err)

	var results []growthcurve.WellAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "wt", results[0].Sample)
	assert.Equal(t, growthcurve.StatusOK, results[0].Baseline.Status)
	assert.Equal(t, []int{0, 1, 2, 3}, results[0].Baseline.Indices)
}

func TestBaselineCommandText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "assignment.json", assignmentDoc)

	out, err := execute(t, "baseline", path, "--cleanup", "greedy")
	require.NoError(t, err)
	assert.Contains(t, out, "Well: A1")
	assert.Contains(t, out, "Well: B1")
	assert.Contains(t, out, "Status: insufficient_data")

	_, err = execute(t, "baseline", path, "--cleanup", "smooth")
	require.ErrorIs(t, err, growthcurve.ErrInvalidOptions)

	out, err = execute(t, "baseline", path, "--list")
	require.NoError(t, err)
	assert.Equal(t, "blank: [B1]\nwt: [A1]\n", out)
}

func TestLogPhaseCommandList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "smoothed.json", smoothedDoc)

	out, err := execute(t, "logphase", path, "--list")
	require.NoError(t, err)
	assert.Equal(t, "wt: raw, SG 7\n", out)

	out, err = execute(t, "logphase", path, "--history", "raw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "History: raw\n"))
	assert.Contains(t, out, "Status: insufficient_data")
}

func TestAnalyzeCommandWritesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "growth.yaml")

	_, err := execute(t, "analyze", "--write-config", cfgPath, "--format", "csv", "--workers", "3")
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 3, cfg.Batch.Workers)

	_, err = execute(t, "analyze", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out is required")
}

func TestAnalyzeCommandRunsPipeline(t *testing.T) {
	dir := t.TempDir()
	assignment := writeFile(t, dir, "assignment.json", assignmentDoc)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "analyze", "--assignment", assignment, "--out", outDir, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "growthcurve analyze complete")
	assert.Contains(t, out, "(2 wells)")
	assert.Contains(t, out, "warning:             well B1: baseline insufficient_data")

	_, err = os.Stat(filepath.Join(outDir, "annotated_points.csv"))
	require.NoError(t, err)
}
