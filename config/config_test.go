package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "growth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writeConfig(t, `
baseline:
  pre_window_end: 60
  cleanup: greedy
log_phase:
  window_size: 7
batch:
  workers: 4
output:
  format: csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Analysis.Baseline.PreWindowEnd = 60
	want.Analysis.Baseline.Cleanup = growthcurve.CleanupGreedy
	want.Analysis.LogPhase.WindowSize = 7
	want.Batch.Workers = 4
	want.Output.Format = "csv"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsExplicitZeroTolerance(t *testing.T) {
	path := writeConfig(t, "baseline:\n  tolerance: 0\n")
	_, err := Load(path)
	require.ErrorIs(t, err, growthcurve.ErrInvalidOptions)
	assert.Contains(t, err.Error(), "Tolerance")
}

func TestLoadRejectsUnknownOutputFormat(t *testing.T) {
	path := writeConfig(t, "output:\n  format: xlsx\n")
	_, err := Load(path)
	require.ErrorIs(t, err, growthcurve.ErrInvalidOptions)
	assert.Contains(t, err.Error(), "Format")
}

func TestLoadRejectsNegativeWorkers(t *testing.T) {
	path := writeConfig(t, "batch:\n  workers: -2\n")
	_, err := Load(path)
	require.ErrorIs(t, err, growthcurve.ErrInvalidOptions)
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := writeConfig(t, "baseline: [1, 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Baseline.MonotoneTimeLimit = math.Inf(1)
	cfg.Analysis.Structure.StationaryFracK = 0.85
	cfg.Output.Overwrite = true

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Write(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "monotone_time_limit: .inf")

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.Analysis.Baseline.MonotoneTimeLimit, 1))
	assert.Equal(t, 0.85, got.Analysis.Structure.StationaryFracK)
	assert.True(t, got.Output.Overwrite)
}
