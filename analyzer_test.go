package growthcurve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeWell(t *testing.T) {
	s := mustSeries(t,
		[]float64{0, 10, 20, 30, 40, 50},
		[]float64{0.05, 0.05, 0.05, 0.05, 0.2, 0.4},
	)
	wa, err := AnalyzeWell("C7", s, DefaultBaselineOptions())
	require.NoError(t, err)
	assert.Equal(t, "C7", wa.Well)
	assert.Equal(t, 6, wa.PointCount)
	assert.Equal(t, StatusOK, wa.Baseline.Status)
	assert.Equal(t, []int{0, 1, 2, 3}, wa.Baseline.Indices)
	assert.True(t, strings.HasPrefix(wa.Notes, "Well: C7"))
}

func TestAnalyzeWellWrapsOptionErrors(t *testing.T) {
	opts := DefaultBaselineOptions()
	opts.BinWidth = 0
	_, err := AnalyzeWell("C7", Series{{T: 0, Y: 0.05}}, opts)
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "well C7")
}

func TestAnalyzeCurve(t *testing.T) {
	s := exponentialSeries(t, 51, 2, 0.02, 0.05)

	ca, err := AnalyzeCurve("wt", s, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, ca.LogPhase.Status)
	require.Len(t, ca.Structure.Phases, 3)
	assert.Equal(t, PhaseLog, ca.Structure.Phases[0].Phase)
	assert.Equal(t, PhaseTransition, ca.Structure.Phases[1].Phase)
	assert.Equal(t, PhaseStationary, ca.Structure.Phases[2].Phase)
	assert.Equal(t, 47, ca.Structure.Phases[2].StartIndex)
	assert.InDelta(t, 0.82, ca.Structure.Confidence, 1e-9)
	assert.Contains(t, ca.Notes, "Curve: wt")
	assert.Contains(t, ca.Notes, "\nStructure: log ")
	assert.Contains(t, ca.Notes, "(confidence 82%)")
}

func TestAnalyzeCurveWrapsOptionErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Structure.StationaryFracK = 0
	_, err := AnalyzeCurve("wt", exponentialSeries(t, 20, 2, 0.02, 0.05), nil, cfg)
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "growth structure for sample wt")
}
