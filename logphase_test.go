package growthcurve

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exponentialSeries(t *testing.T, n int, step, y0, mu float64) Series {
	t.Helper()
	times := evenTimes(n, step)
	values := make([]float64, n)
	for i, tm := range times {
		values[i] = y0 * math.Exp(mu*tm)
	}
	return mustSeries(t, times, values)
}

func TestDetectLogPhasePureExponential(t *testing.T) {
	s := exponentialSeries(t, 51, 2, 0.02, 0.05)

	res, err := DetectLogPhase(s, DefaultLogPhaseOptions())
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.NotNil(t, res.MuMax)
	require.NotNil(t, res.MuMean)
	require.NotNil(t, res.KEstimate)
	assert.InDelta(t, 0.05, *res.MuMax, 1e-9)
	assert.InDelta(t, 0.05, *res.MuMean, 1e-9)
	assert.InDelta(t, 0.02*math.Exp(0.05*96), *res.KEstimate, 1e-9)

	// Windows stop below 0.4*K, which is first crossed at t=78.
	want := make([]int, 39)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, res.Indices); diff != "" {
		t.Fatalf("log indices mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Windows, 35)
	for _, w := range res.Windows {
		assert.InDelta(t, 0.05, w.Slope, 1e-9)
		assert.GreaterOrEqual(t, w.R2, 0.98)
		assert.True(t, w.Selected)
	}
	td, ok := res.DoublingTime()
	require.True(t, ok)
	assert.InDelta(t, math.Ln2/0.05, td, 1e-6)
}

func TestDetectLogPhaseBelowODMin(t *testing.T) {
	s := mustSeries(t, evenTimes(20, 5), make([]float64, 20))
	for i := range s {
		s[i].Y = 0.005
	}

	res, err := DetectLogPhase(s, DefaultLogPhaseOptions())
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.NotNil(t, res.Indices)
	assert.Empty(t, res.Indices)
	assert.Nil(t, res.KEstimate)
	assert.Nil(t, res.MuMax)
	assert.Nil(t, res.MuMean)
}

func TestDetectLogPhaseEmptySeries(t *testing.T) {
	res, err := DetectLogPhase(nil, DefaultLogPhaseOptions())
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Empty(t, res.Indices)
}

func TestDetectLogPhaseNonPositivePlateau(t *testing.T) {
	s := mustSeries(t, evenTimes(10, 5), make([]float64, 10))
	opts := DefaultLogPhaseOptions()
	opts.ODMin = 0

	res, err := DetectLogPhase(s, opts)
	require.NoError(t, err)
	assert.Equal(t, StatusNonPositivePlateau, res.Status)
	assert.Nil(t, res.KEstimate)
	assert.Nil(t, res.MuMax)
	assert.Empty(t, res.Indices)
}

func TestDetectLogPhaseNoGrowth(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = 1.0 - 0.05*float64(i)
	}
	s := mustSeries(t, evenTimes(10, 10), values)

	res, err := DetectLogPhase(s, DefaultLogPhaseOptions())
	require.NoError(t, err)
	assert.Equal(t, StatusNoLogPhase, res.Status)
	require.NotNil(t, res.KEstimate)
	assert.InDelta(t, 0.65, *res.KEstimate, 1e-12)
	assert.Nil(t, res.MuMax)
	assert.Empty(t, res.Indices)
}

func TestDetectLogPhaseFallsBackToSteepestWindow(t *testing.T) {
	s := exponentialSeries(t, 51, 2, 0.02, 0.05)
	opts := DefaultLogPhaseOptions()
	opts.MuRelMin = 1.1
	opts.MuRelMax = 1.2

	res, err := DetectLogPhase(s, opts)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Indices, opts.WindowSize)
	assertContiguous(t, res.Indices)
	selected := 0
	for _, w := range res.Windows {
		if w.Selected {
			selected++
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, *res.MuMax, *res.MuMean)
}

func TestDetectLogPhasePicksLongestRun(t *testing.T) {
	// Two exponential stretches with the same rate separated by a dip
	// that breaks every window spanning it.
	times := evenTimes(30, 1)
	values := make([]float64, len(times))
	for i := range values {
		switch {
		case i < 8:
			values[i] = 0.02 * math.Exp(0.1*float64(i))
		case i == 8:
			values[i] = 0.015
		default:
			values[i] = 0.02 * math.Exp(0.1*float64(i-9))
		}
	}
	// Plateau far above every window keeps the ceiling out of the way.
	for i := 25; i < 30; i++ {
		values[i] = 10
	}
	s := mustSeries(t, times, values)

	res, err := DetectLogPhase(s, DefaultLogPhaseOptions())
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	assertContiguous(t, res.Indices)
	assert.Equal(t, 9, res.Indices[0])
	assert.Equal(t, 24, res.Indices[len(res.Indices)-1])
	assert.InDelta(t, 0.1, *res.MuMax, 1e-9)
}

func TestDetectLogPhaseHugeWindow(t *testing.T) {
	opts := DefaultLogPhaseOptions()
	opts.WindowSize = math.MaxInt

	res, err := DetectLogPhase(exponentialSeries(t, 10, 2, 0.02, 0.05), opts)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Nil(t, res.KEstimate)
	assert.Empty(t, res.Windows)
}

func TestDetectLogPhaseRejectsInvalidOptions(t *testing.T) {
	opts := DefaultLogPhaseOptions()
	opts.WindowSize = 1
	_, err := DetectLogPhase(Series{}, opts)
	require.ErrorIs(t, err, ErrInvalidOptions)

	opts = DefaultLogPhaseOptions()
	opts.MuRelMax = 0.5
	_, err = DetectLogPhase(Series{}, opts)
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestLinearRegressionFlatWindow(t *testing.T) {
	slope, intercept, r2, ok := linearRegression([]float64{0, 1, 2, 3}, []float64{2, 2, 2, 2})
	require.True(t, ok)
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 2.0, intercept)
	assert.Equal(t, 1.0, r2)
}

func TestLinearRegressionDegenerateTimes(t *testing.T) {
	_, _, _, ok := linearRegression([]float64{5, 5, 5}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, _, _, ok = linearRegression([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestLinearRegressionLine(t *testing.T) {
	slope, intercept, r2, ok := linearRegression([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	require.True(t, ok)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)
	assert.InDelta(t, 1.0, r2, 1e-12)
}

func TestLongestMarkedRun(t *testing.T) {
	start, end := longestMarkedRun([]bool{true, true, false, true, true, true, false, true, true, true})
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)
}
