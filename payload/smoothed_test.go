package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smoothedDoc = `{
  "samples": [
    {
      "sample": "wt",
      "wells": [{"well": "A1", "replicate": 1}, {"well": "A2", "replicate": "2"}],
      "history": [
        {"label": "raw", "points": [{"x": 10, "y": 0.03}, {"x": 0, "y": 0.02}]},
        {"label": "smoothed", "points": [{"x": 0, "y": 0.021}, {"x": 10, "y": 0.029}, {"x": 20, "y": 0.041}]}
      ]
    },
    {"sample": "empty", "wells": [{"well": "B1"}], "history": []},
    {"sample": "blank", "history": [{"label": "raw", "points": []}]},
    {"sample": "wt", "history": []}
  ]
}`

func TestSmoothedSamples(t *testing.T) {
	s, err := ParseSmoothed([]byte(smoothedDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"blank", "empty", "wt"}, s.SampleNames())

	wt, err := s.Sample("wt")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw", "smoothed"}, wt.HistoryLabels())
	assert.Equal(t, []string{"A1 (rep 1)", "A2 (rep 2)"}, wt.WellLabels())

	_, err = s.Sample("ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSmoothedCurve(t *testing.T) {
	s, err := ParseSmoothed([]byte(smoothedDoc))
	require.NoError(t, err)
	wt, err := s.Sample("wt")
	require.NoError(t, err)

	c, err := wt.Curve("")
	require.NoError(t, err)
	assert.Equal(t, "smoothed", c.Label)
	assert.Len(t, c.Series, 3)

	c, err = wt.Curve("raw")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10}, c.Series.Times())
	assert.Equal(t, []float64{0.02, 0.03}, c.Series.Values())
	assert.Equal(t, "wt", c.Sample)
	assert.Equal(t, []string{"A1 (rep 1)", "A2 (rep 2)"}, c.Wells)

	_, err = wt.Curve("denoised")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSmoothedCurveErrors(t *testing.T) {
	s, err := ParseSmoothed([]byte(smoothedDoc))
	require.NoError(t, err)

	empty, err := s.Sample("empty")
	require.NoError(t, err)
	_, err = empty.Curve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history")
	assert.Equal(t, []string{"B1"}, empty.WellLabels())

	blank, err := s.Sample("blank")
	require.NoError(t, err)
	_, err = blank.Curve("raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no points")

	_, err = ParseSmoothed([]byte(`{"samples": {}}`))
	require.Error(t, err)
}

func TestMarshalJSONAppendsNewline(t *testing.T) {
	out, err := MarshalJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(out))
}
