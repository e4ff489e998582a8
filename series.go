package growthcurve

import (
	"fmt"
	"math"
	"sort"
)

// Point is one OD reading of a well at a point in time (minutes).
type Point struct {
	T float64 `json:"t"`
	Y float64 `json:"y"`
}

// Series is a time-ordered sequence of readings for one well or one curve.
// Duplicate timestamps are kept in the order they were encountered.
type Series []Point

// NewSeries pairs times with values and stable-sorts the pairs by time.
func NewSeries(t, y []float64) (Series, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("series length mismatch: %d times, %d values", len(t), len(y))
	}
	s := make(Series, 0, len(t))
	for i := range t {
		if !isFinite(t[i]) || !isFinite(y[i]) {
			return nil, fmt.Errorf("non-finite reading at position %d: t=%v y=%v", i, t[i], y[i])
		}
		s = append(s, Point{T: t[i], Y: y[i]})
	}
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].T < s[j].T
	})
	return s, nil
}

// Times returns the time column.
func (s Series) Times() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.T
	}
	return out
}

// Values returns the OD column.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Y
	}
	return out
}

// Subset returns the points at the given indices, in index order.
func (s Series) Subset(indices []int) Series {
	out := make(Series, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(s) {
			continue
		}
		out = append(out, s[idx])
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func maxValue(values []float64) float64 {
	max := math.Inf(-1)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}
