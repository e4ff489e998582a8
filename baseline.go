package growthcurve

import (
	"fmt"
	"math"
	"sort"
)

// DetectBaseline finds the pre-growth blank level of a well, the contiguous
// run of readings sitting on it, and the readings that should be excluded
// from downstream fitting (early transients and downward spikes).
//
// Too little early data is not an error: the result carries
// StatusInsufficientData and empty fields. Only invalid options fail.
func DetectBaseline(series Series, opts BaselineOptions) (BaselineResult, error) {
	if err := opts.Validate(); err != nil {
		return BaselineResult{}, err
	}
	res := BaselineResult{
		Status:   StatusInsufficientData,
		Indices:  []int{},
		Excluded: []int{},
	}

	pre := make([]int, 0, len(series))
	for i, p := range series {
		if p.T <= opts.PreWindowEnd {
			pre = append(pre, i)
		}
	}
	if len(pre) == 0 || len(pre) < opts.MinRunLength {
		return res, nil
	}

	level := histogramMode(series, pre, opts.BinWidth)
	res.Level = floatPtr(level)

	candidates := make([]int, 0, len(pre))
	for _, idx := range pre {
		if math.Abs(series[idx].Y-level) <= opts.Tolerance {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		res.Status = StatusNoCandidates
		return res, nil
	}

	baseline := longestRun(consecutiveRuns(candidates), opts.MinRunLength)
	if baseline == nil {
		baseline = candidates
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
			"no run of %d consecutive readings near the baseline level; using all %d candidates",
			opts.MinRunLength, len(candidates)))
	}
	res.Indices = append([]int(nil), baseline...)
	res.Status = StatusOK

	excluded := make(map[int]struct{})
	first := baseline[0]
	for _, idx := range pre {
		if idx < first && math.Abs(series[idx].Y-level) > opts.Tolerance {
			excluded[idx] = struct{}{}
		}
	}

	if opts.Cleanup != CleanupNone {
		domain := make([]int, 0, len(series)-first)
		for i := first; i < len(series); i++ {
			if _, skip := excluded[i]; skip {
				continue
			}
			if series[i].T <= opts.MonotoneTimeLimit {
				domain = append(domain, i)
			}
		}
		values := make([]float64, len(domain))
		for k, idx := range domain {
			values[k] = series[idx].Y
		}
		var keep []bool
		if opts.Cleanup == CleanupGreedy {
			keep = greedyMonotone(values, opts.MonotoneEpsilon)
		} else {
			keep = longestNonDecreasing(values, opts.MonotoneEpsilon)
		}
		for k, idx := range domain {
			if !keep[k] {
				excluded[idx] = struct{}{}
			}
		}
	}

	for idx := range excluded {
		res.Excluded = append(res.Excluded, idx)
	}
	sort.Ints(res.Excluded)
	return res, nil
}

// histogramMode bins the values at indices into fixed-width bins anchored at
// their minimum and returns the median of the most populated bin. Ties go to
// the bin encountered first.
func histogramMode(series Series, indices []int, binWidth float64) float64 {
	minY := math.Inf(1)
	for _, idx := range indices {
		if series[idx].Y < minY {
			minY = series[idx].Y
		}
	}

	// Bin numbers stay float64: (max-min)/binWidth may exceed the int range.
	bins := make(map[float64][]float64)
	order := make([]float64, 0)
	for _, idx := range indices {
		bin := math.Floor((series[idx].Y - minY) / binWidth)
		if _, seen := bins[bin]; !seen {
			order = append(order, bin)
		}
		bins[bin] = append(bins[bin], series[idx].Y)
	}

	best := order[0]
	for _, bin := range order[1:] {
		if len(bins[bin]) > len(bins[best]) {
			best = bin
		}
	}
	return median(bins[best])
}

// consecutiveRuns splits ascending indices into maximal runs of adjacent integers.
func consecutiveRuns(indices []int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	runs := make([][]int, 0)
	current := []int{indices[0]}
	for _, idx := range indices[1:] {
		if idx == current[len(current)-1]+1 {
			current = append(current, idx)
			continue
		}
		runs = append(runs, current)
		current = []int{idx}
	}
	return append(runs, current)
}

// longestRun returns the first longest run of at least minLen elements, or nil.
func longestRun(runs [][]int, minLen int) []int {
	var best []int
	for _, run := range runs {
		if len(run) >= minLen && len(run) > len(best) {
			best = run
		}
	}
	return best
}

// longestNonDecreasing marks the members of one longest subsequence where each
// step satisfies prev <= next+eps. Predecessors and the chain end are the
// earliest positions achieving the optimum, so the result is deterministic.
func longestNonDecreasing(values []float64, eps float64) []bool {
	keep := make([]bool, len(values))
	if len(values) <= 1 {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}

	length := make([]int, len(values))
	prev := make([]int, len(values))
	bestEnd := 0
	for j := range values {
		length[j] = 1
		prev[j] = -1
		for i := 0; i < j; i++ {
			if values[i] <= values[j]+eps && length[i]+1 > length[j] {
				length[j] = length[i] + 1
				prev[j] = i
			}
		}
		if length[j] > length[bestEnd] {
			bestEnd = j
		}
	}

	for k := bestEnd; k != -1; k = prev[k] {
		keep[k] = true
	}
	return keep
}

// greedyMonotone keeps a point unless it drops more than eps below the running
// maximum of the points kept so far.
func greedyMonotone(values []float64, eps float64) []bool {
	keep := make([]bool, len(values))
	running := math.Inf(-1)
	for i, v := range values {
		if v < running-eps {
			continue
		}
		keep[i] = true
		if v > running {
			running = v
		}
	}
	return keep
}
