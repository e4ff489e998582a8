package growthcurve

import "math"

// DetectLogPhase locates the exponential growth phase of a smoothed,
// blank-corrected curve by sliding a log-linear regression window over the
// readings above ODMin and keeping the windows whose slope is close to the
// steepest one. Windows that reach into the plateau are skipped.
func DetectLogPhase(series Series, opts LogPhaseOptions) (LogPhaseResult, error) {
	if err := opts.Validate(); err != nil {
		return LogPhaseResult{}, err
	}
	res := LogPhaseResult{
		Status:  StatusInsufficientData,
		Indices: []int{},
	}

	valid := make([]int, 0, len(series))
	for i, p := range series {
		if p.Y >= opts.ODMin {
			valid = append(valid, i)
		}
	}
	if len(valid)-1 < opts.WindowSize {
		return res, nil
	}

	tail := valid
	if len(tail) > opts.PlateauTail {
		tail = tail[len(tail)-opts.PlateauTail:]
	}
	k := median(series.Subset(tail).Values())
	if k <= 0 {
		res.Status = StatusNonPositivePlateau
		return res, nil
	}
	res.KEstimate = floatPtr(k)

	ceiling := opts.FracKMax * k
	windows := make([]Window, 0)
	for start := 0; start+opts.WindowSize <= len(valid); start++ {
		idxs := valid[start : start+opts.WindowSize]
		w, ok := fitWindow(series, idxs, ceiling)
		if !ok || w.Slope <= 0 || w.R2 < opts.R2Min {
			continue
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		res.Status = StatusNoLogPhase
		return res, nil
	}

	best := 0
	for i, w := range windows {
		if w.Slope > windows[best].Slope {
			best = i
		}
	}
	muMax := windows[best].Slope

	lo, hi := opts.MuRelMin*muMax, opts.MuRelMax*muMax
	anySelected := false
	for i := range windows {
		if windows[i].Slope >= lo && windows[i].Slope <= hi {
			windows[i].Selected = true
			anySelected = true
		}
	}
	if !anySelected {
		windows[best].Selected = true
	}

	marked := make([]bool, len(series))
	for _, w := range windows {
		if !w.Selected {
			continue
		}
		for i := w.Start; i <= w.End; i++ {
			marked[i] = true
		}
	}
	runStart, runEnd := longestMarkedRun(marked)
	for i := runStart; i <= runEnd; i++ {
		res.Indices = append(res.Indices, i)
	}

	slopes := make([]float64, 0)
	for _, w := range windows {
		if w.Selected && w.overlaps(runStart, runEnd) {
			slopes = append(slopes, w.Slope)
		}
	}
	muMean := muMax
	if len(slopes) > 0 {
		muMean = average(slopes)
	}

	res.Status = StatusOK
	res.MuMax = floatPtr(muMax)
	res.MuMean = floatPtr(muMean)
	res.Windows = windows
	return res, nil
}

// fitWindow regresses ln(y) on t over idxs. It reports false when the window
// touches the plateau ceiling, holds a non-positive value or spans no time.
func fitWindow(series Series, idxs []int, ceiling float64) (Window, bool) {
	pts := series.Subset(idxs)
	if maxValue(pts.Values()) >= ceiling {
		return Window{}, false
	}
	logs := make([]float64, len(pts))
	for i, p := range pts {
		if p.Y <= 0 {
			return Window{}, false
		}
		logs[i] = math.Log(p.Y)
	}
	slope, intercept, r2, ok := linearRegression(pts.Times(), logs)
	if !ok {
		return Window{}, false
	}
	return Window{
		Start:     idxs[0],
		End:       idxs[len(idxs)-1],
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
	}, true
}

// linearRegression is an ordinary least squares fit of y on x. R² is 1 when
// y has no variance; ok is false when x has none.
func linearRegression(x, y []float64) (slope, intercept, r2 float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, 0, 0, false
	}
	mx, my := average(x), average(y)
	var sxx, sxy float64
	for i := range x {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx == 0 {
		return 0, 0, 0, false
	}
	slope = sxy / sxx
	intercept = my - slope*mx

	var ssRes, ssTot float64
	for i := range x {
		fit := intercept + slope*x[i]
		ssRes += (y[i] - fit) * (y[i] - fit)
		ssTot += (y[i] - my) * (y[i] - my)
	}
	if ssTot == 0 {
		return slope, intercept, 1, true
	}
	return slope, intercept, 1 - ssRes/ssTot, true
}

// longestMarkedRun returns the bounds of the first longest run of true values.
func longestMarkedRun(marked []bool) (int, int) {
	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(marked); i++ {
		if i < len(marked) && marked[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start > bestLen {
				bestStart, bestLen = start, i-start
			}
			start = -1
		}
	}
	return bestStart, bestStart + bestLen - 1
}
