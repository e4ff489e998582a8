package growthcurve

import "math"

// Status tells callers why a result is complete, partial or empty.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusInsufficientData   Status = "insufficient_data"
	StatusNoCandidates       Status = "no_candidates"
	StatusNonPositivePlateau Status = "non_positive_plateau"
	StatusNoLogPhase         Status = "no_log_phase"
)

// BaselineResult is the outcome of DetectBaseline.
type BaselineResult struct {
	Status Status `json:"status"`
	// Indices are the baseline points, ascending.
	Indices []int `json:"indices"`
	// Level is the estimated blank OD; nil when it could not be determined.
	Level *float64 `json:"level,omitempty"`
	// Excluded are points recommended for exclusion from fitting, ascending.
	Excluded    []int    `json:"excluded"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Window is one regression window that passed the log-linear quality gates.
type Window struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	Selected  bool    `json:"selected"`
}

// overlaps reports whether the window's index span touches [lo, hi].
func (w Window) overlaps(lo, hi int) bool {
	return !(w.End < lo || w.Start > hi)
}

// LogPhaseResult is the outcome of DetectLogPhase.
type LogPhaseResult struct {
	Status Status `json:"status"`
	// Indices are the points of the chosen exponential run, ascending and contiguous.
	Indices   []int    `json:"indices"`
	MuMax     *float64 `json:"mu_max,omitempty"`
	MuMean    *float64 `json:"mu_mean,omitempty"`
	KEstimate *float64 `json:"k_estimate,omitempty"`
	Windows   []Window `json:"windows,omitempty"`
}

// DoublingTime returns ln(2)/µ_max in the series time unit.
func (r LogPhaseResult) DoublingTime() (float64, bool) {
	if r.MuMax == nil || *r.MuMax <= 0 {
		return 0, false
	}
	return math.Ln2 / *r.MuMax, true
}
