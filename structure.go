package growthcurve

import (
	"fmt"
	"math"
	"strings"
)

const growthStructureSchemaVersion = "growth_structure_v1"

// Phase names used in GrowthStructure.
const (
	PhaseLag        = "lag"
	PhaseLog        = "log"
	PhaseTransition = "transition"
	PhaseStationary = "stationary"
)

// GrowthStructure is a coarse segmentation of one curve into growth phases.
type GrowthStructure struct {
	SchemaVersion       string        `json:"schema_version"`
	Confidence          float64       `json:"confidence"`
	CanonicalLabel      string        `json:"canonical_label"`
	Phases              []GrowthPhase `json:"phases,omitempty"`
	LagMinutes          *float64      `json:"lag_minutes,omitempty"`
	DoublingTimeMinutes *float64      `json:"doubling_time_minutes,omitempty"`
	MuMax               *float64      `json:"mu_max,omitempty"`
	KEstimate           *float64      `json:"k_estimate,omitempty"`
}

// GrowthPhase is one contiguous span of readings.
type GrowthPhase struct {
	Phase           string  `json:"phase"`
	StartIndex      int     `json:"start_index"`
	EndIndex        int     `json:"end_index"`
	StartMinutes    float64 `json:"start_minutes"`
	EndMinutes      float64 `json:"end_minutes"`
	DurationMinutes float64 `json:"duration_minutes"`
	StartOD         float64 `json:"start_od"`
	EndOD           float64 `json:"end_od"`
	Description     string  `json:"description"`
}

// InferGrowthStructure derives lag, log, transition and stationary spans from
// a log-phase result. baseline is optional and only used when it was computed
// on the same series; it moves the start of the lag span to the first
// baseline reading. No growth model is fitted.
func InferGrowthStructure(series Series, baseline *BaselineResult, logPhase LogPhaseResult, opts StructureOptions) (GrowthStructure, error) {
	if err := opts.Validate(); err != nil {
		return GrowthStructure{}, err
	}
	gs := GrowthStructure{
		SchemaVersion: growthStructureSchemaVersion,
		Confidence:    0.25,
		MuMax:         logPhase.MuMax,
		KEstimate:     logPhase.KEstimate,
	}
	if len(series) == 0 {
		gs.Confidence = 0
		gs.CanonicalLabel = "unable to infer growth structure (no readings)"
		return gs, nil
	}
	if td, ok := logPhase.DoublingTime(); ok {
		gs.DoublingTimeMinutes = floatPtr(td)
	}

	logStart, logEnd := -1, -1
	if n := len(logPhase.Indices); n > 0 && logPhase.Indices[n-1] < len(series) {
		logStart, logEnd = logPhase.Indices[0], logPhase.Indices[n-1]
	}
	if logStart < 0 {
		gs.CanonicalLabel = "no exponential phase detected"
		return gs, nil
	}

	addPhase := func(phase string, start, end int, desc string) {
		if start < 0 || end < start || start >= len(series) {
			return
		}
		if end >= len(series) {
			end = len(series) - 1
		}
		gs.Phases = append(gs.Phases, buildPhase(series, phase, start, end, desc))
	}

	lagStart := 0
	if baseline != nil && baseline.Status == StatusOK && len(baseline.Indices) > 0 &&
		baseline.Indices[0] < logStart {
		lagStart = baseline.Indices[0]
		gs.Confidence += 0.05
	}
	if lagStart < logStart {
		addPhase(PhaseLag, lagStart, logStart-1, "Adaptation before exponential growth")
		gs.LagMinutes = floatPtr(series[logStart].T - series[lagStart].T)
		gs.Confidence += 0.08
	}

	logDesc := "Exponential growth"
	if logPhase.MuMax != nil {
		logDesc = fmt.Sprintf("Exponential growth at µ_max %.4f 1/min", *logPhase.MuMax)
	}
	addPhase(PhaseLog, logStart, logEnd, logDesc)
	gs.Confidence += 0.36
	selected := 0
	for _, w := range logPhase.Windows {
		if w.Selected {
			selected++
		}
	}
	if selected >= 3 {
		gs.Confidence += 0.08
	}

	stationaryStart := -1
	if logPhase.KEstimate != nil && *logPhase.KEstimate > 0 {
		threshold := opts.StationaryFracK * *logPhase.KEstimate
		for i := logEnd + 1; i < len(series); i++ {
			if series[i].Y >= threshold {
				stationaryStart = i
				break
			}
		}
	}
	transitionEnd := len(series) - 1
	if stationaryStart >= 0 {
		transitionEnd = stationaryStart - 1
	}
	if logEnd+1 <= transitionEnd {
		addPhase(PhaseTransition, logEnd+1, transitionEnd, "Deceleration towards the plateau")
	}
	if stationaryStart >= 0 {
		addPhase(PhaseStationary, stationaryStart, len(series)-1,
			fmt.Sprintf("Plateau near K %.3f", *logPhase.KEstimate))
		gs.Confidence += 0.08
	}

	if len(gs.Phases) >= 3 {
		gs.Confidence += 0.05
	}
	if gs.Confidence > 0.99 {
		gs.Confidence = 0.99
	}
	gs.CanonicalLabel = buildCanonicalGrowthLabel(gs)
	return gs, nil
}

func buildPhase(series Series, phase string, start, end int, description string) GrowthPhase {
	return GrowthPhase{
		Phase:           phase,
		StartIndex:      start,
		EndIndex:        end,
		StartMinutes:    series[start].T,
		EndMinutes:      series[end].T,
		DurationMinutes: series[end].T - series[start].T,
		StartOD:         series[start].Y,
		EndOD:           series[end].Y,
		Description:     description,
	}
}

func buildCanonicalGrowthLabel(gs GrowthStructure) string {
	parts := make([]string, 0, len(gs.Phases))
	for _, p := range gs.Phases {
		switch p.Phase {
		case PhaseLag:
			parts = append(parts, fmt.Sprintf("lag %s", formatMinutes(p.DurationMinutes)))
		case PhaseLog:
			label := fmt.Sprintf("log %s", formatMinutes(p.DurationMinutes))
			if gs.DoublingTimeMinutes != nil {
				label += fmt.Sprintf(" (doubling %s)", formatMinutes(*gs.DoublingTimeMinutes))
			}
			parts = append(parts, label)
		case PhaseTransition:
			parts = append(parts, fmt.Sprintf("transition %s", formatMinutes(p.DurationMinutes)))
		case PhaseStationary:
			parts = append(parts, fmt.Sprintf("stationary OD %.3f", p.StartOD))
		}
	}
	if len(parts) == 0 {
		return "unclassified growth structure"
	}
	return strings.Join(parts, " + ")
}

// formatMinutes renders a duration given in minutes, e.g. "2h05m" or "13.9m".
func formatMinutes(minutes float64) string {
	if minutes <= 0 || !isFinite(minutes) {
		return "0m"
	}
	if minutes < 60 {
		if minutes == math.Trunc(minutes) {
			return fmt.Sprintf("%.0fm", minutes)
		}
		return fmt.Sprintf("%.1fm", minutes)
	}
	m := int(math.Round(minutes))
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
