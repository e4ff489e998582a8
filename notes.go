package growthcurve

import (
	"fmt"
	"strings"
)

// BuildBaselineNotes renders a plain-text summary of a baseline result.
func BuildBaselineNotes(label string, series Series, res BaselineResult) string {
	var b strings.Builder

	if label != "" {
		fmt.Fprintf(&b, "Well: %s\n", label)
	}
	fmt.Fprintf(&b, "Readings: %d | Status: %s\n", len(series), res.Status)
	fmt.Fprintf(&b, "Baseline points: %d\n", len(res.Indices))
	if res.Level != nil {
		fmt.Fprintf(&b, "Baseline level: %.5f\n", *res.Level)
	} else {
		b.WriteString("Baseline level: unavailable\n")
	}
	if len(res.Indices) > 0 {
		pts := series.Subset(res.Indices)
		fmt.Fprintf(&b, "Baseline times: %s\n", formatFloats(pts.Times(), 1))
		fmt.Fprintf(&b, "Baseline OD: %s\n", formatFloats(pts.Values(), 4))
	}
	fmt.Fprintf(&b, "Excluded points: %d\n", len(res.Excluded))
	if len(res.Excluded) > 0 {
		pts := series.Subset(res.Excluded)
		fmt.Fprintf(&b, "Excluded times: %s\n", formatFloats(pts.Times(), 1))
		fmt.Fprintf(&b, "Excluded OD: %s\n", formatFloats(pts.Values(), 4))
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(&b, "Note: %s\n", d)
	}
	return strings.TrimSpace(b.String())
}

// BuildLogPhaseNotes renders a plain-text summary of a log-phase result.
func BuildLogPhaseNotes(label string, series Series, res LogPhaseResult) string {
	var b strings.Builder

	if label != "" {
		fmt.Fprintf(&b, "Curve: %s\n", label)
	}
	fmt.Fprintf(&b, "Readings: %d | Status: %s\n", len(series), res.Status)
	fmt.Fprintf(&b, "µ_max: %s\n", formatOptional(res.MuMax, 4, " 1/min"))
	fmt.Fprintf(&b, "µ_mean (log): %s\n", formatOptional(res.MuMean, 4, " 1/min"))
	if td, ok := res.DoublingTime(); ok {
		fmt.Fprintf(&b, "Doubling time: %s\n", formatMinutes(td))
	}
	fmt.Fprintf(&b, "K estimate: %s\n", formatOptional(res.KEstimate, 3, ""))

	fmt.Fprintf(&b, "Log-phase points: %d\n", len(res.Indices))
	if len(res.Indices) > 0 {
		pts := series.Subset(res.Indices)
		fmt.Fprintf(&b, "Log-phase window: %.1f to %.1f min\n", pts[0].T, pts[len(pts)-1].T)
		fmt.Fprintf(&b, "Log-phase OD: %s\n", formatFloats(pts.Values(), 4))
	}
	if len(res.Windows) > 0 {
		selected := 0
		for _, w := range res.Windows {
			if w.Selected {
				selected++
			}
		}
		fmt.Fprintf(&b, "Qualifying windows: %d (%d selected)\n", len(res.Windows), selected)
	}
	return strings.TrimSpace(b.String())
}

func formatOptional(v *float64, decimals int, unit string) string {
	if v == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.*f%s", decimals, *v, unit)
}

func formatFloats(values []float64, decimals int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.*f", decimals, v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
