package payload

import (
	"encoding/json"
	"fmt"
	"sort"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
)

// XY is one point of a smoothed curve.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HistoryEntry is one processing variant of a sample curve.
type HistoryEntry struct {
	Label  string `json:"label"`
	Points []XY   `json:"points"`
}

// SampleWell links a smoothed sample back to a plate well.
type SampleWell struct {
	Well      string `json:"well"`
	Replicate Label  `json:"replicate"`
}

// SmoothedSample is one sample with its processing history.
type SmoothedSample struct {
	Sample  string         `json:"sample"`
	Wells   []SampleWell   `json:"wells"`
	History []HistoryEntry `json:"history"`
}

// Smoothed is a parsed smoothed-curves document.
type Smoothed struct {
	Samples []SmoothedSample `json:"samples"`
}

// Curve is one selected history variant as an ordered series.
type Curve struct {
	Sample string
	Label  string
	Wells  []string
	Series growthcurve.Series
}

// ParseSmoothed decodes a smoothed-curves document.
func ParseSmoothed(data []byte) (*Smoothed, error) {
	var s Smoothed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode smoothed json: %w", err)
	}
	return &s, nil
}

// LoadSmoothed reads and parses a smoothed-curves file.
func LoadSmoothed(path string) (*Smoothed, error) {
	data, err := readFile(path, "smoothed")
	if err != nil {
		return nil, err
	}
	return ParseSmoothed(data)
}

// SampleNames returns the unique sample names, sorted.
func (s *Smoothed) SampleNames() []string {
	names := make([]string, 0, len(s.Samples))
	for _, sample := range s.Samples {
		names = append(names, sample.Sample)
	}
	names = dedupeStrings(names)
	sort.Strings(names)
	return names
}

// Sample returns the first sample with the given name.
func (s *Smoothed) Sample(name string) (*SmoothedSample, error) {
	for i := range s.Samples {
		if s.Samples[i].Sample == name {
			return &s.Samples[i], nil
		}
	}
	return nil, fmt.Errorf("sample %q: %w", name, ErrNotFound)
}

// HistoryLabels lists the non-empty history labels in document order.
func (s *SmoothedSample) HistoryLabels() []string {
	labels := make([]string, 0, len(s.History))
	for _, h := range s.History {
		if h.Label != "" {
			labels = append(labels, h.Label)
		}
	}
	return labels
}

// WellLabels renders the sample's wells as "A1 (rep 1)".
func (s *SmoothedSample) WellLabels() []string {
	out := make([]string, 0, len(s.Wells))
	for _, w := range s.Wells {
		if w.Replicate != "" {
			out = append(out, fmt.Sprintf("%s (rep %s)", w.Well, w.Replicate))
		} else {
			out = append(out, w.Well)
		}
	}
	return out
}

// Curve returns the history variant with the given label as a time-sorted
// series. An empty label selects the last variant.
func (s *SmoothedSample) Curve(label string) (*Curve, error) {
	if len(s.History) == 0 {
		return nil, fmt.Errorf("sample %q has no history", s.Sample)
	}
	var selected *HistoryEntry
	if label == "" {
		selected = &s.History[len(s.History)-1]
	} else {
		for i := range s.History {
			if s.History[i].Label == label {
				selected = &s.History[i]
				break
			}
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("sample %q history %q: %w", s.Sample, label, ErrNotFound)
	}
	if len(selected.Points) == 0 {
		return nil, fmt.Errorf("sample %q history %q has no points", s.Sample, selected.Label)
	}

	t := make([]float64, len(selected.Points))
	y := make([]float64, len(selected.Points))
	for i, p := range selected.Points {
		t[i] = p.X
		y[i] = p.Y
	}
	series, err := growthcurve.NewSeries(t, y)
	if err != nil {
		return nil, fmt.Errorf("sample %q history %q: %w", s.Sample, selected.Label, err)
	}
	return &Curve{
		Sample: s.Sample,
		Label:  selected.Label,
		Wells:  s.WellLabels(),
		Series: series,
	}, nil
}
