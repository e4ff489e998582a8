package payload

import (
	"encoding/json"
	"fmt"
	"sort"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
)

// Row is one raw plate-reader reading.
type Row struct {
	Well      string  `json:"well"`
	Sample    string  `json:"sample"`
	Replicate Label   `json:"replicate"`
	TimeMin   float64 `json:"time_min"`
	OD600     float64 `json:"val_od600"`
}

// Dataset holds the raw rows of a plate.
type Dataset struct {
	Rows []Row `json:"rows"`
}

// SampleMapping assigns wells to a named sample.
type SampleMapping struct {
	Name  string   `json:"name"`
	Wells []string `json:"wells"`
}

// Mapping is the well layout of an assignment.
type Mapping struct {
	Samples []SampleMapping `json:"samples"`
}

// AssignmentEntry is one entry of the assignments array.
type AssignmentEntry struct {
	Dataset *Dataset `json:"dataset,omitempty"`
	Mapping *Mapping `json:"mapping,omitempty"`
}

// Assignment is a parsed assignment document.
type Assignment struct {
	Dataset     *Dataset          `json:"dataset,omitempty"`
	Assignments []AssignmentEntry `json:"assignments,omitempty"`
}

// WellTrace is the ordered raw series of one well.
type WellTrace struct {
	Well       string
	Sample     string
	Replicates []string
	Series     growthcurve.Series
}

// ParseAssignment decodes an assignment document. The document must carry
// dataset.rows at the root or inside one of its assignments.
func ParseAssignment(data []byte) (*Assignment, error) {
	var a Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment json: %w", err)
	}
	if a.dataset() == nil {
		return nil, fmt.Errorf("assignment has no dataset.rows")
	}
	return &a, nil
}

// LoadAssignment reads and parses an assignment file.
func LoadAssignment(path string) (*Assignment, error) {
	data, err := readFile(path, "assignment")
	if err != nil {
		return nil, err
	}
	return ParseAssignment(data)
}

func (a *Assignment) dataset() *Dataset {
	if a.Dataset != nil && len(a.Dataset.Rows) > 0 {
		return a.Dataset
	}
	for _, entry := range a.Assignments {
		if entry.Dataset != nil && len(entry.Dataset.Rows) > 0 {
			return entry.Dataset
		}
	}
	if a.Dataset != nil && a.Dataset.Rows != nil {
		return a.Dataset
	}
	return nil
}

// Rows returns the raw dataset rows in document order.
func (a *Assignment) Rows() []Row {
	ds := a.dataset()
	if ds == nil {
		return nil
	}
	return ds.Rows
}

// SampleWells maps each sample to its sorted wells. The first assignment's
// mapping is used when present, otherwise the sample field of the rows.
func (a *Assignment) SampleWells() map[string][]string {
	sets := make(map[string]map[string]struct{})
	add := func(sample, well string) {
		if sample == "" || well == "" {
			return
		}
		if sets[sample] == nil {
			sets[sample] = make(map[string]struct{})
		}
		sets[sample][well] = struct{}{}
	}

	var mapped []SampleMapping
	if len(a.Assignments) > 0 && a.Assignments[0].Mapping != nil {
		mapped = a.Assignments[0].Mapping.Samples
	}
	if len(mapped) > 0 {
		for _, s := range mapped {
			for _, w := range s.Wells {
				add(s.Name, w)
			}
		}
	} else {
		for _, r := range a.Rows() {
			add(r.Sample, r.Well)
		}
	}

	out := make(map[string][]string, len(sets))
	for sample, wells := range sets {
		out[sample] = sortedKeys(wells)
	}
	return out
}

// WellSamples maps each well to its sample, preferring the assignment
// mapping over the sample field of the rows.
func (a *Assignment) WellSamples() map[string]string {
	out := make(map[string]string)
	for _, r := range a.Rows() {
		if r.Well != "" && r.Sample != "" {
			if _, ok := out[r.Well]; !ok {
				out[r.Well] = r.Sample
			}
		}
	}
	for sample, wells := range a.SampleWells() {
		for _, w := range wells {
			out[w] = sample
		}
	}
	return out
}

// Wells returns every well that has at least one row, sorted.
func (a *Assignment) Wells() []string {
	set := make(map[string]struct{})
	for _, r := range a.Rows() {
		if r.Well != "" {
			set[r.Well] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// WellSeries returns the time-sorted readings of a single well. Replicate
// rows in the same well are kept as separate points.
func (a *Assignment) WellSeries(well string) (*WellTrace, error) {
	trace := &WellTrace{Well: well}
	t := make([]float64, 0)
	y := make([]float64, 0)
	replicates := make([]string, 0)
	for _, r := range a.Rows() {
		if r.Well != well {
			continue
		}
		t = append(t, r.TimeMin)
		y = append(y, r.OD600)
		replicates = append(replicates, string(r.Replicate))
		if trace.Sample == "" {
			trace.Sample = r.Sample
		}
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("well %s: %w", well, ErrNotFound)
	}
	series, err := growthcurve.NewSeries(t, y)
	if err != nil {
		return nil, fmt.Errorf("well %s: %w", well, err)
	}
	trace.Series = series
	trace.Replicates = dedupeStrings(replicates)
	sort.Strings(trace.Replicates)
	return trace, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
