package growthcurve

import "fmt"

// Config bundles the options of every analysis step.
type Config struct {
	Baseline  BaselineOptions  `yaml:"baseline" json:"baseline"`
	LogPhase  LogPhaseOptions  `yaml:"log_phase" json:"log_phase"`
	Structure StructureOptions `yaml:"structure" json:"structure"`
}

// DefaultConfig returns the default options of every analysis step.
func DefaultConfig() Config {
	return Config{
		Baseline:  DefaultBaselineOptions(),
		LogPhase:  DefaultLogPhaseOptions(),
		Structure: DefaultStructureOptions(),
	}
}

// Validate checks every options block.
func (c Config) Validate() error {
	if err := c.Baseline.Validate(); err != nil {
		return err
	}
	if err := c.LogPhase.Validate(); err != nil {
		return err
	}
	return c.Structure.Validate()
}

// WellAnalysis is the baseline view of one raw well trace.
type WellAnalysis struct {
	Well       string         `json:"well"`
	Sample     string         `json:"sample,omitempty"`
	Replicates []string       `json:"replicates,omitempty"`
	PointCount int            `json:"point_count"`
	Points     Series         `json:"-"`
	Baseline   BaselineResult `json:"baseline"`
	Notes      string         `json:"notes"`
}

// CurveAnalysis is the growth view of one smoothed sample curve.
type CurveAnalysis struct {
	Sample       string          `json:"sample"`
	HistoryLabel string          `json:"history_label,omitempty"`
	Wells        []string        `json:"wells,omitempty"`
	PointCount   int             `json:"point_count"`
	Points       Series          `json:"-"`
	LogPhase     LogPhaseResult  `json:"log_phase"`
	Structure    GrowthStructure `json:"structure"`
	Notes        string          `json:"notes"`
}

// AnalyzeWell runs baseline detection on a raw well trace.
func AnalyzeWell(well string, series Series, opts BaselineOptions) (*WellAnalysis, error) {
	res, err := DetectBaseline(series, opts)
	if err != nil {
		return nil, fmt.Errorf("baseline for well %s: %w", well, err)
	}
	return &WellAnalysis{
		Well:       well,
		PointCount: len(series),
		Points:     series,
		Baseline:   res,
		Notes:      BuildBaselineNotes(well, series, res),
	}, nil
}

// AnalyzeCurve runs log-phase detection and phase segmentation on a smoothed
// curve. baseline may be nil; see InferGrowthStructure.
func AnalyzeCurve(sample string, series Series, baseline *BaselineResult, cfg Config) (*CurveAnalysis, error) {
	res, err := DetectLogPhase(series, cfg.LogPhase)
	if err != nil {
		return nil, fmt.Errorf("log phase for sample %s: %w", sample, err)
	}
	structure, err := InferGrowthStructure(series, baseline, res, cfg.Structure)
	if err != nil {
		return nil, fmt.Errorf("growth structure for sample %s: %w", sample, err)
	}

	notes := BuildLogPhaseNotes(sample, series, res)
	if structure.CanonicalLabel != "" {
		notes += fmt.Sprintf("\nStructure: %s (confidence %.0f%%)", structure.CanonicalLabel, structure.Confidence*100.0)
	}
	return &CurveAnalysis{
		Sample:     sample,
		PointCount: len(series),
		Points:     series,
		LogPhase:   res,
		Structure:  structure,
		Notes:      notes,
	}, nil
}
