package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
)

const (
	// FormatVersion identifies the on-disk schema of a plate analysis bundle.
	FormatVersion = "growth_plate_v1"

	manifestFile        = "manifest.json"
	baselineSummaryFile = "baseline_summary.json"
	logPhaseSummaryFile = "log_phase_summary.json"
	annotatedPointsBase = "annotated_points"
	notesFile           = "analysis_notes.md"
)

// Options configures a plate analysis run that reads and writes files.
type Options struct {
	AssignmentPath string
	SmoothedPath   string
	OutDir         string
	Format         string // parquet|csv
	Overwrite      bool
	// Workers bounds concurrent engine calls; 0 uses GOMAXPROCS.
	Workers int
	// Wells restricts baseline analysis to these wells; empty means all.
	Wells []string
	// HistoryLabel picks the smoothed variant; empty means the last one.
	HistoryLabel string
	Analysis     growthcurve.Config
	Logger       logrus.FieldLogger
}

// Result returns generated output paths.
type Result struct {
	OutputDir           string   `json:"output_dir"`
	ManifestPath        string   `json:"manifest_path"`
	BaselineSummaryPath string   `json:"baseline_summary_path,omitempty"`
	LogPhaseSummaryPath string   `json:"log_phase_summary_path,omitempty"`
	AnnotatedPointsPath string   `json:"annotated_points_path"`
	NotesPath           string   `json:"notes_path"`
	WellCount           int      `json:"well_count"`
	SampleCount         int      `json:"sample_count"`
	Warnings            []string `json:"warnings,omitempty"`
}

// BytesOptions configures an in-memory run over already loaded payloads.
type BytesOptions struct {
	AssignmentName string
	AssignmentData []byte
	SmoothedName   string
	SmoothedData   []byte
	Format         string
	Workers        int
	Wells          []string
	HistoryLabel   string
	Analysis       growthcurve.Config
	Logger         logrus.FieldLogger
}

// BytesResult holds every artifact keyed by file name.
type BytesResult struct {
	Files       map[string][]byte
	WellCount   int
	SampleCount int
	Warnings    []string
}

// Manifest describes one analysis bundle.
type Manifest struct {
	FormatVersion string             `json:"format_version"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Sources       []SourceInfo       `json:"sources"`
	Artifacts     []string           `json:"artifacts"`
	WellCount     int                `json:"well_count"`
	SampleCount   int                `json:"sample_count"`
	Config        growthcurve.Config `json:"config"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// SourceInfo identifies one input payload.
type SourceInfo struct {
	Kind      string `json:"kind"` // assignment|smoothed
	Name      string `json:"name"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}

// BaselineSummaryFile lists the baseline analysis of every well.
type BaselineSummaryFile struct {
	Wells []growthcurve.WellAnalysis `json:"wells"`
}

// LogPhaseSummaryFile lists the growth analysis of every sample curve.
type LogPhaseSummaryFile struct {
	HistoryLabel string                      `json:"history_label,omitempty"`
	Samples      []growthcurve.CurveAnalysis `json:"samples"`
}

// AnnotatedPoint is one reading with the flags assigned by the engines.
type AnnotatedPoint struct {
	Source   string  `json:"source"` // well or sample name
	Kind     string  `json:"kind"`   // raw|smoothed
	Index    int     `json:"index"`
	TimeMin  float64 `json:"time_min"`
	OD       float64 `json:"od"`
	Baseline bool    `json:"baseline"`
	Excluded bool    `json:"excluded"`
	LogPhase bool    `json:"log_phase"`
	Phase    string  `json:"phase,omitempty"`
	// BaselineLevel is the blank level of the well; nil for smoothed points.
	BaselineLevel *float64 `json:"baseline_level,omitempty"`
}
