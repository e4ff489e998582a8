package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/payload"
)

// Run analyzes the configured payload files and writes the artifact bundle to OutDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if strings.TrimSpace(opts.AssignmentPath) == "" && strings.TrimSpace(opts.SmoothedPath) == "" {
		return nil, fmt.Errorf("an assignment or smoothed path is required")
	}

	bopts := BytesOptions{
		Format:       opts.Format,
		Workers:      opts.Workers,
		Wells:        opts.Wells,
		HistoryLabel: opts.HistoryLabel,
		Analysis:     opts.Analysis,
		Logger:       opts.Logger,
	}
	if opts.AssignmentPath != "" {
		data, err := os.ReadFile(opts.AssignmentPath)
		if err != nil {
			return nil, fmt.Errorf("read assignment file: %w", err)
		}
		bopts.AssignmentName = filepath.Base(opts.AssignmentPath)
		bopts.AssignmentData = data
	}
	if opts.SmoothedPath != "" {
		data, err := os.ReadFile(opts.SmoothedPath)
		if err != nil {
			return nil, fmt.Errorf("read smoothed file: %w", err)
		}
		bopts.SmoothedName = filepath.Base(opts.SmoothedPath)
		bopts.SmoothedData = data
	}

	out, err := RunBytes(ctx, bopts)
	if err != nil {
		return nil, err
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}
	if err := removeStaleArtifacts(opts.OutDir, out.Files); err != nil {
		return nil, err
	}
	if err := writeFiles(opts.OutDir, out.Files); err != nil {
		return nil, err
	}

	res := &Result{
		OutputDir:   opts.OutDir,
		WellCount:   out.WellCount,
		SampleCount: out.SampleCount,
		Warnings:    out.Warnings,
	}
	pathIfPresent := func(name string) string {
		if _, ok := out.Files[name]; !ok {
			return ""
		}
		return filepath.Join(opts.OutDir, name)
	}
	res.ManifestPath = pathIfPresent(manifestFile)
	res.BaselineSummaryPath = pathIfPresent(baselineSummaryFile)
	res.LogPhaseSummaryPath = pathIfPresent(logPhaseSummaryFile)
	res.AnnotatedPointsPath = pathIfPresent(annotatedPointsBase + "." + formatExtension(bopts.Format))
	res.NotesPath = pathIfPresent(notesFile)
	return res, nil
}

// RunBytes analyzes in-memory payloads and returns every artifact keyed by file name.
func RunBytes(ctx context.Context, opts BytesOptions) (*BytesResult, error) {
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if len(opts.AssignmentData) == 0 && len(opts.SmoothedData) == 0 {
		return nil, fmt.Errorf("assignment or smoothed payload bytes are required")
	}
	cfg := opts.Analysis
	if cfg == (growthcurve.Config{}) {
		cfg = growthcurve.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rep := &report{config: cfg, historyLabel: opts.HistoryLabel}
	if len(opts.AssignmentData) > 0 {
		a, err := payload.ParseAssignment(opts.AssignmentData)
		if err != nil {
			return nil, err
		}
		rep.sources = append(rep.sources, sourceInfo("assignment", nameOr(opts.AssignmentName, "assignment.json"), opts.AssignmentData))
		wells, warnings, err := analyzeWells(ctx, a, opts.Wells, cfg.Baseline, workers, log)
		if err != nil {
			return nil, err
		}
		rep.wells = wells
		rep.hasAssignment = true
		rep.warnings = append(rep.warnings, warnings...)
	}
	if len(opts.SmoothedData) > 0 {
		s, err := payload.ParseSmoothed(opts.SmoothedData)
		if err != nil {
			return nil, err
		}
		rep.sources = append(rep.sources, sourceInfo("smoothed", nameOr(opts.SmoothedName, "smoothed.json"), opts.SmoothedData))
		curves, warnings, err := analyzeCurves(ctx, s, opts.HistoryLabel, cfg, workers, log)
		if err != nil {
			return nil, err
		}
		rep.curves = curves
		rep.hasSmoothed = true
		rep.warnings = append(rep.warnings, warnings...)
	}

	files, err := renderArtifacts(rep, format)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"wells":    len(rep.wells),
		"samples":  len(rep.curves),
		"warnings": len(rep.warnings),
	}).Info("plate analysis complete")

	return &BytesResult{
		Files:       files,
		WellCount:   len(rep.wells),
		SampleCount: len(rep.curves),
		Warnings:    rep.warnings,
	}, nil
}

// report is the analyzed plate before rendering.
type report struct {
	config        growthcurve.Config
	historyLabel  string
	sources       []SourceInfo
	hasAssignment bool
	hasSmoothed   bool
	wells         []growthcurve.WellAnalysis
	curves        []growthcurve.CurveAnalysis
	warnings      []string
}

func analyzeWells(ctx context.Context, a *payload.Assignment, selected []string, opts growthcurve.BaselineOptions, workers int, log logrus.FieldLogger) ([]growthcurve.WellAnalysis, []string, error) {
	wells := uniqueStrings(selected)
	if len(wells) == 0 {
		wells = a.Wells()
	}
	sampleOf := a.WellSamples()

	out := make([]growthcurve.WellAnalysis, len(wells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, well := range wells {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trace, err := a.WellSeries(well)
			if err != nil {
				return err
			}
			wa, err := growthcurve.AnalyzeWell(well, trace.Series, opts)
			if err != nil {
				return err
			}
			wa.Sample = sampleOf[well]
			wa.Replicates = trace.Replicates
			out[i] = *wa
			log.WithFields(logrus.Fields{
				"well":     well,
				"sample":   wa.Sample,
				"status":   wa.Baseline.Status,
				"baseline": len(wa.Baseline.Indices),
				"excluded": len(wa.Baseline.Excluded),
			}).Debug("baseline analyzed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	warnings := make([]string, 0)
	for _, wa := range out {
		if wa.Baseline.Status == growthcurve.StatusOK {
			continue
		}
		msg := fmt.Sprintf("well %s: baseline %s", wa.Well, wa.Baseline.Status)
		warnings = append(warnings, msg)
		log.WithFields(logrus.Fields{"well": wa.Well, "sample": wa.Sample}).Warn(msg)
	}
	return out, warnings, nil
}

func analyzeCurves(ctx context.Context, s *payload.Smoothed, label string, cfg growthcurve.Config, workers int, log logrus.FieldLogger) ([]growthcurve.CurveAnalysis, []string, error) {
	names := s.SampleNames()
	out := make([]*growthcurve.CurveAnalysis, len(names))
	skipped := make([]string, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := s.Sample(name)
			if err != nil {
				return err
			}
			curve, err := sample.Curve(label)
			if err != nil {
				skipped[i] = err.Error()
				return nil
			}
			ca, err := growthcurve.AnalyzeCurve(name, curve.Series, nil, cfg)
			if err != nil {
				return err
			}
			ca.HistoryLabel = curve.Label
			ca.Wells = curve.Wells
			out[i] = ca
			log.WithFields(logrus.Fields{
				"sample":  name,
				"history": curve.Label,
				"status":  ca.LogPhase.Status,
				"points":  len(ca.LogPhase.Indices),
			}).Debug("log phase analyzed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	curves := make([]growthcurve.CurveAnalysis, 0, len(out))
	warnings := make([]string, 0)
	for i, ca := range out {
		if ca == nil {
			msg := fmt.Sprintf("sample %s skipped: %s", names[i], skipped[i])
			warnings = append(warnings, msg)
			log.WithField("sample", names[i]).Warn(msg)
			continue
		}
		curves = append(curves, *ca)
		if ca.LogPhase.Status != growthcurve.StatusOK {
			msg := fmt.Sprintf("sample %s: log phase %s", ca.Sample, ca.LogPhase.Status)
			warnings = append(warnings, msg)
			log.WithField("sample", ca.Sample).Warn(msg)
		}
	}
	return curves, warnings, nil
}

// uniqueStrings drops blanks and repeats, keeping first-seen order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func formatExtension(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "csv") {
		return "csv"
	}
	return "parquet"
}

func sourceInfo(kind, name string, data []byte) SourceInfo {
	sum := sha256.Sum256(data)
	return SourceInfo{
		Kind:      kind,
		Name:      name,
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
	}
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
