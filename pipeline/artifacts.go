package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/payload"
)

func renderArtifacts(rep *report, format string) (map[string][]byte, error) {
	files := make(map[string][]byte)

	if rep.hasAssignment {
		data, err := payload.MarshalJSON(BaselineSummaryFile{Wells: rep.wells})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", baselineSummaryFile, err)
		}
		files[baselineSummaryFile] = data
	}
	if rep.hasSmoothed {
		data, err := payload.MarshalJSON(LogPhaseSummaryFile{HistoryLabel: rep.historyLabel, Samples: rep.curves})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", logPhaseSummaryFile, err)
		}
		files[logPhaseSummaryFile] = data
	}

	points := buildAnnotatedPoints(rep)
	pointsName := annotatedPointsBase + "." + formatExtension(format)
	switch format {
	case "csv":
		data, err := marshalAnnotatedCSV(points)
		if err != nil {
			return nil, fmt.Errorf("write annotated csv: %w", err)
		}
		files[pointsName] = data
	case "parquet":
		data, err := marshalAnnotatedParquet(points)
		if err != nil {
			return nil, fmt.Errorf("write annotated parquet: %w", err)
		}
		files[pointsName] = data
	}

	files[notesFile] = []byte(buildNotesMarkdown(rep))

	artifacts := make([]string, 0, len(files))
	for name := range files {
		artifacts = append(artifacts, name)
	}
	sort.Strings(artifacts)
	manifest := Manifest{
		FormatVersion: FormatVersion,
		GeneratedAt:   time.Now().UTC(),
		Sources:       rep.sources,
		Artifacts:     artifacts,
		WellCount:     len(rep.wells),
		SampleCount:   len(rep.curves),
		Config:        rep.config,
		Warnings:      rep.warnings,
	}
	data, err := payload.MarshalJSON(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", manifestFile, err)
	}
	files[manifestFile] = data
	return files, nil
}

func buildAnnotatedPoints(rep *report) []AnnotatedPoint {
	out := make([]AnnotatedPoint, 0)
	for _, wa := range rep.wells {
		baseline := indexSet(wa.Baseline.Indices)
		excluded := indexSet(wa.Baseline.Excluded)
		for i, p := range wa.Points {
			_, inBaseline := baseline[i]
			_, isExcluded := excluded[i]
			out = append(out, AnnotatedPoint{
				Source:        wa.Well,
				Kind:          "raw",
				Index:         i,
				TimeMin:       p.T,
				OD:            p.Y,
				Baseline:      inBaseline,
				Excluded:      isExcluded,
				BaselineLevel: wa.Baseline.Level,
			})
		}
	}
	for _, ca := range rep.curves {
		logPhase := indexSet(ca.LogPhase.Indices)
		phases := make([]string, len(ca.Points))
		for _, ph := range ca.Structure.Phases {
			for i := ph.StartIndex; i <= ph.EndIndex && i < len(phases); i++ {
				phases[i] = ph.Phase
			}
		}
		for i, p := range ca.Points {
			_, inLog := logPhase[i]
			out = append(out, AnnotatedPoint{
				Source:   ca.Sample,
				Kind:     "smoothed",
				Index:    i,
				TimeMin:  p.T,
				OD:       p.Y,
				LogPhase: inLog,
				Phase:    phases[i],
			})
		}
	}
	return out
}

func indexSet(indices []int) map[int]struct{} {
	out := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		out[i] = struct{}{}
	}
	return out
}

var annotatedHeader = []string{
	"source", "kind", "index", "time_min", "od", "baseline", "excluded", "log_phase", "phase", "baseline_level",
}

func marshalAnnotatedCSV(points []AnnotatedPoint) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(annotatedHeader); err != nil {
		return nil, err
	}
	for _, p := range points {
		row := []string{
			p.Source,
			p.Kind,
			strconv.Itoa(p.Index),
			formatFloat(p.TimeMin),
			formatFloat(p.OD),
			strconv.FormatBool(p.Baseline),
			strconv.FormatBool(p.Excluded),
			strconv.FormatBool(p.LogPhase),
			p.Phase,
			formatFloatPtr(p.BaselineLevel),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildNotesMarkdown(rep *report) string {
	var b strings.Builder
	b.WriteString("# Plate analysis notes\n")
	if len(rep.warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range rep.warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if rep.hasAssignment {
		b.WriteString("\n## Baseline\n")
		for _, wa := range rep.wells {
			fmt.Fprintf(&b, "\n### %s\n\n", wellHeading(wa))
			writeBullets(&b, wa.Notes)
		}
	}
	if rep.hasSmoothed {
		b.WriteString("\n## Log phase\n")
		for _, ca := range rep.curves {
			fmt.Fprintf(&b, "\n### %s\n\n", ca.Sample)
			writeBullets(&b, ca.Notes)
		}
	}
	return b.String()
}

func wellHeading(wa growthcurve.WellAnalysis) string {
	if wa.Sample == "" {
		return wa.Well
	}
	return fmt.Sprintf("%s (%s)", wa.Well, wa.Sample)
}

func writeBullets(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(b, "- %s\n", line)
		}
	}
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

// removeStaleArtifacts deletes bundle files a previous run left in dir that
// the current run does not produce, so the manifest lists every artifact.
// Files with other names are left alone.
func removeStaleArtifacts(dir string, files map[string][]byte) error {
	known := []string{
		manifestFile,
		baselineSummaryFile,
		logPhaseSummaryFile,
		annotatedPointsBase + ".csv",
		annotatedPointsBase + ".parquet",
		notesFile,
	}
	for _, name := range known {
		if _, ok := files[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s: %w", name, err)
		}
	}
	return nil
}

func writeFiles(dir string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
