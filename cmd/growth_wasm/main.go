//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sort"
	"syscall/js"
	"time"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/pipeline"
)

func main() {
	js.Global().Set("analyzePlate", js.FuncOf(analyzePlate))
	select {}
}

func analyzePlate(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return map[string]any{
			"ok":    false,
			"error": "expected arguments: assignmentBytes(Uint8Array|null), smoothedBytes(Uint8Array|null), options(object)",
		}
	}
	assignment, err := bytesFromJS(args[0])
	if err != nil {
		return map[string]any{"ok": false, "error": fmt.Sprintf("assignment: %v", err)}
	}
	smoothed, err := bytesFromJS(args[1])
	if err != nil {
		return map[string]any{"ok": false, "error": fmt.Sprintf("smoothed: %v", err)}
	}
	if len(assignment) == 0 && len(smoothed) == 0 {
		return map[string]any{
			"ok":    false,
			"error": "assignment or smoothed bytes are required",
		}
	}
	optsArg := args[2]

	cfg := growthcurve.DefaultConfig()
	cfg.Baseline.Cleanup = getString(optsArg, "cleanup", cfg.Baseline.Cleanup)
	cfg.Baseline.PreWindowEnd = getFloat(optsArg, "pre_window_end", cfg.Baseline.PreWindowEnd)
	cfg.LogPhase.R2Min = getFloat(optsArg, "r2_min", cfg.LogPhase.R2Min)
	cfg.LogPhase.ODMin = getFloat(optsArg, "od_min", cfg.LogPhase.ODMin)

	result, err := pipeline.RunBytes(context.Background(), pipeline.BytesOptions{
		AssignmentName: getString(optsArg, "assignment_name", "assignment.json"),
		AssignmentData: assignment,
		SmoothedName:   getString(optsArg, "smoothed_name", "smoothed.json"),
		SmoothedData:   smoothed,
		Format:         "csv",
		Workers:        1,
		HistoryLabel:   getString(optsArg, "history", ""),
		Analysis:       cfg,
	})
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": err.Error(),
		}
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": fmt.Sprintf("create zip: %v", err),
		}
	}
	out := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(out, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":       true,
		"zip":      out,
		"warnings": stringsToAny(result.Warnings),
		"files":    stringsToAny(fileNames),
	}
}

func bytesFromJS(v js.Value) ([]byte, error) {
	if v.IsUndefined() || v.IsNull() {
		return nil, nil
	}
	n := v.Get("length").Int()
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if copied := js.CopyBytesToGo(buf, v); copied != n {
		return nil, fmt.Errorf("copied %d of %d bytes from JS input", copied, n)
	}
	return buf, nil
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string, fallback float64) float64 {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return fallback
	}
	return out.Float()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
