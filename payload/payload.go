// Package payload reads the plate-reader JSON documents consumed by the
// growth-curve engines: assignment files with raw per-well OD600 rows and
// smoothed-curve files with per-sample history variants.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
)

// ErrNotFound is returned when a requested well, sample or history label is absent.
var ErrNotFound = errors.New("not found")

// Label is a string field that some exporters write as a JSON number
// (replicate numbers in particular).
type Label string

// UnmarshalJSON accepts a string, a number or null.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label must be a string or number: %w", err)
	}
	// Whole numbers written as 3.0 still name replicate "3".
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		*l = Label(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*l = Label(n.String())
	return nil
}

// MarshalJSON renders indented JSON with a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out = append(out, '\n')
	return out, nil
}

func readFile(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s file: %w", kind, err)
	}
	return data, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
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
