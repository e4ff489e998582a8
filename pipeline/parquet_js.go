//go:build js

package pipeline

import "errors"

func marshalAnnotatedParquet([]AnnotatedPoint) ([]byte, error) {
	return nil, errors.New("parquet output is not available in js builds; use csv")
}
