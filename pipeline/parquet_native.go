//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type annotatedParquetRow struct {
	Source        string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Kind          string  `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Index         int64   `parquet:"name=index, type=INT64"`
	TimeMin       float64 `parquet:"name=time_min, type=DOUBLE"`
	OD            float64 `parquet:"name=od, type=DOUBLE"`
	Baseline      bool    `parquet:"name=baseline, type=BOOLEAN"`
	Excluded      bool    `parquet:"name=excluded, type=BOOLEAN"`
	LogPhase      bool    `parquet:"name=log_phase, type=BOOLEAN"`
	Phase         string  `parquet:"name=phase, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	BaselineLevel float64 `parquet:"name=baseline_level, type=DOUBLE"`
}

func marshalAnnotatedParquet(points []AnnotatedPoint) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(annotatedParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, p := range points {
		row := annotatedParquetRow{
			Source:        p.Source,
			Kind:          p.Kind,
			Index:         int64(p.Index),
			TimeMin:       p.TimeMin,
			OD:            p.OD,
			Baseline:      p.Baseline,
			Excluded:      p.Excluded,
			LogPhase:      p.LogPhase,
			Phase:         p.Phase,
			BaselineLevel: valueOrNaN(p.BaselineLevel),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
