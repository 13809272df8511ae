package pipeline

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type meanPatternParquetRow struct {
	Subject    string  `parquet:"name=subject, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Task       string  `parquet:"name=task, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Feature    string  `parquet:"name=feature, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PhaseIndex int64   `parquet:"name=phase_index, type=INT64"`
	Mean       float64 `parquet:"name=mean, type=DOUBLE"`
	Std        float64 `parquet:"name=std, type=DOUBLE"`
}

func writeMeanPatternsParquet(path string, records []meanPatternRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(meanPatternParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range records {
		row := meanPatternParquetRow{
			Subject:    r.Subject,
			Task:       r.Task,
			Feature:    r.Feature,
			PhaseIndex: int64(r.PhaseIndex),
			Mean:       r.Mean,
			Std:        r.Std,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
