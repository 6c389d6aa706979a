package catalog

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetParallelism = 4

// ReadParquet loads a catalog of the given format from a parquet file.
func ReadParquet(path string, format Format) (*Catalog, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer fr.Close()

	switch format {
	case FormatMetacal:
		rows, err := readRows[metacalRow](fr)
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		return fromMetacalRows(rows)
	case FormatShear:
		rows, err := readRows[shearRow](fr)
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		return fromShearRows(rows)
	}
	return nil, fmt.Errorf("unknown catalog format %q", format)
}

func readRows[T any](fr source.ParquetFile) ([]T, error) {
	pr, err := reader.NewParquetReader(fr, new(T), parquetParallelism)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	rows := make([]T, pr.GetNumRows())
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteParquet stores a catalog in the on-disk layout of its format.
func WriteParquet(path string, c *Catalog, format Format) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet %s: %w", path, err)
	}
	defer fw.Close()

	switch format {
	case FormatMetacal:
		rows, err := toMetacalRows(c)
		if err != nil {
			return err
		}
		return writeRows(fw, rows)
	case FormatShear:
		rows, err := toShearRows(c)
		if err != nil {
			return err
		}
		return writeRows(fw, rows)
	}
	return fmt.Errorf("unknown catalog format %q", format)
}

func writeRows[T any](fw source.ParquetFile, rows []T) error {
	pw, err := writer.NewParquetWriter(fw, new(T), parquetParallelism)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalise parquet: %w", err)
	}
	return nil
}
