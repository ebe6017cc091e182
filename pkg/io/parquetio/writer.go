package parquetio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
	local "github.com/xitongsys/parquet-go-source/local"
	pq "github.com/xitongsys/parquet-go/parquet"
	pw "github.com/xitongsys/parquet-go/writer"
)

type WriterOptions struct {
	// Parallelism is the number of marshalling goroutines; default 4.
	Parallelism int64
	// TempDir holds the intermediate file; default os.TempDir().
	TempDir string
}

func parquetSchemaJSON(s frame.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		if strings.ContainsAny(cs.Name, ",=") {
			return "", fmt.Errorf("column name %q cannot be encoded", cs.Name)
		}
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case frame.KindFloat:
			tag += "DOUBLE"
		case frame.KindInt:
			tag += "INT64"
		case frame.KindBool:
			tag += "BOOLEAN"
		case frame.KindTime:
			tag += "TIMESTAMP_MILLIS"
		default:
			tag += "UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode renders a Frame as a snappy-compressed parquet file and returns its
// bytes. Every column is written OPTIONAL; time columns are stored as
// TIMESTAMP_MILLIS in UTC.
func Encode(f *frame.Frame, opt WriterOptions) ([]byte, error) {
	dir := opt.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	np := opt.Parallelism
	if np <= 0 {
		np = 4
	}
	tmp, err := os.CreateTemp(dir, "blobetl-*.parquet")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	if err := writeFile(filepath.Clean(path), f, np); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func writeFile(path string, f *frame.Frame, np int64) error {
	schema, err := parquetSchemaJSON(f.Schema())
	if err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	writer, err := pw.NewJSONWriter(schema, fw, np)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}
	writer.CompressionType = pq.CompressionCodec_SNAPPY

	cols := f.Schema().Columns
	for r := 0; r < f.Rows(); r++ {
		rec := make(map[string]any, len(cols))
		for _, cs := range cols {
			col, _ := f.ColumnByName(cs.Name)
			switch v := col.Value(r).(type) {
			case nil:
			case time.Time:
				rec[cs.Name] = v.UTC().UnixMilli()
			default:
				rec[cs.Name] = v
			}
		}
		line, err := json.Marshal(rec)
		if err != nil {
			_ = fw.Close()
			return fmt.Errorf("parquet encode row %d: %w", r, err)
		}
		if err := writer.Write(string(line)); err != nil {
			_ = fw.Close()
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	if err := writer.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet finish: %w", err)
	}
	return fw.Close()
}
