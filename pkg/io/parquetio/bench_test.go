package parquetio

import (
	"testing"

	"github.com/wdm0006/blobetl/pkg/frame"
)

func makeFrame(rows int) *frame.Frame {
	s := frame.Schema{Columns: []frame.ColumnSchema{{Name: "a", Type: frame.KindFloat, Nullable: true}, {Name: "b", Type: frame.KindInt, Nullable: true}}}
	f := frame.NewFrame(s)
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, "a", float64(i%100))
		_ = f.SetCell(i, "b", int64(i%10))
	}
	return f
}

func BenchmarkParquetEncode(b *testing.B) {
	f := makeFrame(50000)
	dir := b.TempDir()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(f, WriterOptions{TempDir: dir}); err != nil {
			b.Fatal(err)
		}
	}
}
