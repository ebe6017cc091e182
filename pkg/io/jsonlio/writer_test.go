package jsonlio

import (
	"bytes"
	"testing"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
)

func TestWrite(t *testing.T) {
	f := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "account_id", Type: frame.KindString},
		{Name: "datetime", Type: frame.KindTime},
		{Name: "hour", Type: frame.KindInt},
	}})
	f.AppendNullRow()
	f.AppendNullRow()
	_ = f.SetCell(0, "account_id", "ACC-7")
	_ = f.SetCell(0, "datetime", time.Date(2023, 10, 2, 14, 5, 0, 0, time.UTC))
	_ = f.SetCell(0, "hour", int64(14))

	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatal(err)
	}
	want := `{"account_id":"ACC-7","datetime":"2023-10-02T14:05:00Z","hour":14}
{"account_id":null,"datetime":null,"hour":null}
`
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
