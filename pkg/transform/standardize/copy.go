package standardize

import (
	"context"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// Copy duplicates a string column under a new name, nulls included.
type Copy struct {
	From string
	To   string
}

func (t *Copy) Name() string { return "copy" }

func (t *Copy) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	src, err := stringColumn(f, t.From)
	if err != nil {
		return nil, err
	}
	col, err := f.AddColumn(frame.ColumnSchema{Name: t.To, Type: frame.KindString, Nullable: true})
	if err != nil {
		return nil, err
	}
	dst := col.(*frame.StringColumn)
	for i := 0; i < src.Len(); i++ {
		if v, ok := src.Get(i); ok {
			dst.Set(i, v)
		}
	}
	return f, nil
}
