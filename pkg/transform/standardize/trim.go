package standardize

import (
	"context"
	"strings"

	"github.com/wdm0006/blobetl/pkg/frame"
)

type Trim struct{ Column string }

func (t *Trim) Name() string { return "trim" }

func (t *Trim) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	c, err := stringColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			c.Set(i, strings.TrimSpace(v))
		}
	}
	return f, nil
}
