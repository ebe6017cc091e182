package standardize

import (
	"context"
	"regexp"

	"github.com/wdm0006/blobetl/pkg/frame"
)

type RegexReplace struct {
	Column  string
	Pattern string
	Replace string
	re      *regexp.Regexp
}

func (t *RegexReplace) Name() string { return "regex_replace" }

func (t *RegexReplace) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if t.re == nil {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, err
		}
		t.re = re
	}
	c, err := stringColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			c.Set(i, t.re.ReplaceAllString(v, t.Replace))
		}
	}
	return f, nil
}
