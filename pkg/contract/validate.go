package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// Diagnostic describes one way a frame departs from its contract.
type Diagnostic struct {
	Column   string
	Expected string // empty for an unexpected column
	Observed string // empty for a missing column
}

func (d Diagnostic) String() string {
	switch {
	case d.Observed == "":
		return fmt.Sprintf("missing column %q", d.Column)
	case d.Expected == "":
		return fmt.Sprintf("unexpected column %q", d.Column)
	default:
		return fmt.Sprintf("column %q is %s instead of %s", d.Column, d.Observed, d.Expected)
	}
}

type Result struct {
	OK          bool
	Diagnostics []Diagnostic
}

// SchemaMismatchError reports a frame that failed validation.
type SchemaMismatchError struct {
	Diagnostics []Diagnostic
}

func (e *SchemaMismatchError) Error() string {
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// Validate compares f against c. The column sets must be equal before types
// are compared; if they differ only name diagnostics are returned. Row count
// plays no part, and f is left untouched.
func Validate(f *frame.Frame, c Contract) Result {
	var diags []Diagnostic
	observed := map[string]string{}
	for _, cs := range f.Schema().Columns {
		observed[cs.Name] = cs.Type.Tag()
	}
	for _, name := range c.Columns() {
		if _, ok := observed[name]; !ok {
			diags = append(diags, Diagnostic{Column: name, Expected: c[name]})
		}
	}
	extra := make([]string, 0)
	for name := range observed {
		if _, ok := c[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		diags = append(diags, Diagnostic{Column: name, Observed: observed[name]})
	}
	if len(diags) > 0 {
		return Result{Diagnostics: diags}
	}
	for _, name := range c.Columns() {
		if observed[name] != c[name] {
			diags = append(diags, Diagnostic{Column: name, Expected: c[name], Observed: observed[name]})
		}
	}
	return Result{OK: len(diags) == 0, Diagnostics: diags}
}

// Check is Validate returning a *SchemaMismatchError on failure.
func Check(f *frame.Frame, c Contract) error {
	r := Validate(f, c)
	if r.OK {
		return nil
	}
	return &SchemaMismatchError{Diagnostics: r.Diagnostics}
}
