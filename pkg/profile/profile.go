// Package profile summarises the columns of a frame: counts, nulls, numeric
// ranges and the most frequent values.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
)

type NumStats struct {
	Count int     `json:"count"`
	Nulls int     `json:"nulls"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

func (n *NumStats) Mean() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Sum / float64(n.Count)
}

type BoolStats struct {
	Count int `json:"count"`
	Nulls int `json:"nulls"`
	True  int `json:"true"`
	False int `json:"false"`
}

// TextStats covers string and time columns; times are counted by their
// RFC 3339 text.
type TextStats struct {
	Count int            `json:"count"`
	Nulls int            `json:"nulls"`
	Freqs map[string]int `json:"-"`
}

type ColumnProfile struct {
	Name string
	Kind frame.Kind
	Num  *NumStats
	Bool *BoolStats
	Text *TextStats
}

// Nulls returns the null count whatever the column kind.
func (cp *ColumnProfile) Nulls() int {
	switch {
	case cp.Num != nil:
		return cp.Num.Nulls
	case cp.Bool != nil:
		return cp.Bool.Nulls
	default:
		return cp.Text.Nulls
	}
}

type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
	rows  int
}

func NewCollector(schema frame.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type}
		switch cs.Type {
		case frame.KindFloat, frame.KindInt:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		case frame.KindBool:
			cp.Bool = &BoolStats{}
		default:
			cp.Text = &TextStats{Freqs: make(map[string]int)}
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

// Of profiles a single frame.
func Of(f *frame.Frame, topK int) *Collector {
	c := NewCollector(f.Schema(), topK)
	c.ConsumeFrame(f)
	return c
}

// ConsumeFrame adds every row of f. Columns unknown to the collector are
// ignored.
func (c *Collector) ConsumeFrame(f *frame.Frame) {
	c.rows += f.Rows()
	for _, cs := range f.Schema().Columns {
		idx, ok := c.index[cs.Name]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		col, _ := f.ColumnByName(cs.Name)
		for i := 0; i < col.Len(); i++ {
			consume(cp, col.Value(i), c.topK > 0)
		}
	}
}

func consume(cp *ColumnProfile, v any, freqs bool) {
	switch t := v.(type) {
	case nil:
		switch {
		case cp.Num != nil:
			cp.Num.Nulls++
		case cp.Bool != nil:
			cp.Bool.Nulls++
		default:
			cp.Text.Nulls++
		}
	case float64:
		cp.Num.observe(t)
	case int64:
		cp.Num.observe(float64(t))
	case bool:
		cp.Bool.Count++
		if t {
			cp.Bool.True++
		} else {
			cp.Bool.False++
		}
	case string:
		cp.Text.Count++
		if freqs {
			cp.Text.Freqs[t]++
		}
	case time.Time:
		cp.Text.Count++
		if freqs {
			cp.Text.Freqs[t.UTC().Format(time.RFC3339)]++
		}
	}
}

func (n *NumStats) observe(v float64) {
	n.Count++
	n.Min = math.Min(n.Min, v)
	n.Max = math.Max(n.Max, v)
	n.Sum += v
}

// Rows is the number of rows consumed.
func (c *Collector) Rows() int { return c.rows }

// Columns returns the per-column profiles in schema order.
func (c *Collector) Columns() []ColumnProfile { return c.cols }

type valueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// top returns the most frequent values, ties broken by value.
func (c *Collector) top(ts *TextStats) []valueCount {
	arr := make([]valueCount, 0, len(ts.Freqs))
	for k, v := range ts.Freqs {
		arr = append(arr, valueCount{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].Count != arr[j].Count {
			return arr[i].Count > arr[j].Count
		}
		return arr[i].Value < arr[j].Value
	})
	if c.topK > 0 && len(arr) > c.topK {
		arr = arr[:c.topK]
	}
	return arr
}

func (c *Collector) ReportText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile Summary (%d rows)\n", c.rows)
	for i := range c.cols {
		cp := &c.cols[i]
		fmt.Fprintf(&b, "- %s (%s): ", cp.Name, cp.Kind.Tag())
		switch {
		case cp.Num != nil:
			if cp.Num.Count == 0 {
				fmt.Fprintf(&b, "count=0 nulls=%d\n", cp.Num.Nulls)
				continue
			}
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n", cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, cp.Num.Mean())
		case cp.Bool != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d true=%d false=%d\n", cp.Bool.Count, cp.Bool.Nulls, cp.Bool.True, cp.Bool.False)
		default:
			fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Text.Count, cp.Text.Nulls)
			for _, kv := range c.top(cp.Text) {
				fmt.Fprintf(&b, "  * %q: %d\n", kv.Value, kv.Count)
			}
		}
	}
	return b.String()
}

type JSONProfile struct {
	Rows    int          `json:"rows"`
	Columns []JSONColumn `json:"columns"`
}

type JSONColumn struct {
	Name string     `json:"name"`
	Type string     `json:"type"`
	Num  *NumStats  `json:"num,omitempty"`
	Bool *BoolStats `json:"bool,omitempty"`
	Text *struct {
		Count int          `json:"count"`
		Nulls int          `json:"nulls"`
		Top   []valueCount `json:"top,omitempty"`
	} `json:"text,omitempty"`
}

func (c *Collector) ReportJSON() JSONProfile {
	out := JSONProfile{Rows: c.rows, Columns: make([]JSONColumn, 0, len(c.cols))}
	for i := range c.cols {
		cp := &c.cols[i]
		jc := JSONColumn{Name: cp.Name, Type: cp.Kind.Tag(), Num: cp.Num, Bool: cp.Bool}
		if cp.Num != nil && cp.Num.Count == 0 {
			jc.Num = &NumStats{Nulls: cp.Num.Nulls}
		}
		if cp.Text != nil {
			jc.Text = &struct {
				Count int          `json:"count"`
				Nulls int          `json:"nulls"`
				Top   []valueCount `json:"top,omitempty"`
			}{Count: cp.Text.Count, Nulls: cp.Text.Nulls, Top: c.top(cp.Text)}
		}
		out.Columns = append(out.Columns, jc)
	}
	return out
}

// NullCounts maps column name to null count, for log fields.
func (c *Collector) NullCounts() map[string]int {
	out := make(map[string]int, len(c.cols))
	for i := range c.cols {
		out[c.cols[i].Name] = c.cols[i].Nulls()
	}
	return out
}
