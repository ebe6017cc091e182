package enrich

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// AccountJoin left-joins Value from Clients onto transactions, matching
// ForeignKey against Key. Every transaction row survives; unmatched rows get
// a null Value and a key matching several clients yields one row per match.
// Key itself is never carried into the result.
type AccountJoin struct {
	Clients    *frame.Frame
	Key        string
	Value      string
	ForeignKey string
}

func (t *AccountJoin) Name() string { return "account_join" }

func (t *AccountJoin) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if t.Clients == nil {
		return nil, fmt.Errorf("no clients to join")
	}
	keyCol, ok := t.Clients.ColumnByName(t.Key)
	if !ok {
		return nil, fmt.Errorf("clients: unknown column: %s", t.Key)
	}
	valCol, ok := t.Clients.ColumnByName(t.Value)
	if !ok {
		return nil, fmt.Errorf("clients: unknown column: %s", t.Value)
	}
	fkCol, ok := f.ColumnByName(t.ForeignKey)
	if !ok {
		return nil, fmt.Errorf("unknown column: %s", t.ForeignKey)
	}
	if f.Has(t.Value) {
		return nil, fmt.Errorf("column %s already present", t.Value)
	}
	if t.Key != t.ForeignKey && f.Has(t.Key) {
		return nil, fmt.Errorf("column %s would collide with the clients key", t.Key)
	}

	index := map[string][]int{}
	for i := 0; i < keyCol.Len(); i++ {
		if k, ok := joinKey(keyCol.Value(i)); ok {
			index[k] = append(index[k], i)
		}
	}

	var rows, matches []int // matches[i] is a clients row, or -1
	for i := 0; i < f.Rows(); i++ {
		k, ok := joinKey(fkCol.Value(i))
		hits := index[k]
		if !ok || len(hits) == 0 {
			rows = append(rows, i)
			matches = append(matches, -1)
			continue
		}
		for _, h := range hits {
			rows = append(rows, i)
			matches = append(matches, h)
		}
	}

	out := f.Take(rows)
	if _, err := out.AddColumn(frame.ColumnSchema{Name: t.Value, Type: valCol.Kind(), Nullable: true}); err != nil {
		return nil, err
	}
	for i, m := range matches {
		if m < 0 {
			continue
		}
		if err := out.SetCell(i, t.Value, valCol.Value(m)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// joinKey renders a cell in a form comparable across column kinds, so an
// int64 id matches an integral float64 reference.
func joinKey(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		if math.IsNaN(t) {
			return "", false
		}
		if t == math.Trunc(t) && math.Abs(t) < 1<<63 {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	default:
		return fmt.Sprint(t), true
	}
}
