package frame

import (
	"fmt"
	"sort"
)

// Append copies every row of other onto f. Both frames must carry the same
// set of column names; column order may differ.
func (f *Frame) Append(other *Frame) error {
	if other.Cols() != f.Cols() {
		return fmt.Errorf("append: column count mismatch: %d vs %d", f.Cols(), other.Cols())
	}
	src := make([]Column, len(f.cols))
	for i, c := range f.cols {
		oc, ok := other.ColumnByName(c.Name())
		if !ok {
			return fmt.Errorf("append: missing column: %s", c.Name())
		}
		src[i] = oc
	}
	for r := 0; r < other.Rows(); r++ {
		f.AppendNullRow()
		row := f.nrows - 1
		for i, c := range f.cols {
			if err := f.SetCell(row, c.Name(), src[i].Value(r)); err != nil {
				return fmt.Errorf("append row %d: %w", r, err)
			}
		}
	}
	return nil
}

// Take returns a new frame holding the given rows, in order. Indexes may repeat.
func (f *Frame) Take(rows []int) *Frame {
	out := NewFrame(f.schema)
	for _, r := range rows {
		out.AppendNullRow()
		dst := out.nrows - 1
		for i, c := range f.cols {
			// same schema on both sides, so SetCell cannot fail
			_ = out.SetCell(dst, c.Name(), f.cols[i].Value(r))
		}
	}
	return out
}

// PartitionBy groups rows by the text value of a string column. Keys come
// back sorted. A null key is an error.
func (f *Frame) PartitionBy(name string) ([]string, map[string]*Frame, error) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return nil, nil, fmt.Errorf("partition: unknown column: %s", name)
	}
	sc, ok := col.(*StringColumn)
	if !ok {
		return nil, nil, fmt.Errorf("partition: column %s is %s, want string", name, col.Kind())
	}
	groups := map[string][]int{}
	for i := 0; i < sc.Len(); i++ {
		v, ok := sc.Get(i)
		if !ok {
			return nil, nil, fmt.Errorf("partition: null %s at row %d", name, i)
		}
		groups[v] = append(groups[v], i)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make(map[string]*Frame, len(keys))
	for _, k := range keys {
		parts[k] = f.Take(groups[k])
	}
	return keys, parts, nil
}
