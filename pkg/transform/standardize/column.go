package standardize

import (
	"fmt"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// stringColumn looks up name and requires it to hold text.
func stringColumn(f *frame.Frame, name string) (*frame.StringColumn, error) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown column: %s", name)
	}
	c, ok := col.(*frame.StringColumn)
	if !ok {
		return nil, fmt.Errorf("column %s is %s, want string", name, col.Kind())
	}
	return c, nil
}
