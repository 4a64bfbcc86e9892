// Package query executes raw or templated SQL against a datashelf session
// and assembles the results into in-memory frames. Fetching is chunked to
// bound peak memory on unbounded result sets; chunking is an optimization
// and never changes row order or content.
package query

import "time"

// Col is a named output column. Type carries the declared database type
// when the request targeted a concrete table, otherwise it is empty.
type Col struct {
	Name string
	Type string
}

// Frame is an ordered table of rows with named columns. Cells that failed
// type coercion hold nil, the missing-value sentinel, so one malformed row
// cannot abort a large fetch.
type Frame struct {
	Columns []Col
	Rows    [][]any
}

// NumRows returns the number of rows in the frame.
func (f *Frame) NumRows() int { return len(f.Rows) }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// append concatenates another chunk's rows, preserving order.
func (f *Frame) append(other *Frame) {
	f.Rows = append(f.Rows, other.Rows...)
}

// CellString renders a cell for display. The missing sentinel renders as
// an empty string.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	default:
		return stringify(x)
	}
}
