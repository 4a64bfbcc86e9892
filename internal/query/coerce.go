package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// dateLayouts are tried in order when a date/timestamp column arrives as
// text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339,
}

// coercer converts one raw cell into its typed output value. A conversion
// failure yields nil, the missing sentinel, instead of an error.
type coercer func(any) any

// coercerFor maps a declared database type to the cell coercion applied to
// the output frame. Unknown types fall back to generic normalization.
func coercerFor(declared string) coercer {
	d := strings.ToLower(declared)
	switch {
	case strings.Contains(d, "date"), strings.Contains(d, "timestamp"), strings.Contains(d, "time"):
		return toTime
	case strings.Contains(d, "numeric"), strings.Contains(d, "decimal"),
		strings.Contains(d, "double"), strings.Contains(d, "real"), strings.Contains(d, "money"):
		return toFloat
	case strings.Contains(d, "int"):
		return toInt
	default:
		return normalize
	}
}

// normalize flattens driver-specific wrappers so frames hold plain Go
// values regardless of how pgx decoded them.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}

func toFloat(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int:
		return float64(x)
	case pgtype.Numeric:
		return normalize(x)
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return nil
	}
}

func toInt(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return x
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case []byte:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	default:
		return nil
	}
}

func toTime(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	default:
		return nil
	}
}

func parseFloat(s string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return f
}

func parseInt(s string) any {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func parseTime(s string) any {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return nil
}

func stringify(v any) string { return fmt.Sprint(v) }
