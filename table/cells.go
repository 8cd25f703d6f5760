package table

import (
	"fmt"
	"strconv"
)

// Float reports the numeric value of a cell. Strings are not parsed.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint16:
		return float64(n), true
	default:
		return 0, false
	}
}

// Format renders a cell the way it is written to delimited text. nil is empty.
func Format(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(n)
	}
}

// Scale multiplies every cell of the named columns by factor. nil cells stay nil.
func Scale(t *Table, columns []string, factor float64) (*Table, error) {
	out := t
	for _, col := range columns {
		var err error
		out, err = out.MapColumn(col, func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			f, ok := Float(v)
			if !ok {
				return nil, fmt.Errorf("column %s: cannot scale non-numeric value %v", col, v)
			}
			return f * factor, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
