package extract

import (
	"fmt"

	"gee-tools/qamask"
	"gee-tools/table"
)

// AggFunc reduces the pixel values of a padded window to one value.
type AggFunc func(...float64) float64

func Mean(inData ...float64) float64 {
	sum := Sum(inData...)
	return sum / float64(len(inData))
}

func Sum(inData ...float64) float64 {
	var sum float64
	for _, val := range inData {
		sum += val
	}
	return sum
}

func Max(inData ...float64) float64 {
	max := inData[0]
	for _, val := range inData[1:] {
		if val > max {
			max = val
		}
	}
	return max
}

func Min(inData ...float64) float64 {
	min := inData[0]
	for _, val := range inData[1:] {
		if val < min {
			min = val
		}
	}
	return min
}

// ChooseAggFunc maps a name to an AggFunc. "none" and "" return nil, which
// keeps every pixel of the window as its own row.
func ChooseAggFunc(name string) (AggFunc, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "mean":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "max":
		return Max, nil
	case "min":
		return Min, nil
	default:
		return nil, fmt.Errorf("aggregation function %q not recognized, choose from: none, mean, sum, max, min", name)
	}
}

type imageKey struct {
	id   any
	date any
}

// aggregateWindow collapses the pixels of each image (same id and date) into
// one row. Band columns are reduced with agg, coordinates are averaged and the
// quality words are OR-ed so a flag set on any pixel survives. Other columns
// keep the image's first value.
func aggregateWindow(t *table.Table, bands []string, qaColumn string, agg AggFunc) (*table.Table, error) {
	var order []imageKey
	groups := make(map[imageKey][]int)
	for i := 0; i < t.Len(); i++ {
		id, _ := t.Value(i, "id")
		date, _ := t.Value(i, "date")
		k := imageKey{id, date}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	reducers := make(map[string]func([]int) (any, error))
	for _, band := range bands {
		band := band
		if band == qaColumn {
			reducers[band] = func(rows []int) (any, error) { return orWords(t, band, rows) }
		} else {
			reducers[band] = func(rows []int) (any, error) { return reduce(t, band, rows, agg) }
		}
	}
	for _, col := range []string{"longitude", "latitude"} {
		col := col
		reducers[col] = func(rows []int) (any, error) { return reduce(t, col, rows, Mean) }
	}

	columns := t.Columns()
	out := make([][]any, 0, len(order))
	for _, k := range order {
		rows := groups[k]
		row := make([]any, len(columns))
		for j, col := range columns {
			f, ok := reducers[col]
			if !ok {
				row[j], _ = t.Value(rows[0], col)
				continue
			}
			v, err := f(rows)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		out = append(out, row)
	}
	return table.New(columns, out)
}

// reduce skips nil cells and yields nil when the whole window is empty.
func reduce(t *table.Table, col string, rows []int, agg AggFunc) (any, error) {
	var values []float64
	for _, i := range rows {
		v, _ := t.Value(i, col)
		if v == nil {
			continue
		}
		f, ok := table.Float(v)
		if !ok {
			return nil, fmt.Errorf("column %s: cannot aggregate non-numeric value %v", col, v)
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return agg(values...), nil
}

func orWords(t *table.Table, col string, rows []int) (any, error) {
	var word uint64
	seen := false
	for _, i := range rows {
		v, _ := t.Value(i, col)
		if v == nil {
			continue
		}
		w, err := qamask.Word(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		word |= w
		seen = true
	}
	if !seen {
		return nil, nil
	}
	return float64(word), nil
}
