// Package table holds the column-ordered rows that flow through an extraction.
// Every operation returns a new Table and leaves its inputs untouched.
package table

import (
	"errors"
	"fmt"
)

var ErrMissingColumn = errors.New("missing column")

type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// Row is a read-only view over one row of a Table.
type Row struct {
	t *Table
	i int
}

func New(columns []string, rows [][]any) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]any, len(rows)),
	}
	for i, col := range columns {
		if _, ok := t.index[col]; ok {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		t.index[col] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		t.rows[i] = append([]any(nil), row...)
	}
	return t, nil
}

func MustNew(columns []string, rows [][]any) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *Table) Row(i int) Row {
	return Row{t, i}
}

// Value returns the cell at (row, col). ok is false when the column is absent.
func (t *Table) Value(row int, col string) (any, bool) {
	j, ok := t.index[col]
	if !ok {
		return nil, false
	}
	return t.rows[row][j], true
}

func (r Row) Get(col string) (any, bool) {
	return r.t.Value(r.i, col)
}

func (r Row) Index() int {
	return r.i
}

// Values returns a copy of the row's cells in column order.
func (r Row) Values() []any {
	return append([]any(nil), r.t.rows[r.i]...)
}

// WithColumn returns a table with name computed from each row. An existing
// column of the same name is replaced in place, otherwise the column is appended.
func (t *Table) WithColumn(name string, f func(Row) (any, error)) (*Table, error) {
	cells := make([]any, len(t.rows))
	for i := range t.rows {
		v, err := f(Row{t, i})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		cells[i] = v
	}

	columns := t.Columns()
	j, replace := t.index[name]
	if !replace {
		columns = append(columns, name)
	}
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		out := append(make([]any, 0, len(columns)), row...)
		if replace {
			out[j] = cells[i]
		} else {
			out = append(out, cells[i])
		}
		rows[i] = out
	}
	return &Table{columns: columns, index: indexOf(columns), rows: rows}, nil
}

// MapColumn applies f to every cell of an existing column.
func (t *Table) MapColumn(name string, f func(any) (any, error)) (*Table, error) {
	if !t.Has(name) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return t.WithColumn(name, func(r Row) (any, error) {
		v, _ := r.Get(name)
		return f(v)
	})
}

// Concat stacks tables vertically. The result's columns are the union of the
// inputs' columns in first-seen order; cells a table lacks are nil.
func Concat(tables ...*Table) *Table {
	var columns []string
	seen := make(map[string]bool)
	n := 0
	for _, t := range tables {
		for _, col := range t.columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		n += len(t.rows)
	}

	rows := make([][]any, 0, n)
	for _, t := range tables {
		for i := range t.rows {
			out := make([]any, len(columns))
			for j, col := range columns {
				out[j], _ = t.Value(i, col)
			}
			rows = append(rows, out)
		}
	}
	return &Table{columns: columns, index: indexOf(columns), rows: rows}
}

// InnerJoin matches rows of left and right on equal values of column on.
// Output order follows left, then right for repeated keys. Non-key columns
// present on both sides are suffixed with _x (left) and _y (right).
func InnerJoin(left, right *Table, on string) (*Table, error) {
	if !left.Has(on) {
		return nil, fmt.Errorf("left table: %w: %s", ErrMissingColumn, on)
	}
	if !right.Has(on) {
		return nil, fmt.Errorf("right table: %w: %s", ErrMissingColumn, on)
	}

	var columns []string
	for _, col := range left.columns {
		if col != on && right.Has(col) {
			col += "_x"
		}
		columns = append(columns, col)
	}
	var rightCols []string
	for _, col := range right.columns {
		if col == on {
			continue
		}
		rightCols = append(rightCols, col)
		if left.Has(col) {
			col += "_y"
		}
		columns = append(columns, col)
	}
	index := indexOf(columns)
	if len(index) != len(columns) {
		return nil, fmt.Errorf("join on %q produces duplicate column names", on)
	}

	byKey := make(map[any][]int)
	for i := range right.rows {
		k, _ := right.Value(i, on)
		byKey[k] = append(byKey[k], i)
	}

	var rows [][]any
	for i, row := range left.rows {
		k, _ := left.Value(i, on)
		for _, ri := range byKey[k] {
			out := append(make([]any, 0, len(columns)), row...)
			for _, col := range rightCols {
				v, _ := right.Value(ri, col)
				out = append(out, v)
			}
			rows = append(rows, out)
		}
	}
	return &Table{columns: columns, index: index, rows: rows}, nil
}

func indexOf(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return index
}
