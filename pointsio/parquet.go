package pointsio

import (
	"errors"
	"os"

	"gee-tools/table"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
)

// Rows are buffered and flushed in groups of this size.
const RowGroupSize = 10000

// WriteParquet writes t with one optional column per table column, in table
// order: DOUBLE when every non-null cell is numeric, UTF8 otherwise.
func WriteParquet(t *table.Table, path string) (err error) {
	output, err := os.Create(path)
	if err != nil {
		return err
	}

	schema := schemaOf(t)
	writer := parquet.NewWriter(output, schema, parquet.Compression(&parquet.Snappy))
	defer func() {
		// Close writes the footer, a file is only valid once both succeed.
		err = errors.Join(err, writer.Close(), output.Close())
	}()

	fields := schema.Fields()
	rowBuf := make([]parquet.Row, 0, RowGroupSize)
	for i := 0; i < t.Len(); i++ {
		row := make(parquet.Row, len(fields))
		for j, field := range fields {
			v, _ := t.Value(i, field.Name())
			row[j] = leafValue(v, field.Type().Kind()).Level(0, definitionLevel(v), j)
		}
		rowBuf = append(rowBuf, row)

		if len(rowBuf) == RowGroupSize {
			logrus.Infof("Writing row %d", i)
			if _, err := writer.WriteRows(rowBuf); err != nil {
				return err
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			rowBuf = rowBuf[:0]
		}
	}
	if _, err := writer.WriteRows(rowBuf); err != nil {
		return err
	}
	return nil
}

func schemaOf(t *table.Table) *parquet.Schema {
	group := columnGroup{Group: parquet.Group{}, order: t.Columns()}
	for _, col := range t.Columns() {
		if numericColumn(t, col) {
			group.Group[col] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group.Group[col] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema("observation", group)
}

// columnGroup is a parquet.Group listing its fields in a fixed order instead
// of by name.
type columnGroup struct {
	parquet.Group
	order []string
}

func (g columnGroup) Fields() []parquet.Field {
	byName := make(map[string]parquet.Field, len(g.Group))
	for _, f := range g.Group.Fields() {
		byName[f.Name()] = f
	}
	fields := make([]parquet.Field, 0, len(g.order))
	for _, name := range g.order {
		fields = append(fields, byName[name])
	}
	return fields
}

func numericColumn(t *table.Table, col string) bool {
	for i := 0; i < t.Len(); i++ {
		v, _ := t.Value(i, col)
		if v == nil {
			continue
		}
		if _, ok := table.Float(v); !ok {
			return false
		}
	}
	return true
}

func leafValue(v any, kind parquet.Kind) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}
	if kind == parquet.Double {
		f, _ := table.Float(v)
		return parquet.DoubleValue(f)
	}
	return parquet.ByteArrayValue([]byte(table.Format(v)))
}

func definitionLevel(v any) int {
	if v == nil {
		return 0
	}
	return 1
}
