package pointsio

import (
	"encoding/csv"
	"os"

	"gee-tools/table"

	"github.com/sirupsen/logrus"
)

func WriteCSV(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return err
	}

	record := make([]string, len(t.Columns()))
	for i := 0; i < t.Len(); i++ {
		if i%10000 == 0 {
			logrus.Debugf("Writing row %d", i)
		}
		for j, v := range t.Row(i).Values() {
			record[j] = table.Format(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	return nil
}
