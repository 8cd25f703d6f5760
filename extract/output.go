package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gee-tools/pointsio"
	"gee-tools/table"
)

const dateLayout = "2006-01-02"

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, Parquet:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q, choose from: csv, parquet", s)
	}
}

// OutputPath names the output after the product and date range. Without a
// destination it lands next to the points file, or in the working directory
// for in-memory points.
func OutputPath(pts pointsio.Points, opts Options) (string, error) {
	dir := opts.DestDir
	if dir == "" {
		dir = pts.Dir
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	format := opts.Format
	if format == "" {
		format = CSV
	}
	name := fmt.Sprintf("%s_%s_%s.%s", opts.Sensor.ShortName(),
		opts.Start.Format(dateLayout), opts.End.Format(dateLayout), format)
	return filepath.Join(dir, name), nil
}

func Write(t *table.Table, path string, format Format) error {
	switch format {
	case Parquet:
		return pointsio.WriteParquet(t, path)
	case CSV, "":
		return pointsio.WriteCSV(t, path)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
