package pointsio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gee-tools/table"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"
)

const (
	LatColumn = "lat"
	LonColumn = "lon"
)

// ErrNotPoint is returned for a feature with neither lat/lon attributes nor a
// point geometry.
var ErrNotPoint = errors.New("geometry is not a point")

type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Points is a loaded point dataset. Dir is the directory of the file it was
// read from, empty for in-memory input.
type Points struct {
	IDColumn string
	Points   []Point
	Dir      string
}

// Read loads points from a delimited text file (.csv) or any vector source
// GDAL can open (shapefile, GeoJSON, GeoPackage...).
func Read(path string, idCol string) (Points, error) {
	var pts Points
	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		pts, err = readCSVFile(path, idCol)
	} else {
		pts, err = ReadVector(path, idCol)
	}
	if err != nil {
		return Points{}, err
	}
	pts.Dir = filepath.Dir(path)
	logrus.Infof("Loaded %d points from %s", len(pts.Points), path)
	return pts, nil
}

// FromTable takes points from an in-memory table carrying lat, lon and idCol.
func FromTable(t *table.Table, idCol string) (Points, error) {
	for _, col := range []string{idCol, LatColumn, LonColumn} {
		if !t.Has(col) {
			return Points{}, fmt.Errorf("points: %w: %s", table.ErrMissingColumn, col)
		}
	}
	pts := Points{IDColumn: idCol, Points: make([]Point, t.Len())}
	for i := 0; i < t.Len(); i++ {
		id, _ := t.Value(i, idCol)
		lat, err := coord(t.Row(i), LatColumn)
		if err != nil {
			return Points{}, err
		}
		lon, err := coord(t.Row(i), LonColumn)
		if err != nil {
			return Points{}, err
		}
		pts.Points[i] = Point{ID: table.Format(id), Lat: lat, Lon: lon}
	}
	return pts, nil
}

func coord(r table.Row, col string) (float64, error) {
	v, _ := r.Get(col)
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("points row %d: %s: %w", r.Index(), col, err)
		}
		return f, nil
	}
	f, ok := table.Float(v)
	if !ok {
		return 0, fmt.Errorf("points row %d: %s is not a number: %v", r.Index(), col, v)
	}
	return f, nil
}

func readCSVFile(path string, idCol string) (pts Points, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Points{}, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return ReadCSV(f, idCol)
}

// ReadCSV reads a header row followed by point rows. Every cell is kept as a
// string; lat and lon are parsed as numbers.
func ReadCSV(r io.Reader, idCol string) (Points, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return Points{}, fmt.Errorf("points csv: %w", err)
	}
	if len(records) == 0 {
		return Points{}, errors.New("points csv: no header row")
	}

	header := records[0]
	rows := make([][]any, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		rows[i] = row
	}
	t, err := table.New(header, rows)
	if err != nil {
		return Points{}, fmt.Errorf("points csv: %w", err)
	}
	return FromTable(t, idCol)
}

// ReadVector reads the first layer of a GDAL vector dataset. lat and lon
// attributes are used when present, otherwise the feature must be a point and
// its geometry is taken in WGS84.
func ReadVector(path string, idCol string) (pts Points, err error) {
	godal.RegisterAll()

	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return Points{}, err
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	layers := ds.Layers()
	if len(layers) == 0 {
		return Points{}, fmt.Errorf("%s has no vector layers", path)
	}
	if len(layers) > 1 {
		logrus.Warnf("%s has %d layers, reading only the first", path, len(layers))
	}

	wgs84, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return Points{}, err
	}
	defer wgs84.Close()

	pts.IDColumn = idCol
	for i := 0; ; i++ {
		feat := layers[0].NextFeature()
		if feat == nil {
			break
		}
		pt, err := featurePoint(feat, idCol, wgs84)
		feat.Close()
		if err != nil {
			return Points{}, fmt.Errorf("feature %d: %w", i, err)
		}
		pts.Points = append(pts.Points, pt)
	}
	return pts, nil
}

func featurePoint(feat *godal.Feature, idCol string, wgs84 *godal.SpatialRef) (Point, error) {
	fields := feat.Fields()
	id, ok := fields[idCol]
	if !ok {
		return Point{}, fmt.Errorf("%w: %s", table.ErrMissingColumn, idCol)
	}
	pt := Point{ID: id.String()}

	lat, hasLat := fields[LatColumn]
	lon, hasLon := fields[LonColumn]
	if hasLat && hasLon && lat.IsSet() && lon.IsSet() {
		pt.Lat, pt.Lon = lat.Float(), lon.Float()
		return pt, nil
	}

	geom := feat.Geometry()
	defer geom.Close()
	if geom.Empty() {
		return Point{}, errors.New("no lat/lon attributes and no geometry")
	}
	switch geom.Type() {
	case godal.GTPoint, godal.GTPoint25D:
	default:
		return Point{}, fmt.Errorf("%w: %s", ErrNotPoint, geom.Name())
	}
	// The envelope of a point is the point itself.
	bounds, err := geom.Bounds(wgs84)
	if err != nil {
		return Point{}, err
	}
	pt.Lon, pt.Lat = bounds[0], bounds[1]
	return pt, nil
}
