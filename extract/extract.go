// Package extract pulls per-point pixel time series out of Earth Engine and
// assembles them into a single labelled, rescaled table.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gee-tools/gee"
	"gee-tools/pointsio"
	"gee-tools/qamask"
	"gee-tools/sensor"
	"gee-tools/table"

	"github.com/araddon/dateparse"
	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
)

const S2CellColumn = "s2_cell"

type PixelFetcher interface {
	FetchPixels(ctx context.Context, req gee.PixelRequest) (*table.Table, error)
}

type SceneFinder interface {
	FirstScene(ctx context.Context, req gee.SceneRequest) (map[string]any, error)
}

type Options struct {
	Sensor sensor.Sensor
	Start  time.Time
	End    time.Time
	// Bands requested on top of the sensor's auxiliary bands. Empty means the
	// sensor defaults.
	Bands []string
	// Pad in kilometres around each point, 0 samples the point itself.
	Pad float64
	// Aggregate, when set with a non-zero Pad, reduces each image's window
	// to a single row.
	Aggregate AggFunc
	DestDir   string
	Format    Format
	// S2Level adds an s2_cell token column at that level when in 1..30.
	S2Level int
}

func (o Options) validate() error {
	if o.Sensor.Config().Product == "" {
		return fmt.Errorf("%w: %v", sensor.ErrUnknownSensor, o.Sensor)
	}
	if o.Start.IsZero() || o.End.IsZero() {
		return errors.New("start and end dates are required")
	}
	if !o.Start.Before(o.End) {
		return fmt.Errorf("start date %s is not before end date %s", o.Start.Format(dateLayout), o.End.Format(dateLayout))
	}
	if o.S2Level < 0 || o.S2Level > s2.MaxLevel {
		return fmt.Errorf("s2 level %d out of range", o.S2Level)
	}
	return nil
}

// ParseDate accepts any common date layout and keeps only the calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate(%q): %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Run fetches every point in turn, labels the quality word, rescales the
// sensor's angle or reflectance columns and, when the sensor keeps angles on
// the scene, joins them back in by point id.
func Run(ctx context.Context, fetcher PixelFetcher, scenes SceneFinder, pts pointsio.Points, opts Options) (*table.Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(pts.Points) == 0 {
		return nil, errors.New("no points to extract")
	}
	if pts.IDColumn == "" {
		return nil, errors.New("points have no id column")
	}

	cfg := opts.Sensor.Config()
	bands := opts.Sensor.Bands(opts.Bands)
	logrus.Infof("Fetching %s for %s to %s", cfg.Product, opts.Start.Format(dateLayout), opts.End.Format(dateLayout))

	observations, err := fetchAll(ctx, fetcher, pts, bands, opts)
	if err != nil {
		return nil, err
	}

	labelled, err := qamask.Decode(observations)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cfg.QAColumn, err)
	}

	scaled, err := table.Scale(labelled, opts.Sensor.RescaleColumns(bands), cfg.RescaleFactor)
	if err != nil {
		return nil, fmt.Errorf("rescale: %w", err)
	}

	if cfg.MetadataCollection == "" {
		return scaled, nil
	}
	if scenes == nil {
		return nil, fmt.Errorf("%s needs a scene finder for its angles", cfg.Product)
	}
	logrus.Infof("Fetching solar and sensor angles from %s", cfg.MetadataCollection)
	meta, err := sceneAngles(ctx, scenes, pts, angleBands(bands, cfg.QAColumn), cfg.MetadataCollection, opts)
	if err != nil {
		return nil, err
	}
	return table.InnerJoin(scaled, meta, pts.IDColumn)
}

func fetchAll(ctx context.Context, fetcher PixelFetcher, pts pointsio.Points, bands []string, opts Options) (*table.Table, error) {
	cfg := opts.Sensor.Config()
	parts := make([]*table.Table, 0, len(pts.Points))
	for i, p := range pts.Points {
		logrus.WithField(pts.IDColumn, p.ID).Infof("Extracting point %d/%d", i+1, len(pts.Points))
		t, err := fetcher.FetchPixels(ctx, gee.PixelRequest{
			Product: cfg.Product,
			Bands:   bands,
			Lat:     p.Lat,
			Lon:     p.Lon,
			Start:   opts.Start,
			End:     opts.End,
			Scale:   cfg.Scale,
			Pad:     opts.Pad,
		})
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", p.ID, err)
		}
		if opts.Pad > 0 && opts.Aggregate != nil {
			t, err = aggregateWindow(t, bands, cfg.QAColumn, opts.Aggregate)
			if err != nil {
				return nil, fmt.Errorf("point %s: %w", p.ID, err)
			}
		}

		id := p.ID
		t, err = t.WithColumn(pts.IDColumn, func(table.Row) (any, error) { return id, nil })
		if err != nil {
			return nil, err
		}
		if opts.S2Level > 0 {
			token := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Parent(opts.S2Level).ToToken()
			t, err = t.WithColumn(S2CellColumn, func(table.Row) (any, error) { return token, nil })
			if err != nil {
				return nil, err
			}
		}
		parts = append(parts, t)
	}
	return table.Concat(parts...), nil
}

func angleBands(bands []string, qaColumn string) []string {
	var out []string
	for _, band := range bands {
		if band != qaColumn {
			out = append(out, band)
		}
	}
	return out
}
