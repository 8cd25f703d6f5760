package extract

import (
	"context"
	"fmt"

	"gee-tools/gee"
	"gee-tools/pointsio"
	"gee-tools/table"

	"github.com/sirupsen/logrus"
)

const (
	solarAzimuthProp    = "MEAN_SOLAR_AZIMUTH_ANGLE"
	solarZenithProp     = "MEAN_SOLAR_ZENITH_ANGLE"
	incidenceAzimuthFmt = "MEAN_INCIDENCE_AZIMUTH_ANGLE_%s"
	incidenceZenithFmt  = "MEAN_INCIDENCE_ZENITH_ANGLE_%s"
)

// sceneAngles builds one row per point from the first scene covering it.
// Points with no scene in range get no row.
func sceneAngles(ctx context.Context, scenes SceneFinder, pts pointsio.Points, bands []string, collection string, opts Options) (*table.Table, error) {
	columns := []string{pts.IDColumn, "latitude", "longitude", "SAA", "SZA"}
	for _, band := range bands {
		columns = append(columns, "VAA_"+band, "VZA_"+band)
	}

	var rows [][]any
	for _, p := range pts.Points {
		log := logrus.WithField(pts.IDColumn, p.ID)
		props, err := scenes.FirstScene(ctx, gee.SceneRequest{
			Collection: collection,
			Lat:        p.Lat,
			Lon:        p.Lon,
			Start:      opts.Start,
			End:        opts.End,
		})
		if err != nil {
			return nil, fmt.Errorf("scene angles for point %s: %w", p.ID, err)
		}
		if props == nil {
			log.Warn("No scene found, point dropped from output")
			continue
		}

		row := []any{p.ID, p.Lat, p.Lon, props[solarAzimuthProp], props[solarZenithProp]}
		for _, band := range bands {
			row = append(row,
				props[fmt.Sprintf(incidenceAzimuthFmt, band)],
				props[fmt.Sprintf(incidenceZenithFmt, band)])
		}
		log.Debug("Scene angles fetched")
		rows = append(rows, row)
	}
	return table.New(columns, rows)
}
