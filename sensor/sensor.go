// Package sensor enumerates the imagery products that can be extracted.
package sensor

import (
	"errors"
	"fmt"
	"strings"

	"gee-tools/qamask"
)

var ErrUnknownSensor = errors.New("unknown sensor")

type Sensor int

const (
	Landsat8TOA Sensor = iota + 1
	Sentinel2Harmonized
)

// Config carries everything that differs between products.
type Config struct {
	Product      string
	Aliases      []string
	DefaultBands []string
	ExtraBands   []string
	// Scale is the sampling resolution in metres.
	Scale         float64
	QAColumn      string
	RescaleFactor float64
	// RescaleColumns lists fixed columns to rescale. When empty the requested
	// bands (minus the QA column) are rescaled instead.
	RescaleColumns []string
	// MetadataCollection is the collection scene angles are read from, if any.
	MetadataCollection string
}

var configs = map[Sensor]Config{
	Landsat8TOA: {
		Product:        "LANDSAT/LC08/C02/T1_TOA",
		Aliases:        []string{"landsat8", "l8"},
		DefaultBands:   []string{"B1", "B2", "B3", "B4"},
		ExtraBands:     []string{"SAA", "SZA", "VAA", "VZA", qamask.LandsatColumn},
		Scale:          30,
		QAColumn:       qamask.LandsatColumn,
		RescaleFactor:  0.01,
		RescaleColumns: []string{"SAA", "SZA", "VAA", "VZA"},
	},
	Sentinel2Harmonized: {
		Product:            "COPERNICUS/S2_HARMONIZED",
		Aliases:            []string{"sentinel2", "s2"},
		DefaultBands:       []string{"B1", "B2", "B3", "B4"},
		ExtraBands:         []string{qamask.SentinelColumn},
		Scale:              10,
		QAColumn:           qamask.SentinelColumn,
		RescaleFactor:      0.0001,
		MetadataCollection: "COPERNICUS/S2",
	},
}

func All() []Sensor {
	return []Sensor{Landsat8TOA, Sentinel2Harmonized}
}

// Parse accepts a full product id or one of its aliases, case-insensitively.
func Parse(s string) (Sensor, error) {
	s = strings.TrimSpace(s)
	for _, sn := range All() {
		cfg := configs[sn]
		if strings.EqualFold(s, cfg.Product) {
			return sn, nil
		}
		for _, alias := range cfg.Aliases {
			if strings.EqualFold(s, alias) {
				return sn, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSensor, s)
}

func (s Sensor) Config() Config {
	return configs[s]
}

func (s Sensor) String() string {
	if cfg, ok := configs[s]; ok {
		return cfg.Product
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// ShortName is the last path segment of the product id, used in output names.
func (s Sensor) ShortName() string {
	p := s.Config().Product
	return p[strings.LastIndex(p, "/")+1:]
}

// Bands returns requested followed by any extra bands it lacks. An empty
// request falls back to the default bands.
func (s Sensor) Bands(requested []string) []string {
	cfg := s.Config()
	if len(requested) == 0 {
		requested = cfg.DefaultBands
	}
	out := append([]string(nil), requested...)
	for _, band := range cfg.ExtraBands {
		if !contains(out, band) {
			out = append(out, band)
		}
	}
	return out
}

// RescaleColumns returns the columns multiplied by RescaleFactor for a
// request of bands.
func (s Sensor) RescaleColumns(bands []string) []string {
	cfg := s.Config()
	if len(cfg.RescaleColumns) > 0 {
		return append([]string(nil), cfg.RescaleColumns...)
	}
	var out []string
	for _, band := range bands {
		if band != cfg.QAColumn {
			out = append(out, band)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
