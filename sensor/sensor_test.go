package sensor

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	cases := map[string]Sensor{
		"LANDSAT/LC08/C02/T1_TOA":  Landsat8TOA,
		"landsat8":                 Landsat8TOA,
		"COPERNICUS/S2_HARMONIZED": Sentinel2Harmonized,
		" S2 ":                     Sentinel2Harmonized,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "LANDSAT/LC08/C02/T1_TOAX", "COPERNICUS/S2"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownSensor) {
			t.Errorf("Parse(%q): got %v, want ErrUnknownSensor", in, err)
		}
	}
}

func TestBandsAppendsExtras(t *testing.T) {
	requested := []string{"B4", "QA_PIXEL"}
	got := Landsat8TOA.Bands(requested)
	want := []string{"B4", "QA_PIXEL", "SAA", "SZA", "VAA", "VZA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(requested) != 2 {
		t.Errorf("request was modified: %v", requested)
	}

	got = Sentinel2Harmonized.Bands(nil)
	want = []string{"B1", "B2", "B3", "B4", "QA60"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRescaleColumns(t *testing.T) {
	bands := Sentinel2Harmonized.Bands([]string{"B2", "B8"})
	if got, want := Sentinel2Harmonized.RescaleColumns(bands), []string{"B2", "B8"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := Landsat8TOA.RescaleColumns(nil), []string{"SAA", "SZA", "VAA", "VZA"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestShortName(t *testing.T) {
	if got := Landsat8TOA.ShortName(); got != "T1_TOA" {
		t.Errorf("got %s", got)
	}
	if got := Sentinel2Harmonized.ShortName(); got != "S2_HARMONIZED" {
		t.Errorf("got %s", got)
	}
}
