// Package qamask decodes bit-packed quality words into cloud and snow labels.
//
// A quality word is read as a 16 bit field, bit 0 being the least significant.
// Landsat Collection 2 QA_PIXEL flags cloud on bit 3 and snow on bit 5.
// Sentinel-2 QA60 flags opaque clouds on bit 10 and cirrus on bit 11.
package qamask

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gee-tools/table"

	"github.com/sirupsen/logrus"
)

const (
	LandsatColumn  = "QA_PIXEL"
	SentinelColumn = "QA60"
	LabelColumn    = "QA_label"

	WordBits = 16
)

type Label string

const (
	Clear Label = ""
	Cloud Label = "Cloud"
	Snow  Label = "Snow"
)

// Bits unpacks the low 16 bits of word, index 0 holding the LSB.
func Bits(word uint64) [WordBits]bool {
	var bits [WordBits]bool
	for k := range bits {
		bits[k] = (word>>k)&1 == 1
	}
	return bits
}

func Landsat(word uint64) Label {
	bits := Bits(word)
	// Cloud wins when both flags are set.
	switch {
	case bits[3]:
		return Cloud
	case bits[5]:
		return Snow
	default:
		return Clear
	}
}

func Sentinel(word uint64) Label {
	bits := Bits(word)
	if bits[10] || bits[11] {
		return Cloud
	}
	return Clear
}

// Word coerces a table cell to a quality word. Missing, negative, fractional
// or non-numeric cells are errors.
func Word(v any) (uint64, error) {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("quality word %q: %w", s, err)
		}
		return n, nil
	}
	if v == nil {
		return 0, fmt.Errorf("quality word is missing")
	}
	f, ok := table.Float(v)
	if !ok {
		return 0, fmt.Errorf("quality word %v has type %T", v, v)
	}
	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("quality word %v is not a non-negative integer", v)
	}
	// float64(MaxUint64) rounds up to 2^64, the first value that overflows.
	if f >= math.MaxUint64 {
		return 0, fmt.Errorf("quality word %v overflows 64 bits", v)
	}
	return uint64(f), nil
}

// Decode appends LabelColumn to t. The rule is picked by which quality column
// the table carries; a table carrying neither gets an empty label on every row.
// The first row that fails to coerce aborts the whole decode.
func Decode(t *table.Table) (*table.Table, error) {
	var col string
	var rule func(uint64) Label
	switch {
	case t.Has(LandsatColumn):
		col, rule = LandsatColumn, Landsat
	case t.Has(SentinelColumn):
		col, rule = SentinelColumn, Sentinel
	default:
		logrus.Debug("No quality column present, labels left empty")
		return t.WithColumn(LabelColumn, func(table.Row) (any, error) {
			return string(Clear), nil
		})
	}

	logrus.Debugf("Decoding quality column %s", col)
	return t.WithColumn(LabelColumn, func(r table.Row) (any, error) {
		v, _ := r.Get(col)
		word, err := Word(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		return string(rule(word)), nil
	})
}
