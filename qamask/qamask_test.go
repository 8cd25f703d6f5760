package qamask

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"gee-tools/table"
)

func TestBitsMatchShift(t *testing.T) {
	for v := uint64(0); v <= 0xFFFF; v++ {
		bits := Bits(v)
		for k := 0; k < WordBits; k++ {
			if bits[k] != ((v>>k)&1 == 1) {
				t.Fatalf("word %d bit %d: got %v", v, k, bits[k])
			}
		}
	}
}

// The zero padded, reversed binary string must agree with Bits.
func TestBitsMatchReversedBinaryString(t *testing.T) {
	for _, v := range []uint64{0, 1, 40, 1024, 2048, 0xFFFF, 0x8001} {
		s := fmt.Sprintf("%016b", v)
		bits := Bits(v)
		for k := 0; k < WordBits; k++ {
			want := s[WordBits-1-k] == '1'
			if bits[k] != want {
				t.Errorf("word %d bit %d: got %v, want %v", v, k, bits[k], want)
			}
		}
	}
}

func TestLandsat(t *testing.T) {
	cases := map[uint64]Label{
		0:       Clear,
		40:      Cloud, // 0b101000, bits 3 and 5
		1 << 3:  Cloud,
		1 << 5:  Snow,
		1 << 10: Clear,
		21824:   Clear, // typical clear land pixel
	}
	for word, want := range cases {
		if got := Landsat(word); got != want {
			t.Errorf("Landsat(%d) = %q, want %q", word, got, want)
		}
	}
}

func TestLandsatPriority(t *testing.T) {
	for v := uint64(0); v <= 0xFFFF; v++ {
		if v&(1<<3) != 0 && v&(1<<5) != 0 && Landsat(v) != Cloud {
			t.Fatalf("word %d has cloud and snow bits but got %q", v, Landsat(v))
		}
	}
}

func TestSentinelOrLaw(t *testing.T) {
	for v := uint64(0); v <= 0xFFFF; v++ {
		cloudy := v&(1<<10) != 0 || v&(1<<11) != 0
		got := Sentinel(v)
		if cloudy && got != Cloud || !cloudy && got != Clear {
			t.Fatalf("Sentinel(%d) = %q", v, got)
		}
	}
	if got := Sentinel(1024); got != Cloud {
		t.Errorf("Sentinel(1024) = %q, want Cloud", got)
	}
	if got := Sentinel(0); got != Clear {
		t.Errorf("Sentinel(0) = %q, want empty", got)
	}
}

func TestWord(t *testing.T) {
	good := map[any]uint64{
		40.0:          40,
		int64(1024):   1024,
		"2048":        2048,
		" 7 ":         7,
		float64(0):    0,
		math.Exp2(53): 1 << 53,
	}
	for in, want := range good {
		got, err := Word(in)
		if err != nil {
			t.Errorf("Word(%v): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Word(%v) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []any{nil, "cloudy", -1.0, 2.5, true, 1e20, math.Inf(1), math.Exp2(64)} {
		if _, err := Word(in); err == nil {
			t.Errorf("Word(%v): expected error", in)
		}
	}
}

func labels(t *testing.T, tbl *table.Table) []any {
	t.Helper()
	var out []any
	for i := 0; i < tbl.Len(); i++ {
		v, ok := tbl.Value(i, LabelColumn)
		if !ok {
			t.Fatalf("no %s column", LabelColumn)
		}
		out = append(out, v)
	}
	return out
}

func TestDecodeDispatchesOnColumn(t *testing.T) {
	landsat := table.MustNew([]string{"B1", LandsatColumn}, [][]any{
		{0.1, 40.0}, {0.2, 32.0}, {0.3, 1024.0},
	})
	got, err := Decode(landsat)
	if err != nil {
		t.Fatal(err)
	}
	if want := []any{"Cloud", "Snow", ""}; !reflect.DeepEqual(labels(t, got), want) {
		t.Errorf("landsat: got %v, want %v", labels(t, got), want)
	}

	sentinel := table.MustNew([]string{SentinelColumn}, [][]any{
		{1024.0}, {2048.0}, {40.0}, {0.0},
	})
	got, err = Decode(sentinel)
	if err != nil {
		t.Fatal(err)
	}
	if want := []any{"Cloud", "Cloud", "", ""}; !reflect.DeepEqual(labels(t, got), want) {
		t.Errorf("sentinel: got %v, want %v", labels(t, got), want)
	}

	neither := table.MustNew([]string{"B1"}, [][]any{{40.0}, {1024.0}})
	got, err = Decode(neither)
	if err != nil {
		t.Fatal(err)
	}
	if want := []any{"", ""}; !reflect.DeepEqual(labels(t, got), want) {
		t.Errorf("neither: got %v, want %v", labels(t, got), want)
	}
}

func TestDecodePassesColumnsThrough(t *testing.T) {
	in := table.MustNew([]string{"id", LandsatColumn}, [][]any{{"p1", 8.0}})
	got, err := Decode(in)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"p1", 8.0, "Cloud"}
	if !reflect.DeepEqual(got.Row(0).Values(), want) {
		t.Errorf("got %v, want %v", got.Row(0).Values(), want)
	}
	if in.Has(LabelColumn) {
		t.Error("input table was modified")
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	in := table.MustNew([]string{SentinelColumn}, [][]any{{3072.0}, {1.0}})
	first, err := Decode(in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Decode(first)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(labels(t, first), labels(t, second)) {
		t.Errorf("got %v then %v", labels(t, first), labels(t, second))
	}
}

func TestDecodeAbortsOnBadWord(t *testing.T) {
	in := table.MustNew([]string{LandsatColumn}, [][]any{{8.0}, {nil}, {"x"}})
	_, err := Decode(in)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("error should name the first bad row: %v", err)
	}
}
