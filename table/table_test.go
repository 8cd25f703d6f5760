package table

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestNewRejectsRaggedRows(t *testing.T) {
	if _, err := New([]string{"a", "b"}, [][]any{{1.0}}); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := New([]string{"a", "a"}, nil); err == nil {
		t.Error("expected error for duplicate column")
	}
}

func TestWithColumnDoesNotMutate(t *testing.T) {
	orig := MustNew([]string{"a"}, [][]any{{1.0}, {2.0}})
	got, err := orig.WithColumn("b", func(r Row) (any, error) {
		v, _ := r.Get("a")
		return v.(float64) * 10, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if orig.Has("b") {
		t.Error("original table gained a column")
	}
	want := [][]any{{1.0, 10.0}, {2.0, 20.0}}
	for i := range want {
		if !reflect.DeepEqual(got.Row(i).Values(), want[i]) {
			t.Errorf("row %d: got %v, want %v", i, got.Row(i).Values(), want[i])
		}
	}
}

func TestWithColumnReplacesInPlace(t *testing.T) {
	orig := MustNew([]string{"a", "b"}, [][]any{{1.0, "x"}})
	got, err := orig.WithColumn("a", func(Row) (any, error) { return 5.0, nil })
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Columns(), []string{"a", "b"}) {
		t.Errorf("got columns %v", got.Columns())
	}
	if v, _ := got.Value(0, "a"); v != 5.0 {
		t.Errorf("got %v, want 5", v)
	}
	if v, _ := orig.Value(0, "a"); v != 1.0 {
		t.Errorf("original mutated to %v", v)
	}
}

func TestMapColumnMissing(t *testing.T) {
	orig := MustNew([]string{"a"}, nil)
	_, err := orig.MapColumn("b", func(v any) (any, error) { return v, nil })
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestConcat(t *testing.T) {
	a := MustNew([]string{"id", "B1"}, [][]any{{"1", 0.5}})
	b := MustNew([]string{"id", "B2"}, [][]any{{"2", 0.7}})

	got := Concat(a, b)
	if !reflect.DeepEqual(got.Columns(), []string{"id", "B1", "B2"}) {
		t.Fatalf("got columns %v", got.Columns())
	}
	want := [][]any{{"1", 0.5, nil}, {"2", nil, 0.7}}
	for i := range want {
		if !reflect.DeepEqual(got.Row(i).Values(), want[i]) {
			t.Errorf("row %d: got %v, want %v", i, got.Row(i).Values(), want[i])
		}
	}
}

func TestInnerJoin(t *testing.T) {
	left := MustNew([]string{"site", "latitude", "B2"}, [][]any{
		{"a", 1.0, 0.1},
		{"b", 2.0, 0.2},
		{"a", 1.0, 0.3},
	})
	right := MustNew([]string{"site", "latitude", "SAA"}, [][]any{
		{"a", 1.5, 120.0},
	})

	got, err := InnerJoin(left, right, "site")
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []string{"site", "latitude_x", "B2", "latitude_y", "SAA"}
	if !reflect.DeepEqual(got.Columns(), wantCols) {
		t.Fatalf("got columns %v, want %v", got.Columns(), wantCols)
	}
	if got.Len() != 2 {
		t.Fatalf("got %d rows, want 2", got.Len())
	}
	want := []any{"a", 1.0, 0.3, 1.5, 120.0}
	if !reflect.DeepEqual(got.Row(1).Values(), want) {
		t.Errorf("got %v, want %v", got.Row(1).Values(), want)
	}
}

func TestScale(t *testing.T) {
	orig := MustNew([]string{"SZA", "name"}, [][]any{{int64(4500), "x"}, {nil, "y"}})
	got, err := Scale(orig, []string{"SZA"}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Value(0, "SZA"); math.Abs(v.(float64)-45) > 1e-9 {
		t.Errorf("got %v, want 45", v)
	}
	if v, _ := got.Value(1, "SZA"); v != nil {
		t.Errorf("got %v, want nil", v)
	}

	if _, err := Scale(orig, []string{"name"}, 2); err == nil {
		t.Error("expected error scaling strings")
	}
	if _, err := Scale(orig, []string{"VZA"}, 2); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}
