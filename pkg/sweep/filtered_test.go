package sweep

import (
	"errors"
	"testing"
)

func greaterThan(a, b string) Predicate {
	return func(set Params) (bool, error) {
		av, ok := set.Get(a)
		if !ok {
			return false, errors.New("missing " + a)
		}
		bv, ok := set.Get(b)
		if !ok {
			return false, errors.New("missing " + b)
		}
		return av.(int) > bv.(int), nil
	}
}

func TestFilteredKeepsProductOrder(t *testing.T) {
	sp, err := NewFiltered(greaterThan("x", "y"),
		Axis{Name: "x", Values: []any{1, 2, 3}},
		Axis{Name: "y", Values: []any{1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("NewFiltered() error = %v", err)
	}
	if got := sp.Length(); got != 3 {
		t.Fatalf("Length() = %d, want 3", got)
	}

	want := []string{"x=2, y=1", "x=3, y=1", "x=3, y=2"}
	for i, set := range collect(t, sp) {
		if got := set.String(); got != want[i] {
			t.Errorf("set %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestFilteredEmptyResult(t *testing.T) {
	none := func(Params) (bool, error) { return false, nil }
	sp, err := NewFiltered(none, Axis{Name: "x", Values: []any{1, 2}})
	if err != nil {
		t.Fatalf("NewFiltered() error = %v", err)
	}
	if got := sp.Length(); got != 0 {
		t.Errorf("Length() = %d, want 0", got)
	}
	for set := range sp.All() {
		t.Errorf("All() yielded %v from an empty space", set)
	}

	m, err := sp.Mapping(nil, "test", false)
	if err != nil {
		t.Fatalf("Mapping() error = %v", err)
	}
	if tbl := m.(*Table); tbl.Len() != 0 {
		t.Errorf("Table.Len() = %d, want 0", tbl.Len())
	}
}

func TestFilteredPredicateError(t *testing.T) {
	boom := func(Params) (bool, error) { return false, errors.New("boom") }
	if _, err := NewFiltered(boom, Axis{Name: "x", Values: []any{1}}); err == nil {
		t.Fatal("NewFiltered() with a failing predicate should fail")
	}
}

func TestFilteredNilPredicate(t *testing.T) {
	if _, err := NewFiltered(nil, Axis{Name: "x", Values: []any{1}}); err == nil {
		t.Fatal("NewFiltered(nil) should fail")
	}
}

func TestFilteredInvalidAxes(t *testing.T) {
	all := func(Params) (bool, error) { return true, nil }
	if _, err := NewFiltered(all); err == nil {
		t.Fatal("NewFiltered() without axes should fail")
	}
}

func TestFilteredMapping(t *testing.T) {
	sp, err := NewFiltered(greaterThan("x", "y"),
		Axis{Name: "x", Values: []any{1, 2}},
		Axis{Name: "y", Values: []any{1, 2}},
	)
	if err != nil {
		t.Fatalf("NewFiltered() error = %v", err)
	}

	m, err := sp.Mapping([]string{"only"}, "test", false)
	if err != nil {
		t.Fatalf("Mapping() error = %v", err)
	}
	tbl := m.(*Table)
	set, ok := tbl.Get("only")
	if !ok {
		t.Fatal("Get(only) missing")
	}
	if got := set.String(); got != "x=2, y=1" {
		t.Errorf("Get(only) = %q, want %q", got, "x=2, y=1")
	}
}
