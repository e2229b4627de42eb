package sweep

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestTableOrderAndLookup(t *testing.T) {
	ids := []string{"b", "a", "c"}
	sets := []Params{
		MakeParams(Param{Name: "x", Value: 1}),
		MakeParams(Param{Name: "x", Value: 2}),
		MakeParams(Param{Name: "x", Value: 3}),
	}
	tbl := newTable(ids, sets, "test")

	if got := tbl.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	// Assignment order, not sorted order.
	if got := tbl.IDs(); !reflect.DeepEqual(got, ids) {
		t.Errorf("IDs() = %v, want %v", got, ids)
	}
	set, ok := tbl.Get("a")
	if !ok {
		t.Fatal("Get(a) missing")
	}
	if v, _ := set.Get("x"); v != 2 {
		t.Errorf("a.x = %v, want 2", v)
	}
	if _, ok := tbl.Get("zz"); ok {
		t.Error("Get(zz) reported ok")
	}
}

func TestTableDuplicateID(t *testing.T) {
	// A duplicate ID keeps its first position and takes the last set; hash
	// naming uses the collision to flag duplicate configurations.
	tbl := newTable(
		[]string{"dup", "other", "dup"},
		[]Params{
			MakeParams(Param{Name: "x", Value: 1}),
			MakeParams(Param{Name: "x", Value: 2}),
			MakeParams(Param{Name: "x", Value: 3}),
		},
		"test")

	if got, want := tbl.IDs(), []string{"dup", "other"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	set, _ := tbl.Get("dup")
	if v, _ := set.Get("x"); v != 3 {
		t.Errorf("dup.x = %v, want 3 (last set wins)", v)
	}
}

func TestTableMarshalJSON(t *testing.T) {
	tbl := newTable(
		[]string{"z9", "a1"},
		[]Params{
			MakeParams(Param{Name: "b", Value: 2}, Param{Name: "a", Value: 1}),
			MakeParams(Param{Name: "x", Value: "s"}),
		},
		"test")

	raw, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"z9":{"b":2,"a":1},"a1":{"x":"s"}}`
	if string(raw) != want {
		t.Errorf("Marshal() = %s, want %s", raw, want)
	}
}

func TestTableWriteFile(t *testing.T) {
	tbl := newTable(
		[]string{"07b17f1d"},
		[]Params{MakeParams(Param{Name: "x", Value: 1.5})},
		"sweep1")

	if got, want := tbl.Filename(), "sim_ids_sweep1.json"; got != want {
		t.Fatalf("Filename() = %q, want %q", got, want)
	}

	path := filepath.Join(t.TempDir(), tbl.Filename())
	if err := tbl.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("mapping file does not end with a newline")
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("mapping file is not valid JSON: %v", err)
	}
	if got := decoded["07b17f1d"]["x"]; got != 1.5 {
		t.Errorf("decoded x = %v, want 1.5", got)
	}
}

func TestTableMappingCountMismatch(t *testing.T) {
	sets := []Params{MakeParams(Param{Name: "x", Value: 1})}
	if _, err := tableMapping([]string{"a", "b"}, sets, "test", false); err == nil {
		t.Fatal("tableMapping() with mismatched counts should fail")
	}
}

func TestTableMappingPersists(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	sets := []Params{MakeParams(Param{Name: "x", Value: 1})}
	m, err := tableMapping([]string{"a"}, sets, "persisted", true)
	if err != nil {
		t.Fatalf("tableMapping() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, m.Filename())); err != nil {
		t.Fatalf("mapping file not written: %v", err)
	}
}
