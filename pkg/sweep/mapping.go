package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Mapping relates the simulation IDs of a finished sweep back to their
// parameter sets. Cartesian spaces produce a dense *Grid; every other
// variant produces a sparse *Table.
type Mapping interface {
	// Filename returns the artifact name the mapping persists under,
	// derived from the sweep ID.
	Filename() string

	// WriteFile persists the mapping to path.
	WriteFile(path string) error
}

// Table is a sparse simulation-ID to parameter-set mapping. IDs keep their
// assignment order; a duplicate ID keeps its first position and takes the
// last set, the intended duplicate-detection behavior of hash naming.
type Table struct {
	ids     []string
	index   map[string]int
	sets    []Params
	sweepID string
}

func newTable(ids []string, sets []Params, sweepID string) *Table {
	t := &Table{
		ids:     make([]string, 0, len(ids)),
		index:   make(map[string]int, len(ids)),
		sets:    make([]Params, 0, len(sets)),
		sweepID: sweepID,
	}
	for i, id := range ids {
		if at, ok := t.index[id]; ok {
			t.sets[at] = sets[i]
			continue
		}
		t.index[id] = len(t.ids)
		t.ids = append(t.ids, id)
		t.sets = append(t.sets, sets[i])
	}
	return t
}

func tableMapping(ids []string, sets []Params, sweepID string, persist bool) (Mapping, error) {
	if len(ids) != len(sets) {
		return nil, fmt.Errorf("mapping: got %d simulation IDs for a space of %d sets", len(ids), len(sets))
	}
	t := newTable(ids, sets, sweepID)
	if persist {
		if err := t.WriteFile(t.Filename()); err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
	}
	return t, nil
}

// Len returns the number of distinct simulation IDs.
func (t *Table) Len() int { return len(t.ids) }

// IDs returns the simulation IDs in assignment order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Get returns the parameter set assigned to id.
func (t *Table) Get(id string) (Params, bool) {
	at, ok := t.index[id]
	if !ok {
		return Params{}, false
	}
	return t.sets[at], true
}

// Filename returns "sim_ids_<sweepID>.json".
func (t *Table) Filename() string {
	return "sim_ids_" + t.sweepID + ".json"
}

// MarshalJSON encodes the table as an object keyed by simulation ID, in
// assignment order, with ordered parameter objects as values.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range t.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := t.sets[i].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("simulation %s: %w", id, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteFile persists the table as JSON.
func (t *Table) WriteFile(path string) error {
	raw, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return err
	}
	indented.WriteByte('\n')
	if err := os.WriteFile(path, indented.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return nil
}
