package sweep

import (
	"fmt"
	"iter"
	"slices"
)

// Explicit is a caller-supplied sequence of parameter sets with no implied
// relationship between elements.
type Explicit struct {
	sets []Params
}

// NewExplicit wraps the given sets, preserving their order.
func NewExplicit(sets []Params) (*Explicit, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("explicit space requires at least one parameter set")
	}
	return &Explicit{sets: slices.Clone(sets)}, nil
}

// Length returns the number of supplied sets.
func (e *Explicit) Length() int { return len(e.sets) }

// All yields the sets in their supplied order.
func (e *Explicit) All() iter.Seq[Params] {
	return slices.Values(e.sets)
}

// Mapping builds the sparse ID table for the supplied sets.
func (e *Explicit) Mapping(ids []string, sweepID string, persist bool) (Mapping, error) {
	return tableMapping(ids, e.sets, sweepID, persist)
}
