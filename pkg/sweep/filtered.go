package sweep

import (
	"fmt"
	"iter"
	"slices"
)

// Filtered is a Cartesian product reduced by a predicate. The surviving sets
// are materialized at construction because the space's size is only known
// after the predicate has seen every candidate tuple.
type Filtered struct {
	sets []Params
}

// NewFiltered evaluates pred once per tuple of the product of axes, in
// product order, and keeps the tuples it accepts. A predicate error fails
// construction.
func NewFiltered(pred Predicate, axes ...Axis) (*Filtered, error) {
	if pred == nil {
		return nil, fmt.Errorf("filtered space requires a predicate")
	}
	if err := validateAxes(axes); err != nil {
		return nil, err
	}
	var sets []Params
	for set := range productSeq(axes) {
		keep, err := pred(set)
		if err != nil {
			return nil, fmt.Errorf("filter predicate on %s: %w", set, err)
		}
		if keep {
			sets = append(sets, set)
		}
	}
	return &Filtered{sets: sets}, nil
}

// Length returns the number of sets the predicate kept.
func (f *Filtered) Length() int { return len(f.sets) }

// All yields the kept sets in product order.
func (f *Filtered) All() iter.Seq[Params] {
	return slices.Values(f.sets)
}

// Mapping builds the sparse ID table for the kept sets.
func (f *Filtered) Mapping(ids []string, sweepID string, persist bool) (Mapping, error) {
	return tableMapping(ids, f.sets, sweepID, persist)
}
