package sweep

import (
	"fmt"
	"iter"
)

// Space enumerates the parameter sets of one sweep.
//
// Length is known before enumeration begins. All yields the sets in a fixed
// order that every range over the same Space reproduces; simulation IDs are
// assigned in that order and Mapping pairs them back up afterward.
type Space interface {
	// Length returns the total number of parameter sets.
	Length() int

	// All returns the parameter sets in enumeration order. The sequence is
	// restartable: ranging it again yields the identical sets.
	All() iter.Seq[Params]

	// Mapping relates simulation IDs, aligned 1:1 with the order All yields,
	// back to parameter sets. When persist is true the mapping is also
	// written to a file named after sweepID in the working directory.
	// The ids slice is never mutated.
	Mapping(ids []string, sweepID string, persist bool) (Mapping, error)
}

// Axis is one named dimension of a Cartesian space: the candidate values the
// parameter ranges over, in declaration order.
type Axis struct {
	Name   string
	Values []any
}

// Predicate decides whether a candidate parameter set belongs to a Filtered
// space. It must be pure over the parameter names it reads; referencing a
// name absent from the set is an error.
type Predicate func(Params) (bool, error)

// Variable is the random-variable capability consumed by Random spaces:
// draw n values deterministically for a given seed.
type Variable interface {
	Draw(n int, seed uint64) []float64
}

func validateAxes(axes []Axis) error {
	if len(axes) == 0 {
		return fmt.Errorf("at least one parameter axis is required")
	}
	seen := make(map[string]bool, len(axes))
	for _, ax := range axes {
		if ax.Name == "" {
			return fmt.Errorf("parameter axis with empty name")
		}
		if seen[ax.Name] {
			return fmt.Errorf("duplicate parameter axis %q", ax.Name)
		}
		seen[ax.Name] = true
		if len(ax.Values) == 0 {
			return fmt.Errorf("parameter axis %q has no values", ax.Name)
		}
	}
	return nil
}

func copyAxes(axes []Axis) []Axis {
	out := make([]Axis, len(axes))
	for i, ax := range axes {
		values := make([]any, len(ax.Values))
		copy(values, ax.Values)
		out[i] = Axis{Name: ax.Name, Values: values}
	}
	return out
}

// productSeq enumerates the cross product of axes lexicographically over the
// declared axis order, last axis fastest.
func productSeq(axes []Axis) iter.Seq[Params] {
	return func(yield func(Params) bool) {
		idx := make([]int, len(axes))
		for {
			pairs := make([]Param, len(axes))
			for i, ax := range axes {
				pairs[i] = Param{Name: ax.Name, Value: ax.Values[idx[i]]}
			}
			if !yield(MakeParams(pairs...)) {
				return
			}
			k := len(axes) - 1
			for k >= 0 {
				idx[k]++
				if idx[k] < len(axes[k].Values) {
					break
				}
				idx[k] = 0
				k--
			}
			if k < 0 {
				return
			}
		}
	}
}

// asFloat reports whether v is a numeric scalar, converting it to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
