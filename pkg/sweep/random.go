package sweep

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"
)

// RandomAxis names one randomly drawn parameter and the variable it is drawn
// from.
type RandomAxis struct {
	Name string
	Var  Variable
}

// Random draws each parameter independently from its variable and zips the
// draws into co-indexed parameter sets. The space has a declared length fixed
// at construction, and the draws are materialized there so repeated
// enumeration within one sweep sees identical sets.
type Random struct {
	sets []Params
	seed uint64
}

// NewRandom builds a Random space of length sets with a seed drawn at
// construction. Seed reports the chosen seed so a run can be reproduced.
func NewRandom(axes []RandomAxis, length int) (*Random, error) {
	return NewSeededRandom(axes, length, rand.Uint64())
}

// NewSeededRandom builds a Random space of length sets. The same seed over
// the same axes reproduces bit-identical parameter sets: each axis draws from
// its own stream derived from the seed and the axis position.
func NewSeededRandom(axes []RandomAxis, length int, seed uint64) (*Random, error) {
	if length <= 0 {
		return nil, fmt.Errorf("random space requires a positive length, got %d", length)
	}
	if len(axes) == 0 {
		return nil, fmt.Errorf("random space requires at least one axis")
	}
	seen := make(map[string]bool, len(axes))
	for _, ax := range axes {
		if ax.Name == "" {
			return nil, fmt.Errorf("random axis with empty name")
		}
		if seen[ax.Name] {
			return nil, fmt.Errorf("duplicate random axis %q", ax.Name)
		}
		seen[ax.Name] = true
		if ax.Var == nil {
			return nil, fmt.Errorf("random axis %q has no variable", ax.Name)
		}
	}

	draws := make([][]float64, len(axes))
	for i, ax := range axes {
		draws[i] = ax.Var.Draw(length, axisSeed(seed, i))
		if len(draws[i]) != length {
			return nil, fmt.Errorf("random axis %q drew %d values, want %d", ax.Name, len(draws[i]), length)
		}
	}
	sets := make([]Params, length)
	for j := 0; j < length; j++ {
		pairs := make([]Param, len(axes))
		for i, ax := range axes {
			pairs[i] = Param{Name: ax.Name, Value: draws[i][j]}
		}
		sets[j] = MakeParams(pairs...)
	}
	return &Random{sets: sets, seed: seed}, nil
}

// axisSeed derives a distinct stream seed per axis position.
func axisSeed(seed uint64, axis int) uint64 {
	return seed + uint64(axis+1)*0x9e3779b97f4a7c15
}

// Length returns the declared number of draws.
func (r *Random) Length() int { return len(r.sets) }

// Seed returns the seed the draws were produced from.
func (r *Random) Seed() uint64 { return r.seed }

// All yields the drawn sets in draw order.
func (r *Random) All() iter.Seq[Params] {
	return slices.Values(r.sets)
}

// Mapping builds the sparse ID table for the drawn sets.
func (r *Random) Mapping(ids []string, sweepID string, persist bool) (Mapping, error) {
	return tableMapping(ids, r.sets, sweepID, persist)
}
