// Package randvar provides the random-variable capability consumed by random
// sweep spaces: distributions that draw a fixed number of values
// deterministically from a seed. All types satisfy sweep.Variable.
package randvar

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

type rander interface {
	Rand() float64
}

func draw(d rander, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Uniform draws from the continuous uniform distribution on [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

// Draw returns n values for the given seed. Equal seeds reproduce equal
// sequences.
func (u Uniform) Draw(n int, seed uint64) []float64 {
	return draw(distuv.Uniform{Min: u.Min, Max: u.Max, Src: rand.NewPCG(seed, 1)}, n)
}

// Normal draws from the normal distribution with mean Mu and standard
// deviation Sigma.
type Normal struct {
	Mu    float64
	Sigma float64
}

// Draw returns n values for the given seed.
func (v Normal) Draw(n int, seed uint64) []float64 {
	return draw(distuv.Normal{Mu: v.Mu, Sigma: v.Sigma, Src: rand.NewPCG(seed, 1)}, n)
}

// LogNormal draws values whose logarithm is normally distributed with
// parameters Mu and Sigma.
type LogNormal struct {
	Mu    float64
	Sigma float64
}

// Draw returns n values for the given seed.
func (v LogNormal) Draw(n int, seed uint64) []float64 {
	return draw(distuv.LogNormal{Mu: v.Mu, Sigma: v.Sigma, Src: rand.NewPCG(seed, 1)}, n)
}
