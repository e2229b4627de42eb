package sweep

import (
	"fmt"
	"iter"
)

// Cartesian is the full cross product of its axes. Enumeration is lazy; the
// order is lexicographic over the declared axis order with the last axis
// varying fastest, so a consumer can recover any simulation ID from its axis
// coordinate tuple in the dense mapping.
type Cartesian struct {
	axes []Axis
}

// NewCartesian builds a Cartesian space over the given axes. Axis order is
// preserved and significant.
func NewCartesian(axes ...Axis) (*Cartesian, error) {
	if err := validateAxes(axes); err != nil {
		return nil, err
	}
	return &Cartesian{axes: copyAxes(axes)}, nil
}

// Length returns the product of the axis sizes.
func (c *Cartesian) Length() int {
	n := 1
	for _, ax := range c.axes {
		n *= len(ax.Values)
	}
	return n
}

// All enumerates the product lazily.
func (c *Cartesian) All() iter.Seq[Params] {
	return productSeq(c.axes)
}

// Axes returns a copy of the declared axes.
func (c *Cartesian) Axes() []Axis {
	return copyAxes(c.axes)
}

// Mapping builds the dense grid of simulation IDs addressed by axis
// coordinates. ids must hold exactly Length entries in enumeration order.
func (c *Cartesian) Mapping(ids []string, sweepID string, persist bool) (Mapping, error) {
	if len(ids) != c.Length() {
		return nil, fmt.Errorf("mapping: got %d simulation IDs for a space of %d sets", len(ids), c.Length())
	}
	g := newGrid(c.axes, ids, sweepID)
	if persist {
		if err := g.WriteFile(g.Filename()); err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
	}
	return g, nil
}
