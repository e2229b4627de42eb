package sweep

import (
	"fmt"
	"os"

	"github.com/parasol-run/parasol/pkg/ncdf"
)

// Grid is the dense mapping of a Cartesian sweep: a labeled array whose
// coordinates are the axis values and whose cells are simulation IDs, stored
// row-major with the last axis fastest, matching enumeration order.
type Grid struct {
	axes    []Axis
	ids     []string
	shape   []int
	strides []int
	sweepID string
}

func newGrid(axes []Axis, ids []string, sweepID string) *Grid {
	shape := make([]int, len(axes))
	for i, ax := range axes {
		shape[i] = len(ax.Values)
	}
	strides := make([]int, len(axes))
	stride := 1
	for i := len(axes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	stored := make([]string, len(ids))
	copy(stored, ids)
	return &Grid{
		axes:    copyAxes(axes),
		ids:     stored,
		shape:   shape,
		strides: strides,
		sweepID: sweepID,
	}
}

// Axes returns the coordinate axes in declaration order.
func (g *Grid) Axes() []Axis {
	return copyAxes(g.axes)
}

// Shape returns the axis sizes in declaration order.
func (g *Grid) Shape() []int {
	out := make([]int, len(g.shape))
	copy(out, g.shape)
	return out
}

// IDs returns every simulation ID in enumeration order.
func (g *Grid) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// At returns the simulation ID at the given axis coordinate indices, one
// index per axis.
func (g *Grid) At(coords ...int) (string, error) {
	if len(coords) != len(g.axes) {
		return "", fmt.Errorf("grid lookup: got %d coordinates, want %d", len(coords), len(g.axes))
	}
	flat := 0
	for i, c := range coords {
		if c < 0 || c >= g.shape[i] {
			return "", fmt.Errorf("grid lookup: coordinate %d out of range for axis %s (size %d)", c, g.axes[i].Name, g.shape[i])
		}
		flat += c * g.strides[i]
	}
	return g.ids[flat], nil
}

// Filename returns "sim_ids_<sweepID>.nc".
func (g *Grid) Filename() string {
	return "sim_ids_" + g.sweepID + ".nc"
}

// WriteFile persists the grid as a netCDF classic file with one dimension
// and one coordinate variable per axis and a sim_id character variable over
// all axes. Numeric axes become double coordinates; any other axis is stored
// as a character matrix over an added string-length dimension.
func (g *Grid) WriteFile(path string) error {
	f := ncdf.NewFile()
	axisDims := make([]int, len(g.axes))
	for i, ax := range g.axes {
		d, err := f.AddDim(ax.Name, len(ax.Values))
		if err != nil {
			return fmt.Errorf("grid axis %s: %w", ax.Name, err)
		}
		axisDims[i] = d
		if floats, ok := axisFloats(ax.Values); ok {
			if err := f.AddDouble(ax.Name, []int{d}, floats); err != nil {
				return fmt.Errorf("grid axis %s: %w", ax.Name, err)
			}
			continue
		}
		forms := stringForms(ax.Values)
		width := maxWidth(forms)
		sd, err := f.AddDim(ax.Name+"_strlen", width)
		if err != nil {
			return fmt.Errorf("grid axis %s: %w", ax.Name, err)
		}
		if err := f.AddChar(ax.Name, []int{d, sd}, packChars(forms, width)); err != nil {
			return fmt.Errorf("grid axis %s: %w", ax.Name, err)
		}
	}

	width := maxWidth(g.ids)
	sd, err := f.AddDim("sim_id_strlen", width)
	if err != nil {
		return err
	}
	if err := f.AddChar("sim_id", append(axisDims, sd), packChars(g.ids, width)); err != nil {
		return err
	}

	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return nil
}

func axisFloats(values []any) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := asFloat(v)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func stringForms(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func maxWidth(forms []string) int {
	width := 1
	for _, s := range forms {
		if len(s) > width {
			width = len(s)
		}
	}
	return width
}

// packChars lays forms out as fixed-width NUL-padded rows.
func packChars(forms []string, width int) []byte {
	out := make([]byte, len(forms)*width)
	for i, s := range forms {
		copy(out[i*width:(i+1)*width], s)
	}
	return out
}
