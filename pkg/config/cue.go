package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// ValidationError pinpoints one problem in a sweep file.
type ValidationError struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// LoadError collects the problems a CUE sweep file produced.
type LoadError struct {
	Path   string
	Issues []ValidationError
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid sweep file %s:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(strings.TrimRight(issue.Message, "\n"))
	}
	return b.String()
}

// newLoadError converts a CUE error list into a LoadError, keeping the
// position of each underlying error.
func newLoadError(path string, err error) *LoadError {
	le := &LoadError{Path: path}
	for _, e := range errors.Errors(err) {
		var file string
		var line, column int
		if pos := errors.Positions(e); len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}
		le.Issues = append(le.Issues, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}
	if len(le.Issues) == 0 {
		le.Issues = append(le.Issues, ValidationError{
			Message:  err.Error(),
			Severity: "error",
		})
	}
	return le
}

type cueLoader struct {
	ctx    *cue.Context
	schema cue.Value
}

var cueFiles = newCUELoader()

func newCUELoader() *cueLoader {
	ctx := cuecontext.New()
	schema := ctx.CompileString(FileSchema, cue.Filename("schema.cue"))
	return &cueLoader{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#File")),
	}
}

// parseCUE compiles data, unifies it with the sweep file schema, and
// decodes the result into f. The ordered sections (parameters, sets,
// distributions) are extracted by walking the CUE fields so the file
// order survives.
func parseCUE(data []byte, filename string, f *File) error {
	l := cueFiles
	if err := l.schema.Err(); err != nil {
		return fmt.Errorf("compiling sweep file schema: %w", err)
	}

	val := l.ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return newLoadError(filename, err)
	}

	unified := l.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return newLoadError(filename, err)
	}

	if err := unified.Decode(f); err != nil {
		return fmt.Errorf("decoding sweep file: %w", err)
	}

	if v := unified.LookupPath(cue.ParsePath("sweep.parameters")); v.Exists() {
		axes, err := extractAxes(v)
		if err != nil {
			return err
		}
		f.Sweep.Parameters = axes
	}
	if v := unified.LookupPath(cue.ParsePath("sweep.sets")); v.Exists() {
		sets, err := extractSets(v)
		if err != nil {
			return err
		}
		f.Sweep.Sets = sets
	}
	if v := unified.LookupPath(cue.ParsePath("sweep.distributions")); v.Exists() {
		dists, err := extractDistributions(v)
		if err != nil {
			return err
		}
		f.Sweep.Distributions = dists
	}
	return nil
}

func extractAxes(val cue.Value) (AxisList, error) {
	iter, err := val.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating parameters: %w", err)
	}
	var axes AxisList
	for iter.Next() {
		name := iter.Selector().Unquoted()
		var values []any
		if err := iter.Value().Decode(&values); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		axes = append(axes, sweep.Axis{Name: name, Values: values})
	}
	return axes, nil
}

func extractSets(val cue.Value) (SetList, error) {
	list, err := val.List()
	if err != nil {
		return nil, fmt.Errorf("iterating sets: %w", err)
	}
	var sets SetList
	for i := 0; list.Next(); i++ {
		iter, err := list.Value().Fields()
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i, err)
		}
		var pairs []sweep.Param
		for iter.Next() {
			var v any
			if err := iter.Value().Decode(&v); err != nil {
				return nil, fmt.Errorf("set %d, parameter %s: %w", i, iter.Selector().Unquoted(), err)
			}
			pairs = append(pairs, sweep.Param{Name: iter.Selector().Unquoted(), Value: v})
		}
		sets = append(sets, sweep.MakeParams(pairs...))
	}
	return sets, nil
}

func extractDistributions(val cue.Value) (DistList, error) {
	iter, err := val.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating distributions: %w", err)
	}
	var dists DistList
	for iter.Next() {
		name := iter.Selector().Unquoted()
		var d Distribution
		if err := iter.Value().Decode(&d); err != nil {
			return nil, fmt.Errorf("distribution %s: %w", name, err)
		}
		d.Name = name
		dists = append(dists, d)
	}
	return dists, nil
}
