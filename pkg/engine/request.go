package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/parasol-run/parasol/pkg/dispatch"
	"github.com/parasol-run/parasol/pkg/files"
	"github.com/parasol-run/parasol/pkg/naming"
	"github.com/parasol-run/parasol/pkg/render"
	"github.com/parasol-run/parasol/pkg/sweep"
	"github.com/parasol-run/parasol/pkg/telemetry"
)

// Recorder persists sweep history. *journal.Journal implements it.
type Recorder interface {
	BeginSweep(ctx context.Context, sweepID, command string, length int) error
	RecordSimulation(ctx context.Context, sweepID, simID string, params map[string]any) error
	FinishSweep(ctx context.Context, sweepID, status string) error
}

// Request describes one sweep run.
//
// The parameter space is given exactly one way: Parameters (a Cartesian
// product over named axes), ParameterSets (explicit sets), or Space (a
// pre-built space, including filtered and random ones). Templates likewise:
// TemplatePaths or TemplateTexts load into the {name}-placeholder engine,
// Engine supplies a pre-built one (use render.GoTemplate through this
// field).
type Request struct {
	// Command is the simulation command. Every occurrence of {sim_id} is
	// replaced with the generated simulation ID. The result is passed to
	// the dispatcher verbatim, with no shell escaping.
	Command string `json:"command" validate:"required"`

	// ConfigPaths are the destination paths for rendered configuration
	// files, one per template, in template order. {sim_id} is replaced
	// in each path.
	ConfigPaths []string `json:"config_paths" validate:"required,min=1,dive,required"`

	// TemplatePaths are template files for the {name}-placeholder engine.
	TemplatePaths []string `json:"template_paths,omitempty"`

	// TemplateTexts are in-memory templates for the {name}-placeholder
	// engine.
	TemplateTexts []string `json:"template_texts,omitempty"`

	// Engine is a pre-built template engine.
	Engine render.Engine `json:"-"`

	// Parameters defines a Cartesian product space over named axes.
	Parameters []sweep.Axis `json:"parameters,omitempty"`

	// ParameterSets lists explicit parameter sets.
	ParameterSets []sweep.Params `json:"parameter_sets,omitempty"`

	// Space is a pre-built parameter space.
	Space sweep.Space `json:"-"`

	// SweepID names the sweep. Empty means a timestamp-derived ID.
	SweepID string `json:"sweep_id,omitempty"`

	// Namer generates simulation IDs. Nil means sequential naming.
	Namer naming.Namer `json:"-"`

	// Dispatcher runs simulation commands. Nil means a local process
	// pool sized to the machine.
	Dispatcher dispatch.Dispatcher `json:"-"`

	// Writer stores rendered configuration files. Nil means the local
	// filesystem.
	Writer files.Writer `json:"-"`

	// RenderOnly writes configuration files without dispatching any
	// simulations.
	RenderOnly bool `json:"render_only,omitempty"`

	// Serial waits for each simulation to finish before dispatching the
	// next. Independent of the dispatcher's own concurrency bound.
	Serial bool `json:"serial,omitempty"`

	// Wait blocks until every simulation has finished before returning.
	Wait bool `json:"wait,omitempty"`

	// Cleanup waits for all simulations, then deletes every written
	// configuration file. Implies Wait.
	Cleanup bool `json:"cleanup,omitempty"`

	// ErrorIfExists refuses to overwrite existing configuration files.
	// The zero value overwrites.
	ErrorIfExists bool `json:"error_if_exists,omitempty"`

	// SaveMapping writes the simulation ID mapping to the working
	// directory as sim_ids_<sweepID>.nc or .json.
	SaveMapping bool `json:"save_mapping,omitempty"`

	// Verbose logs one line per simulation with its ID and parameters.
	Verbose bool `json:"verbose,omitempty"`

	// Delay is a pause inserted after each dispatch.
	Delay time.Duration `json:"delay,omitempty" validate:"min=0"`

	// Journal records the sweep in the history store, if set.
	Journal Recorder `json:"-"`

	// Telemetry carries the logger, tracer, and metrics for the run. Nil
	// falls back to whatever the context carries.
	Telemetry *telemetry.Telemetry `json:"-"`
}

var validate = validator.New()

// Validate checks the request before any file or dispatch work starts.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewConfigError("invalid sweep request", err)
	}

	templateSources := 0
	if len(r.TemplatePaths) > 0 {
		templateSources++
	}
	if len(r.TemplateTexts) > 0 {
		templateSources++
	}
	if r.Engine != nil {
		templateSources++
	}
	if templateSources != 1 {
		return NewConfigError("exactly one of TemplatePaths, TemplateTexts, or Engine must be set", nil)
	}

	spaceSources := 0
	if len(r.Parameters) > 0 {
		spaceSources++
	}
	if len(r.ParameterSets) > 0 {
		spaceSources++
	}
	if r.Space != nil {
		spaceSources++
	}
	if spaceSources != 1 {
		return NewConfigError("exactly one of Parameters, ParameterSets, or Space must be set", nil)
	}

	if n := len(r.TemplatePaths); n > 0 && n != len(r.ConfigPaths) {
		return NewConfigError(
			fmt.Sprintf("%d template paths for %d config paths", n, len(r.ConfigPaths)), nil)
	}
	if n := len(r.TemplateTexts); n > 0 && n != len(r.ConfigPaths) {
		return NewConfigError(
			fmt.Sprintf("%d template texts for %d config paths", n, len(r.ConfigPaths)), nil)
	}

	return nil
}

// space returns the parameter space the request describes.
func (r *Request) space() (sweep.Space, error) {
	switch {
	case r.Space != nil:
		return r.Space, nil
	case len(r.Parameters) > 0:
		sp, err := sweep.NewCartesian(r.Parameters...)
		if err != nil {
			return nil, NewConfigError("invalid parameter axes", err)
		}
		return sp, nil
	default:
		sp, err := sweep.NewExplicit(r.ParameterSets)
		if err != nil {
			return nil, NewConfigError("invalid parameter sets", err)
		}
		return sp, nil
	}
}

// engine returns the template engine the request describes.
func (r *Request) engine() (render.Engine, error) {
	switch {
	case r.Engine != nil:
		return r.Engine, nil
	case len(r.TemplateTexts) > 0:
		eng, err := render.NewFormat(r.TemplateTexts)
		if err != nil {
			return nil, NewTemplateError("invalid templates", err)
		}
		return eng, nil
	default:
		eng, err := render.LoadFormat(r.TemplatePaths)
		if err != nil {
			return nil, NewTemplateError("loading templates", err)
		}
		return eng, nil
	}
}

// sweepID returns the request's sweep ID, generating a timestamp-derived
// one if none was given. Colons are avoided so the ID stays safe inside
// file names.
func (r *Request) sweepID() string {
	if r.SweepID != "" {
		return r.SweepID
	}
	return time.Now().Format("2006-01-02T15_04_05")
}

// namer returns the request's namer, defaulting to sequential IDs.
func (r *Request) namer() naming.Namer {
	if r.Namer != nil {
		return r.Namer
	}
	return &naming.Sequential{}
}

// dispatcher returns the request's dispatcher, defaulting to a local
// process pool.
func (r *Request) dispatcher() dispatch.Dispatcher {
	if r.Dispatcher != nil {
		return r.Dispatcher
	}
	return dispatch.NewLocal(0)
}

// writer returns the request's file writer, defaulting to the local
// filesystem.
func (r *Request) writer() files.Writer {
	if r.Writer != nil {
		return r.Writer
	}
	return files.Local{}
}
