package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parasol-run/parasol/pkg/randvar"
	"github.com/parasol-run/parasol/pkg/sweep"
)

// File is a declarative sweep definition loaded from a YAML or CUE file.
type File struct {
	// Command runs one simulation; every {sim_id} expands to the
	// generated simulation ID.
	Command string `json:"command" yaml:"command" validate:"required"`

	// Configs are the destination paths for rendered configuration
	// files, one per template, in template order.
	Configs []string `json:"configs" yaml:"configs" validate:"required,min=1,dive,required"`

	// Templates configures the template sources and engine.
	Templates TemplatesSection `json:"templates" yaml:"templates"`

	// Sweep describes the parameter space.
	Sweep SweepSection `json:"sweep" yaml:"sweep"`

	// Naming selects how simulation IDs are generated.
	Naming NamingSection `json:"naming" yaml:"naming"`

	// Dispatch selects where simulations run.
	Dispatch DispatchSection `json:"dispatch" yaml:"dispatch"`

	// SweepID fixes the sweep ID. Empty derives one from the start time.
	SweepID string `json:"sweep_id" yaml:"sweep_id"`

	// Serial waits for each simulation before dispatching the next.
	Serial bool `json:"serial" yaml:"serial"`

	// Wait blocks until every simulation has finished.
	Wait bool `json:"wait" yaml:"wait"`

	// Cleanup waits for all simulations, then deletes the written
	// configuration files.
	Cleanup bool `json:"cleanup" yaml:"cleanup"`

	// ErrorIfExists refuses to overwrite existing configuration files.
	ErrorIfExists bool `json:"error_if_exists" yaml:"error_if_exists"`

	// SaveMapping writes the simulation ID mapping file. Unset means on.
	SaveMapping *bool `json:"save_mapping" yaml:"save_mapping"`

	// Verbose logs one line per simulation. Unset means on.
	Verbose *bool `json:"verbose" yaml:"verbose"`

	// Delay is a pause inserted after each dispatch, as a Go duration
	// string such as "500ms".
	Delay string `json:"delay" yaml:"delay"`

	path  string
	delay time.Duration
}

// TemplatesSection configures template sources. Exactly one of Paths or
// Texts must be set, with one entry per config path.
type TemplatesSection struct {
	// Paths are template files.
	Paths []string `json:"paths" yaml:"paths"`

	// Texts are inline templates.
	Texts []string `json:"texts" yaml:"texts"`

	// Engine selects the template syntax: "format" ({name} placeholders,
	// the default) or "gotemplate" (text/template with sprig functions).
	Engine string `json:"engine" yaml:"engine" validate:"omitempty,oneof=format gotemplate"`
}

// SweepSection describes the parameter space. Exactly one of Parameters,
// Sets, or Distributions must be set; Filter turns Parameters into a
// filtered space.
type SweepSection struct {
	// Type names the space kind. Optional; inferred from the fields and
	// checked against them when set.
	Type string `json:"type" yaml:"type" validate:"omitempty,oneof=cartesian filtered explicit random"`

	// Parameters maps axis names to candidate values. Document order
	// becomes axis order.
	Parameters AxisList `json:"-" yaml:"parameters"`

	// Filter is a Starlark boolean expression over the parameter names.
	// Sets it evaluates false for are excluded from the sweep.
	Filter string `json:"filter" yaml:"filter"`

	// FilterTimeout bounds one filter evaluation, as a Go duration
	// string. Empty means 30s.
	FilterTimeout string `json:"filter_timeout" yaml:"filter_timeout"`

	// Sets lists explicit parameter sets. Key order inside each set is
	// preserved.
	Sets SetList `json:"-" yaml:"sets"`

	// Length is the number of draws for a random sweep.
	Length int `json:"length" yaml:"length" validate:"min=0"`

	// Seed fixes the random sweep seed. Unset draws one.
	Seed *uint64 `json:"seed" yaml:"seed"`

	// Distributions maps axis names to random distributions. Document
	// order becomes axis order, which fixes each axis's draw stream.
	Distributions DistList `json:"-" yaml:"distributions"`

	filterTimeout time.Duration
	filter        *Filter
}

// NamingSection selects the simulation ID scheme.
type NamingSection struct {
	// Kind is "sequential" (the default), "hash", or "list".
	Kind string `json:"kind" yaml:"kind" validate:"omitempty,oneof=sequential hash list"`

	// ZeroFill fixes the sequential counter padding width. 0 derives it
	// from the sweep length.
	ZeroFill int `json:"zero_fill" yaml:"zero_fill" validate:"min=0"`

	// StartAt is the first sequential counter value.
	StartAt int `json:"start_at" yaml:"start_at" validate:"min=0"`

	// Digits is the number of hex characters kept from the hash digest.
	Digits int `json:"digits" yaml:"digits" validate:"min=0,max=40"`

	// IDs are pre-assigned simulation IDs for the list namer.
	IDs []string `json:"ids" yaml:"ids"`
}

// DispatchSection selects the execution backend.
type DispatchSection struct {
	// Backend is "local" (the default), "slurm", or "ssh".
	Backend string `json:"backend" yaml:"backend" validate:"omitempty,oneof=local slurm ssh"`

	// Procs caps concurrent local simulations. 0 means the CPU count.
	Procs int `json:"procs" yaml:"procs" validate:"min=0"`

	// Slurm holds sbatch submission options.
	Slurm SlurmSection `json:"slurm" yaml:"slurm"`

	// SSH holds the remote host connection.
	SSH SSHSection `json:"ssh" yaml:"ssh"`
}

// SlurmSection is the sbatch job template shared by every job of the
// sweep.
type SlurmSection struct {
	JobName   string   `json:"job_name" yaml:"job_name"`
	Partition string   `json:"partition" yaml:"partition"`
	Account   string   `json:"account" yaml:"account"`
	TimeLimit string   `json:"time_limit" yaml:"time_limit"`
	Output    string   `json:"output" yaml:"output"`
	ExtraArgs []string `json:"extra_args" yaml:"extra_args"`
}

// SSHSection is the remote host the sweep dispatches to.
type SSHSection struct {
	// Host is the remote hostname or IP address.
	Host string `json:"host" yaml:"host"`

	// Port is the SSH port. 0 means 22.
	Port int `json:"port" yaml:"port" validate:"min=0,max=65535"`

	// User is the SSH username.
	User string `json:"user" yaml:"user"`

	// AuthMethod is "key" (the default) or "password".
	AuthMethod string `json:"auth_method" yaml:"auth_method" validate:"omitempty,oneof=password key"`

	// Password for password authentication.
	Password string `json:"password" yaml:"password"`

	// KeyPath is the private key file. Empty tries the usual keys under
	// ~/.ssh.
	KeyPath string `json:"key_path" yaml:"key_path"`

	// KnownHosts is the known_hosts file for host key checks.
	KnownHosts string `json:"known_hosts" yaml:"known_hosts"`

	// Insecure accepts any host key.
	Insecure bool `json:"insecure" yaml:"insecure"`

	// Upload writes rendered configuration files to the remote host over
	// SFTP instead of the local filesystem.
	Upload bool `json:"upload" yaml:"upload"`

	// MaxSessions caps concurrent remote sessions.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions" validate:"min=0"`
}

// AxisList is an ordered list of parameter axes. It decodes from a YAML
// mapping, keeping document order.
type AxisList []sweep.Axis

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *AxisList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping of name to values", node.Line)
	}
	out := make([]sweep.Axis, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var values []any
		if err := val.Decode(&values); err != nil {
			return fmt.Errorf("parameter %s: %w", key.Value, err)
		}
		out = append(out, sweep.Axis{Name: key.Value, Values: values})
	}
	*l = out
	return nil
}

// SetList is an ordered list of explicit parameter sets. Each set decodes
// from a YAML mapping, keeping key order.
type SetList []sweep.Params

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *SetList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: sets must be a list of mappings", node.Line)
	}
	out := make([]sweep.Params, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: each set must be a mapping", item.Line)
		}
		pairs := make([]sweep.Param, 0, len(item.Content)/2)
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("set key %s: %w", key.Value, err)
			}
			pairs = append(pairs, sweep.Param{Name: key.Value, Value: v})
		}
		out = append(out, sweep.MakeParams(pairs...))
	}
	*l = out
	return nil
}

// Distribution names one random axis and its distribution.
type Distribution struct {
	// Name is the axis name, taken from the mapping key.
	Name string `json:"-" yaml:"-"`

	// Kind is "uniform", "normal", or "lognormal".
	Kind string `json:"kind" yaml:"kind" validate:"required,oneof=uniform normal lognormal"`

	// Min and Max bound a uniform distribution.
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`

	// Mu and Sigma parameterize normal and lognormal distributions.
	Mu    float64 `json:"mu" yaml:"mu"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// variable builds the sweep.Variable the distribution describes.
func (d Distribution) variable() (sweep.Variable, error) {
	switch d.Kind {
	case "uniform":
		if d.Max <= d.Min {
			return nil, fmt.Errorf("distribution %s: uniform requires min < max, got [%g, %g)", d.Name, d.Min, d.Max)
		}
		return randvar.Uniform{Min: d.Min, Max: d.Max}, nil
	case "normal":
		if d.Sigma <= 0 {
			return nil, fmt.Errorf("distribution %s: normal requires sigma > 0, got %g", d.Name, d.Sigma)
		}
		return randvar.Normal{Mu: d.Mu, Sigma: d.Sigma}, nil
	case "lognormal":
		if d.Sigma <= 0 {
			return nil, fmt.Errorf("distribution %s: lognormal requires sigma > 0, got %g", d.Name, d.Sigma)
		}
		return randvar.LogNormal{Mu: d.Mu, Sigma: d.Sigma}, nil
	default:
		return nil, fmt.Errorf("distribution %s: unknown kind %q", d.Name, d.Kind)
	}
}

// DistList is an ordered list of random axis distributions. It decodes
// from a YAML mapping, keeping document order.
type DistList []Distribution

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *DistList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: distributions must be a mapping of name to distribution", node.Line)
	}
	out := make([]Distribution, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		for j := 0; j+1 < len(val.Content); j += 2 {
			switch k := val.Content[j].Value; k {
			case "kind", "min", "max", "mu", "sigma":
			default:
				return fmt.Errorf("distribution %s: unknown field %q", key.Value, k)
			}
		}
		var d Distribution
		if err := val.Decode(&d); err != nil {
			return fmt.Errorf("distribution %s: %w", key.Value, err)
		}
		d.Name = key.Value
		out = append(out, d)
	}
	*l = out
	return nil
}
