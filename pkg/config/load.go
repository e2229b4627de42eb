package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Sweep kinds inferred from the file layout.
const (
	kindCartesian = "cartesian"
	kindFiltered  = "filtered"
	kindExplicit  = "explicit"
	kindRandom    = "random"
)

// Naming kinds. The empty string means sequential.
const (
	namingSequential = "sequential"
	namingHash       = "hash"
	namingList       = "list"
)

// Dispatch backends. The empty string means local.
const (
	backendLocal = "local"
	backendSlurm = "slurm"
	backendSSH   = "ssh"
)

var validate = validator.New()

// Load reads, parses, and validates a sweep file. The format follows the
// file extension: .yaml or .yml for YAML, .cue for CUE.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses and validates sweep file contents. The filename selects
// the format and shows up in error positions.
func Parse(data []byte, filename string) (*File, error) {
	f := &File{path: filename}
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		if err := parseYAML(data, f); err != nil {
			return nil, err
		}
	case ".cue":
		if err := parseCUE(data, filename, f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported sweep file extension %q: want .yaml, .yml, or .cue", ext)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the path the file was loaded from.
func (f *File) Path() string {
	return f.path
}

// SpaceKind reports which space layout the file describes: cartesian,
// filtered, explicit, or random. Only meaningful on a validated file.
func (f *File) SpaceKind() string {
	kind, err := f.Sweep.kind()
	if err != nil {
		return ""
	}
	return kind
}

func parseYAML(data []byte, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("sweep file is empty")
		}
		return fmt.Errorf("parsing sweep file: %w", err)
	}
	return nil
}

// validate applies the cross-field rules the struct tags cannot express
// and parses the duration strings.
func (f *File) validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid sweep file: %w", err)
	}

	if err := f.Templates.validate(len(f.Configs)); err != nil {
		return err
	}
	if err := f.Sweep.validate(f.path); err != nil {
		return err
	}
	if err := f.Naming.validate(); err != nil {
		return err
	}
	if err := f.Dispatch.validate(); err != nil {
		return err
	}

	if f.Delay != "" {
		d, err := time.ParseDuration(f.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid delay: %s is negative", f.Delay)
		}
		f.delay = d
	}
	return nil
}

func (t *TemplatesSection) validate(configs int) error {
	switch {
	case len(t.Paths) > 0 && len(t.Texts) > 0:
		return errors.New("templates: paths and texts are mutually exclusive")
	case len(t.Paths) == 0 && len(t.Texts) == 0:
		return errors.New("templates: either paths or texts is required")
	}
	if n := len(t.Paths) + len(t.Texts); n != configs {
		return fmt.Errorf("templates: %d templates for %d configs", n, configs)
	}
	return nil
}

// kind reports which sweep layout the section uses. Exactly one of
// parameters, sets, and distributions must be present; an explicit type
// must agree with it.
func (s *SweepSection) kind() (string, error) {
	sources := 0
	for _, present := range []bool{
		len(s.Parameters) > 0,
		len(s.Sets) > 0,
		len(s.Distributions) > 0,
	} {
		if present {
			sources++
		}
	}
	if sources == 0 {
		return "", errors.New("sweep: one of parameters, sets, or distributions is required")
	}
	if sources > 1 {
		return "", errors.New("sweep: parameters, sets, and distributions are mutually exclusive")
	}

	var inferred string
	switch {
	case len(s.Sets) > 0:
		inferred = kindExplicit
	case len(s.Distributions) > 0:
		inferred = kindRandom
	case s.Filter != "":
		inferred = kindFiltered
	default:
		inferred = kindCartesian
	}
	if s.Type != "" && s.Type != inferred {
		return "", fmt.Errorf("sweep: type %q does not match the %s layout of the file", s.Type, inferred)
	}
	return inferred, nil
}

func (s *SweepSection) validate(filename string) error {
	kind, err := s.kind()
	if err != nil {
		return err
	}

	if s.Filter != "" && len(s.Parameters) == 0 {
		return errors.New("sweep: filter requires parameters")
	}
	if s.FilterTimeout != "" && s.Filter == "" {
		return errors.New("sweep: filter_timeout without a filter")
	}
	if kind != kindRandom {
		if s.Length != 0 {
			return errors.New("sweep: length is only used with distributions")
		}
		if s.Seed != nil {
			return errors.New("sweep: seed is only used with distributions")
		}
	}

	switch kind {
	case kindCartesian, kindFiltered:
		seen := make(map[string]struct{}, len(s.Parameters))
		for _, ax := range s.Parameters {
			if ax.Name == "" {
				return errors.New("sweep: parameter with an empty name")
			}
			if len(ax.Values) == 0 {
				return fmt.Errorf("sweep: parameter %s has no values", ax.Name)
			}
			if _, dup := seen[ax.Name]; dup {
				return fmt.Errorf("sweep: duplicate parameter %s", ax.Name)
			}
			seen[ax.Name] = struct{}{}
		}
	case kindExplicit:
		for i, set := range s.Sets {
			if set.Len() == 0 {
				return fmt.Errorf("sweep: set %d is empty", i)
			}
		}
	case kindRandom:
		if s.Length == 0 {
			return errors.New("sweep: distributions require a length")
		}
		seen := make(map[string]struct{}, len(s.Distributions))
		for _, d := range s.Distributions {
			if d.Name == "" {
				return errors.New("sweep: distribution with an empty name")
			}
			if _, dup := seen[d.Name]; dup {
				return fmt.Errorf("sweep: duplicate distribution %s", d.Name)
			}
			seen[d.Name] = struct{}{}
			if _, err := d.variable(); err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
		}
	}

	if s.FilterTimeout != "" {
		d, err := time.ParseDuration(s.FilterTimeout)
		if err != nil {
			return fmt.Errorf("invalid filter_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid filter_timeout: %s is not positive", s.FilterTimeout)
		}
		s.filterTimeout = d
	}
	if s.Filter != "" {
		flt, err := NewFilter(s.Filter, filename, s.filterTimeout)
		if err != nil {
			return err
		}
		s.filter = flt
	}
	return nil
}

func (n *NamingSection) validate() error {
	kind := n.Kind
	if kind == "" {
		kind = namingSequential
	}
	if kind != namingSequential && (n.ZeroFill != 0 || n.StartAt != 0) {
		return errors.New("naming: zero_fill and start_at are only used with sequential naming")
	}
	if kind != namingHash && n.Digits != 0 {
		return errors.New("naming: digits is only used with hash naming")
	}
	if kind == namingList && len(n.IDs) == 0 {
		return errors.New("naming: list naming requires ids")
	}
	if kind != namingList && len(n.IDs) != 0 {
		return errors.New("naming: ids is only used with list naming")
	}
	return nil
}

func (d *DispatchSection) validate() error {
	backend := d.Backend
	if backend == "" {
		backend = backendLocal
	}
	if backend != backendLocal && d.Procs != 0 {
		return errors.New("dispatch: procs is only used with the local backend")
	}
	if backend != backendSlurm && !d.Slurm.isZero() {
		return errors.New("dispatch: slurm settings require the slurm backend")
	}
	if backend != backendSSH && !d.SSH.isZero() {
		return errors.New("dispatch: ssh settings require the ssh backend")
	}
	if backend == backendSSH && (d.SSH.Host == "" || d.SSH.User == "") {
		return errors.New("dispatch: the ssh backend requires host and user")
	}
	return nil
}

func (s SlurmSection) isZero() bool {
	return s.JobName == "" && s.Partition == "" && s.Account == "" &&
		s.TimeLimit == "" && s.Output == "" && len(s.ExtraArgs) == 0
}

func (s SSHSection) isZero() bool {
	return s == SSHSection{}
}
