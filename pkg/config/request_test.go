package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/parasol-run/parasol/pkg/dispatch"
	"github.com/parasol-run/parasol/pkg/naming"
)

func mustParse(t *testing.T, content string) *File {
	t.Helper()
	f, err := Parse([]byte(content), "sweep.yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return f
}

func TestRequestCartesian(t *testing.T) {
	f := mustParse(t, `
command: "./simulate {sim_id}"
configs: ["out/{sim_id}.conf"]
templates:
  texts: ["x = {x}\ny = {y}\n"]
sweep:
  parameters:
    x: [1, 2]
    y: [3]
sweep_id: demo
serial: true
delay: 50ms
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if req.Command != "./simulate {sim_id}" {
		t.Errorf("Command = %q", req.Command)
	}
	if len(req.ConfigPaths) != 1 {
		t.Errorf("ConfigPaths = %v", req.ConfigPaths)
	}
	if len(req.Parameters) != 2 || req.Space != nil {
		t.Errorf("expected an axis-based space, got Parameters=%v Space=%v", req.Parameters, req.Space)
	}
	if req.SweepID != "demo" || !req.Serial {
		t.Errorf("SweepID = %q, Serial = %v", req.SweepID, req.Serial)
	}
	if req.Delay != 50*time.Millisecond {
		t.Errorf("Delay = %v", req.Delay)
	}
	if !req.SaveMapping || !req.Verbose {
		t.Error("SaveMapping and Verbose should default to true")
	}
	if _, ok := req.Dispatcher.(*dispatch.Local); !ok {
		t.Errorf("Dispatcher = %T, want *dispatch.Local", req.Dispatcher)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}
}

func TestRequestFlagsOff(t *testing.T) {
	f := mustParse(t, `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x}"]
sweep:
  parameters:
    x: [1]
save_mapping: false
verbose: false
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	defer closer()
	if req.SaveMapping || req.Verbose {
		t.Error("explicit false flags should carry through")
	}
}

func TestRequestGoTemplateEngine(t *testing.T) {
	f := mustParse(t, `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["x = {{.x}}"]
  engine: gotemplate
sweep:
  parameters:
    x: [1]
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	defer closer()
	if req.Engine == nil {
		t.Fatal("Engine should be set for gotemplate")
	}
	if len(req.TemplateTexts) != 0 || len(req.TemplatePaths) != 0 {
		t.Error("template sources should move into the engine")
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRequestFilteredSpace(t *testing.T) {
	f := mustParse(t, `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x} {y}"]
sweep:
  parameters:
    x: [1, 2, 3]
    y: [1, 2, 3]
  filter: "x > y"
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	defer closer()
	if req.Space == nil {
		t.Fatal("filtered sweeps should build a Space")
	}
	if got := req.Space.Length(); got != 3 {
		t.Errorf("Space.Length() = %d, want 3", got)
	}
}

func TestRequestExplicitSets(t *testing.T) {
	f := mustParse(t, `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x}"]
sweep:
  sets:
    - {x: 1}
    - {x: 2}
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	defer closer()
	if len(req.ParameterSets) != 2 || req.Space != nil {
		t.Errorf("ParameterSets = %v, Space = %v", req.ParameterSets, req.Space)
	}
}

func TestRequestSeededRandom(t *testing.T) {
	content := `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{rate}"]
sweep:
  length: 8
  seed: 9
  distributions:
    rate:
      kind: uniform
      min: 0.0
      max: 1.0
`
	draw := func() []float64 {
		t.Helper()
		req, closer, err := mustParse(t, content).Request(context.Background())
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		defer closer()
		if req.Space == nil {
			t.Fatal("random sweeps should build a Space")
		}
		var out []float64
		for set := range req.Space.All() {
			out = append(out, set.Map()["rate"].(float64))
		}
		return out
	}

	first := draw()
	second := draw()
	if len(first) != 8 {
		t.Fatalf("drew %d values, want 8", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded draws differ at %d: %g vs %g", i, first[i], second[i])
		}
		if first[i] < 0 || first[i] >= 1 {
			t.Errorf("draw %d = %g outside [0, 1)", i, first[i])
		}
	}
}

func TestRequestNamers(t *testing.T) {
	base := `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x}"]
sweep:
  parameters:
    x: [1]
`

	f := mustParse(t, base)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	closer()
	if req.Namer != nil {
		t.Errorf("default Namer = %T, want nil", req.Namer)
	}

	f = mustParse(t, base+`naming:
  kind: hash
  digits: 12
`)
	req, closer, err = f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	closer()
	h, ok := req.Namer.(*naming.Hash)
	if !ok || h.Digits != 12 {
		t.Errorf("Namer = %#v, want *naming.Hash with 12 digits", req.Namer)
	}

	f = mustParse(t, base+`naming:
  kind: list
  ids: [a, b]
`)
	req, closer, err = f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	closer()
	if _, ok := req.Namer.(*naming.List); !ok {
		t.Errorf("Namer = %T, want *naming.List", req.Namer)
	}

	f = mustParse(t, base+`naming:
  kind: sequential
  zero_fill: 3
  start_at: 10
`)
	req, closer, err = f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	closer()
	s, ok := req.Namer.(*naming.Sequential)
	if !ok || s.ZeroFill != 3 || s.StartAt != 10 {
		t.Errorf("Namer = %#v, want *naming.Sequential{ZeroFill: 3, StartAt: 10}", req.Namer)
	}
}

func TestRequestDispatchers(t *testing.T) {
	base := `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x}"]
sweep:
  parameters:
    x: [1]
`

	f := mustParse(t, base+`dispatch:
  procs: 3
`)
	req, closer, err := f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	d, ok := req.Dispatcher.(*dispatch.Local)
	if !ok || d.Procs != 3 {
		t.Errorf("Dispatcher = %#v, want *dispatch.Local with 3 procs", req.Dispatcher)
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}

	f = mustParse(t, base+`dispatch:
  backend: slurm
  slurm:
    job_name: sim
    partition: batch
    time_limit: "01:00:00"
`)
	req, closer, err = f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if _, ok := req.Dispatcher.(*dispatch.Slurm); !ok {
		t.Errorf("Dispatcher = %T, want *dispatch.Slurm", req.Dispatcher)
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}

	f = mustParse(t, base+`dispatch:
  backend: ssh
  ssh:
    host: cluster.example.com
    user: sim
    max_sessions: 4
`)
	req, closer, err = f.Request(context.Background())
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	sd, ok := req.Dispatcher.(*dispatch.SSH)
	if !ok || sd.MaxSessions != 4 {
		t.Errorf("Dispatcher = %#v, want *dispatch.SSH with 4 sessions", req.Dispatcher)
	}
	if sd.Config.Port != 22 || sd.Config.User != "sim" {
		t.Errorf("ssh config = %+v", sd.Config)
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}
}

func TestRequestSSHUploadBadAuth(t *testing.T) {
	f := mustParse(t, `
command: "c {sim_id}"
configs: ["out"]
templates:
  texts: ["{x}"]
sweep:
  parameters:
    x: [1]
dispatch:
  backend: ssh
  ssh:
    host: cluster.example.com
    user: sim
    auth_method: password
    upload: true
`)
	_, _, err := f.Request(context.Background())
	if err == nil || !strings.Contains(err.Error(), "password is required") {
		t.Fatalf("Request() error = %v, want password validation error", err)
	}
}
