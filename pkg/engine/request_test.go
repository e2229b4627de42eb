package engine

import (
	"strings"
	"testing"

	"github.com/parasol-run/parasol/pkg/dispatch"
	"github.com/parasol-run/parasol/pkg/files"
	"github.com/parasol-run/parasol/pkg/naming"
	"github.com/parasol-run/parasol/pkg/sweep"
)

func minimalRequest() *Request {
	return &Request{
		Command:       "./sim {sim_id}",
		ConfigPaths:   []string{"sim_{sim_id}.conf"},
		TemplateTexts: []string{"x = {x}\n"},
		Parameters:    []sweep.Axis{{Name: "x", Values: []any{1, 2}}},
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"valid", func(r *Request) {}, ""},
		{
			"missing command",
			func(r *Request) { r.Command = "" },
			"invalid sweep request",
		},
		{
			"no config paths",
			func(r *Request) { r.ConfigPaths = nil },
			"invalid sweep request",
		},
		{
			"empty config path",
			func(r *Request) { r.ConfigPaths = []string{""} },
			"invalid sweep request",
		},
		{
			"no template source",
			func(r *Request) { r.TemplateTexts = nil },
			"TemplatePaths, TemplateTexts, or Engine",
		},
		{
			"two template sources",
			func(r *Request) { r.TemplatePaths = []string{"a.tmpl"} },
			"TemplatePaths, TemplateTexts, or Engine",
		},
		{
			"no space source",
			func(r *Request) { r.Parameters = nil },
			"Parameters, ParameterSets, or Space",
		},
		{
			"two space sources",
			func(r *Request) {
				r.ParameterSets = []sweep.Params{sweep.MakeParams(sweep.Param{Name: "x", Value: 1})}
			},
			"Parameters, ParameterSets, or Space",
		},
		{
			"template count mismatch",
			func(r *Request) { r.TemplateTexts = []string{"a", "b"} },
			"2 template texts for 1 config paths",
		},
		{
			"negative delay",
			func(r *Request) { r.Delay = -1 },
			"invalid sweep request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := minimalRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.want)
			}
			if err != nil && !IsConfig(err) {
				t.Errorf("Validate() error should be a config error, got %v", err)
			}
		})
	}
}

func TestRequestDefaults(t *testing.T) {
	req := minimalRequest()
	if _, ok := req.namer().(*naming.Sequential); !ok {
		t.Errorf("namer() default = %T, want *naming.Sequential", req.namer())
	}
	if _, ok := req.dispatcher().(*dispatch.Local); !ok {
		t.Errorf("dispatcher() default = %T, want *dispatch.Local", req.dispatcher())
	}
	if _, ok := req.writer().(files.Local); !ok {
		t.Errorf("writer() default = %T, want files.Local", req.writer())
	}
}

func TestRequestSweepID(t *testing.T) {
	req := minimalRequest()
	req.SweepID = "given"
	if got := req.sweepID(); got != "given" {
		t.Errorf("sweepID() = %q, want the explicit ID", got)
	}

	req.SweepID = ""
	generated := req.sweepID()
	if generated == "" {
		t.Fatal("sweepID() generated an empty ID")
	}
	// The ID lands in mapping file names, so no colons.
	if strings.ContainsRune(generated, ':') {
		t.Errorf("sweepID() = %q contains a colon", generated)
	}
}

func TestRequestMode(t *testing.T) {
	req := minimalRequest()
	if got := req.mode(); got != "concurrent" {
		t.Errorf("mode() = %q, want concurrent", got)
	}
	req.Serial = true
	if got := req.mode(); got != "serial" {
		t.Errorf("mode() = %q, want serial", got)
	}
	req.RenderOnly = true
	if got := req.mode(); got != "render-only" {
		t.Errorf("mode() = %q, want render-only", got)
	}
}
