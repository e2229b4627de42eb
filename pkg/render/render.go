// Package render turns parameter sets into configuration file contents.
//
// An Engine holds one or more loaded templates and renders one text per
// template for each parameter set. Engines enforce the naming contract both
// ways: a template referencing a parameter that was not supplied is an
// error, and so is a supplied parameter that no loaded template references
// (usually a typo in the sweep definition). Two engines are provided:
// Format, with "{name}" placeholders and printf-style verbs, and GoTemplate,
// text/template extended with the sprig function map.
package render

import (
	"fmt"
	"strings"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// Engine renders one text per loaded template from a parameter set.
type Engine interface {
	Render(set sweep.Params) ([]string, error)
}

// NameError reports parameter names missing from or unused by the loaded
// templates. Missing names abort at the template that references them;
// unused names are checked across all templates together after rendering.
type NameError struct {
	Missing []string
	Unused  []string
}

func (e *NameError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, nameList(e.Missing)+" used in the template but not provided")
	}
	if len(e.Unused) > 0 {
		parts = append(parts, nameList(e.Unused)+" not used in any template")
	}
	if len(parts) == 0 {
		return "template name error"
	}
	return "template: " + strings.Join(parts, "; ")
}

func nameList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	if len(names) == 1 {
		return "the name " + quoted[0] + " is"
	}
	return "the names " + strings.Join(quoted, ", ") + " are"
}

// unusedNames returns the parameters of set that no template referenced, in
// declaration order.
func unusedNames(set sweep.Params, used map[string]bool) []string {
	var unused []string
	for _, name := range set.Names() {
		if !used[name] {
			unused = append(unused, name)
		}
	}
	return unused
}
