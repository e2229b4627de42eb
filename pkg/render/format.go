package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// Format renders templates written with brace placeholders: "{name}"
// substitutes the parameter's default formatting, "{name:%.3f}" applies the
// given printf verb, and "{{" / "}}" escape literal braces.
type Format struct {
	templates []string
}

// NewFormat builds a Format engine from in-memory template texts.
func NewFormat(texts []string) (*Format, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("format engine requires at least one template")
	}
	stored := make([]string, len(texts))
	copy(stored, texts)
	return &Format{templates: stored}, nil
}

// LoadFormat builds a Format engine from template files.
func LoadFormat(paths []string) (*Format, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("format engine requires at least one template")
	}
	texts := make([]string, len(paths))
	for i, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading template: %w", err)
		}
		texts[i] = string(raw)
	}
	return &Format{templates: texts}, nil
}

// Render substitutes set into every template. A reference to a name missing
// from set fails at that template; names in set that no template references
// fail after all templates have rendered.
func (f *Format) Render(set sweep.Params) ([]string, error) {
	used := make(map[string]bool, set.Len())
	outs := make([]string, len(f.templates))
	for i, tmpl := range f.templates {
		out, missing, err := substitute(tmpl, set, used)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, &NameError{Missing: missing}
		}
		outs[i] = out
	}
	if unused := unusedNames(set, used); len(unused) > 0 {
		return nil, &NameError{Unused: unused}
	}
	return outs, nil
}

func substitute(tmpl string, set sweep.Params, used map[string]bool) (string, []string, error) {
	var b strings.Builder
	var missing []string
	seenMissing := make(map[string]bool)
	i := 0
	for i < len(tmpl) {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", nil, fmt.Errorf("template has an unclosed placeholder at offset %d", i)
			}
			field := tmpl[i+1 : i+end]
			name, verb := field, "%v"
			if k := strings.IndexByte(field, ':'); k >= 0 {
				name, verb = field[:k], field[k+1:]
			}
			if name == "" {
				return "", nil, fmt.Errorf("template has an empty placeholder at offset %d", i)
			}
			if v, ok := set.Get(name); ok {
				fmt.Fprintf(&b, verb, v)
				used[name] = true
			} else if !seenMissing[name] {
				seenMissing[name] = true
				missing = append(missing, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", nil, fmt.Errorf("template has a stray '}' at offset %d", i)
		default:
			b.WriteByte(tmpl[i])
			i++
		}
	}
	return b.String(), missing, nil
}
