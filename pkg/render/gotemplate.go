package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"
	"github.com/parasol-run/parasol/pkg/sweep"
)

// GoTemplate renders text/template templates with the sprig function map.
// Parameters are exposed as top-level fields: "{{.x}}" substitutes parameter
// x; the full sprig library is available in pipelines.
type GoTemplate struct {
	templates []*template.Template
}

// NewGoTemplate builds an engine from in-memory template texts.
func NewGoTemplate(texts []string) (*GoTemplate, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("template engine requires at least one template")
	}
	templates := make([]*template.Template, len(texts))
	for i, text := range texts {
		t, err := template.New(fmt.Sprintf("template_%d", i+1)).
			Funcs(sprig.FuncMap()).
			Option("missingkey=error").
			Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing template %d: %w", i+1, err)
		}
		templates[i] = t
	}
	return &GoTemplate{templates: templates}, nil
}

// LoadGoTemplate builds an engine from template files.
func LoadGoTemplate(paths []string) (*GoTemplate, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("template engine requires at least one template")
	}
	templates := make([]*template.Template, len(paths))
	for i, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading template: %w", err)
		}
		t, err := template.New(filepath.Base(path)).
			Funcs(sprig.FuncMap()).
			Option("missingkey=error").
			Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", path, err)
		}
		templates[i] = t
	}
	return &GoTemplate{templates: templates}, nil
}

// Render executes every template against set. Field references are collected
// from the parse trees first so missing parameters surface as a NameError
// before execution, and parameters no template references surface after.
func (g *GoTemplate) Render(set sweep.Params) ([]string, error) {
	used := make(map[string]bool, set.Len())
	outs := make([]string, len(g.templates))
	data := set.Map()
	for i, t := range g.templates {
		refs := make(map[string]bool)
		collectFields(t, refs)

		var missing []string
		for name := range refs {
			if _, ok := set.Get(name); ok {
				used[name] = true
			} else {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, &NameError{Missing: missing}
		}

		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("rendering template %s: %w", t.Name(), err)
		}
		outs[i] = buf.String()
	}
	if unused := unusedNames(set, used); len(unused) > 0 {
		return nil, &NameError{Unused: unused}
	}
	return outs, nil
}

// collectFields walks the parse trees and records the top-level field names
// the template dereferences.
func collectFields(t *template.Template, fields map[string]bool) {
	for _, tmpl := range t.Templates() {
		if tmpl.Tree == nil || tmpl.Tree.Root == nil {
			continue
		}
		walkNode(tmpl.Tree.Root, fields)
	}
}

func walkNode(node parse.Node, fields map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walkNode(child, fields)
		}
	case *parse.ActionNode:
		walkPipe(n.Pipe, fields)
	case *parse.IfNode:
		walkBranch(&n.BranchNode, fields)
	case *parse.RangeNode:
		walkBranch(&n.BranchNode, fields)
	case *parse.WithNode:
		walkBranch(&n.BranchNode, fields)
	case *parse.TemplateNode:
		walkPipe(n.Pipe, fields)
	}
}

func walkBranch(b *parse.BranchNode, fields map[string]bool) {
	walkPipe(b.Pipe, fields)
	if b.List != nil {
		walkNode(b.List, fields)
	}
	if b.ElseList != nil {
		walkNode(b.ElseList, fields)
	}
}

func walkPipe(pipe *parse.PipeNode, fields map[string]bool) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			walkArg(arg, fields)
		}
	}
}

func walkArg(arg parse.Node, fields map[string]bool) {
	switch a := arg.(type) {
	case *parse.FieldNode:
		if len(a.Ident) > 0 {
			fields[a.Ident[0]] = true
		}
	case *parse.ChainNode:
		walkArg(a.Node, fields)
	case *parse.PipeNode:
		walkPipe(a, fields)
	}
}
