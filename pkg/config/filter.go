package config

import (
	"fmt"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/parasol-run/parasol/pkg/sweep"
)

const defaultFilterTimeout = 30 * time.Second

// Filter evaluates a Starlark boolean expression over parameter sets.
// The parameter names are bound as variables, so a file with parameters
// x and y can filter on "x > y". A Filter is not safe for concurrent
// use; filtered spaces evaluate it from a single goroutine.
type Filter struct {
	src     string
	expr    syntax.Expr
	timeout time.Duration
}

// NewFilter parses src as a Starlark expression. The filename shows up
// in parse error positions. A zero timeout means 30 seconds.
func NewFilter(src, filename string, timeout time.Duration) (*Filter, error) {
	if timeout == 0 {
		timeout = defaultFilterTimeout
	}
	if filename == "" {
		filename = "filter"
	}
	expr, err := syntax.ParseExpr(filename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}
	return &Filter{src: src, expr: expr, timeout: timeout}, nil
}

func (f *Filter) String() string {
	return f.src
}

// Predicate adapts the filter to the parameter space predicate shape.
func (f *Filter) Predicate() sweep.Predicate {
	return f.keep
}

func (f *Filter) keep(set sweep.Params) (bool, error) {
	env := make(starlark.StringDict, set.Len())
	for _, p := range set.Pairs() {
		v, err := toStarlarkValue(p.Value)
		if err != nil {
			return false, fmt.Errorf("filter parameter %s: %w", p.Name, err)
		}
		env[p.Name] = v
	}

	thread := &starlark.Thread{Name: "filter"}
	timer := time.AfterFunc(f.timeout, func() {
		thread.Cancel("filter timeout")
	})
	defer timer.Stop()

	v, err := starlark.EvalExpr(thread, f.expr, env)
	if err != nil {
		return false, fmt.Errorf("evaluating filter: %w", err)
	}
	b, ok := v.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("filter returned %s, want bool", v.Type())
	}
	return bool(b), nil
}

// toStarlarkValue converts a Go value to a Starlark value.
func toStarlarkValue(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			starlarkItem, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = starlarkItem
		}
		return starlark.NewList(list), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := toStarlarkValue(v)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), starlarkVal); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
