package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Param is a single named parameter value.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered set of named parameter values for one simulation.
// The declaration order of names is significant: it defines axis order for
// dense mappings and the field order of serialized output. Params values are
// treated as immutable once produced by a Space.
type Params struct {
	names []string
	vals  map[string]any
}

// MakeParams builds a Params from pairs, preserving their order. A repeated
// name keeps its first position and takes the last value.
func MakeParams(pairs ...Param) Params {
	p := Params{
		names: make([]string, 0, len(pairs)),
		vals:  make(map[string]any, len(pairs)),
	}
	for _, pair := range pairs {
		if _, ok := p.vals[pair.Name]; !ok {
			p.names = append(p.names, pair.Name)
		}
		p.vals[pair.Name] = pair.Value
	}
	return p
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.names) }

// Names returns the parameter names in declaration order.
func (p Params) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Get returns the value bound to name.
func (p Params) Get(name string) (any, bool) {
	v, ok := p.vals[name]
	return v, ok
}

// Pairs returns the parameters in declaration order.
func (p Params) Pairs() []Param {
	out := make([]Param, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, Param{Name: name, Value: p.vals[name]})
	}
	return out
}

// Sorted returns the parameters sorted by name. Hash-based naming relies on
// this canonical order.
func (p Params) Sorted() []Param {
	out := p.Pairs()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Map returns a plain map copy of the parameters for template rendering.
func (p Params) Map() map[string]any {
	out := make(map[string]any, len(p.vals))
	for k, v := range p.vals {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	return MakeParams(p.Pairs()...)
}

// Equal reports whether two Params bind the same names, in the same order,
// to equal values.
func (p Params) Equal(o Params) bool {
	if len(p.names) != len(o.names) {
		return false
	}
	for i, name := range p.names {
		if o.names[i] != name {
			return false
		}
		if !reflect.DeepEqual(p.vals[name], o.vals[name]) {
			return false
		}
	}
	return true
}

// String renders the parameters as "name=value" pairs in declaration order.
func (p Params) String() string {
	var b strings.Builder
	for i, name := range p.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", name, p.vals[name])
	}
	return b.String()
}

// MarshalJSON encodes the parameters as a JSON object with keys in
// declaration order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(p.vals[name])
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
