/*
Copyright © 2024 the LandMAP authors.
This file is part of LandMAP.

LandMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LandMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LandMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package landmap

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// A Field is one named array of model state. Values are stored flat:
// lateral fields hold one value per column and column-resolving fields
// hold one value per cell in column-major order, indexed through
// Grid.Index.
type Field struct {
	Variable
	Data []float64
}

// Fill sets every value of the field to v.
func (f *Field) Fill(v float64) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// Sum returns the sum of all values.
func (f *Field) Sum() float64 { return floats.Sum(f.Data) }

// Mean returns the arithmetic mean of all values.
func (f *Field) Mean() float64 { return floats.Sum(f.Data) / float64(len(f.Data)) }

// Max returns the largest value.
func (f *Field) Max() float64 { return floats.Max(f.Data) }

// Min returns the smallest value.
func (f *Field) Min() float64 { return floats.Min(f.Data) }

// A State is a namespace of model fields, allocated on a grid by
// merging the declarations of a process tree. Within one namespace
// every name is unique; processes composed with Nest get child
// namespaces of their own. All namespaces of a tree share one clock.
//
// Lookups by the group accessors resolve against fields allocated at
// build time; asking for a name that was never declared is a
// programming error and panics.
type State struct {
	path   string
	parent *State
	clock  *Clock

	fields    []*Field
	index     map[string]*Field
	tendency  map[string]*Field
	closures  map[string]Closure
	progOrder []string
	clOrder   []string

	children   map[string]*State
	childOrder []string
}

func newState(path string, parent *State, clock *Clock) *State {
	return &State{
		path:     path,
		parent:   parent,
		clock:    clock,
		index:    make(map[string]*Field),
		tendency: make(map[string]*Field),
		closures: make(map[string]Closure),
		children: make(map[string]*State),
	}
}

// BuildState walks the process tree m, merges its variable
// declarations and allocates state for them on grid g. Conflicting
// declarations (one name declared with different kinds, dimensions,
// units or closures) are configuration errors.
func BuildState(m Process, g Grid, clock *Clock) (*State, error) {
	s := newState("", nil, clock)
	if err := s.declareProcess(m, g); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) declareProcess(p Process, g Grid) error {
	switch t := p.(type) {
	case interface{ Namespace() (string, Process) }:
		name, child := t.Namespace()
		cs, err := s.ensureChild(name)
		if err != nil {
			return err
		}
		return cs.declareProcess(child, g)
	case interface{ Processes() []Process }:
		for _, c := range t.Processes() {
			if err := s.declareProcess(c, g); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, v := range p.Variables() {
			if err := s.declare(v, g); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *State) ensureChild(name string) (*State, error) {
	if _, ok := s.index[name]; ok {
		return nil, fmt.Errorf("landmap: namespace name %s collides with variable %s",
			name, s.qualify(name))
	}
	if c, ok := s.children[name]; ok {
		return c, nil
	}
	c := newState(s.qualify(name), s, s.clock)
	s.children[name] = c
	s.childOrder = append(s.childOrder, name)
	return c, nil
}

func (s *State) declare(v Variable, g Grid) error {
	if err := v.check(); err != nil {
		return err
	}
	if _, ok := s.children[v.Name]; ok {
		return fmt.Errorf("landmap: variable name %s collides with child namespace",
			s.qualify(v.Name))
	}
	if f, ok := s.index[v.Name]; ok {
		// Shared ownership: a redeclaration must agree with the
		// existing field and may contribute a closure the first
		// declaration lacked.
		if err := f.Variable.compatible(v); err != nil {
			return err
		}
		if f.Closure == nil && v.Closure != nil {
			f.Closure = v.Closure
			s.closures[v.Name] = v.Closure
			s.clOrder = append(s.clOrder, v.Name)
		}
		if f.Units == "" {
			f.Units = v.Units
		}
		if f.Description == "" {
			f.Description = v.Description
		}
		return nil
	}

	n := g.Columns()
	if v.Dims == Column {
		n = g.Cells()
	}
	f := &Field{Variable: v, Data: make([]float64, n)}
	s.fields = append(s.fields, f)
	s.index[v.Name] = f
	switch v.Kind {
	case Prognostic:
		units := v.Units
		if units != "" {
			units += " s-1"
		}
		s.tendency[v.Name] = &Field{
			Variable: Variable{Name: v.Name, Kind: v.Kind, Dims: v.Dims, Units: units},
			Data:     make([]float64, n),
		}
		s.progOrder = append(s.progOrder, v.Name)
		if v.Closure != nil {
			s.closures[v.Name] = v.Closure
			s.clOrder = append(s.clOrder, v.Name)
		}
	case Auxiliary, Input:
	default:
		return fmt.Errorf("landmap: variable %s has unknown kind %v", s.qualify(v.Name), v.Kind)
	}
	return nil
}

// Path returns the dotted location of this namespace within the tree;
// the root namespace has an empty path.
func (s *State) Path() string { return s.path }

func (s *State) qualify(name string) string {
	if s.path == "" {
		return name
	}
	return s.path + "." + name
}

// Clock returns the clock shared by all namespaces of the tree.
func (s *State) Clock() *Clock { return s.clock }

// Parent returns the enclosing namespace, or nil at the root.
func (s *State) Parent() *State { return s.parent }

// Child returns the named child namespace.
func (s *State) Child(name string) (*State, error) {
	c, ok := s.children[name]
	if !ok {
		return nil, fmt.Errorf("landmap: namespace %q has no child %s", s.path, name)
	}
	return c, nil
}

// Children returns the names of the child namespaces in declaration
// order.
func (s *State) Children() []string {
	return append([]string(nil), s.childOrder...)
}

// Fields returns the fields of this namespace in declaration order,
// not including tendencies or child namespaces.
func (s *State) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

func (s *State) get(name string, kind Kind) *Field {
	f, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("landmap: no variable %s in namespace %q", name, s.path))
	}
	if f.Kind != kind {
		panic(fmt.Sprintf("landmap: variable %s is %s, not %s",
			s.qualify(name), f.Kind, kind))
	}
	return f
}

// Prognostic returns the named prognostic field.
func (s *State) Prognostic(name string) *Field { return s.get(name, Prognostic) }

// Aux returns the named auxiliary field.
func (s *State) Aux(name string) *Field { return s.get(name, Auxiliary) }

// Input returns the named input field.
func (s *State) Input(name string) *Field { return s.get(name, Input) }

// Has reports whether this namespace declares the named variable.
// Processes with optional couplings use it to probe for fields that
// only some model configurations provide.
func (s *State) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Tendency returns the tendency field of the named prognostic
// variable.
func (s *State) Tendency(name string) *Field {
	f, ok := s.tendency[name]
	if !ok {
		panic(fmt.Sprintf("landmap: no prognostic variable %s in namespace %q", name, s.path))
	}
	return f
}

// Lookup resolves name in this namespace or, failing that, in its
// ancestors. It returns nil when no enclosing namespace declares the
// name. Nested sub-models use it to read fields of the model they are
// embedded in.
func (s *State) Lookup(name string) *Field {
	for t := s; t != nil; t = t.parent {
		if f, ok := t.index[name]; ok {
			return f
		}
	}
	return nil
}

// Find resolves a possibly dotted path like "veg.leaf_area" to a
// field. An unqualified name is looked up in this namespace first and
// then depth-first in the children, returning the first match.
func (s *State) Find(path string) (*Field, error) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		c, err := s.Child(path[:i])
		if err != nil {
			return nil, err
		}
		return c.Find(path[i+1:])
	}
	if f, ok := s.index[path]; ok {
		return f, nil
	}
	for _, name := range s.childOrder {
		if f, err := s.children[name].Find(path); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("landmap: no variable %s in namespace %q or below", path, s.path)
}

// ZeroTendencies clears every tendency field in the tree. The driver
// calls it at the start of each step, before processes accumulate
// their rates.
func (s *State) ZeroTendencies() {
	s.EachPrognostic(func(ns *State, f, tend *Field) {
		for i := range tend.Data {
			tend.Data[i] = 0
		}
	})
}

// EachPrognostic visits every prognostic field of the tree with its
// tendency field, in declaration order, parents before children. The
// traversal order is deterministic, so integrators rely on it to keep
// scratch storage aligned between visits.
func (s *State) EachPrognostic(fn func(ns *State, f, tend *Field)) {
	for _, name := range s.progOrder {
		fn(s, s.index[name], s.tendency[name])
	}
	for _, name := range s.childOrder {
		s.children[name].EachPrognostic(fn)
	}
}

// EachClosure visits every closure of the tree in declaration order,
// parents before children.
func (s *State) EachClosure(fn func(ns *State, cl Closure)) {
	for _, name := range s.clOrder {
		fn(s, s.closures[name])
	}
	for _, name := range s.childOrder {
		s.children[name].EachClosure(fn)
	}
}

// eachField visits every field of the tree including tendencies,
// labeled with its group, in declaration order.
func (s *State) eachField(fn func(ns *State, group string, f *Field)) {
	for _, f := range s.fields {
		switch f.Kind {
		case Prognostic:
			fn(s, "prognostic", f)
			fn(s, "tendency", s.tendency[f.Name])
		case Auxiliary:
			fn(s, "auxiliary", f)
		case Input:
			fn(s, "input", f)
		}
	}
	for _, name := range s.childOrder {
		s.children[name].eachField(fn)
	}
}

// VarNames returns the sorted qualified names of all non-tendency
// fields in the tree.
func (s *State) VarNames() []string {
	var names []string
	s.eachField(func(ns *State, group string, f *Field) {
		if group != "tendency" {
			names = append(names, ns.qualify(f.Name))
		}
	})
	sort.Strings(names)
	return names
}
