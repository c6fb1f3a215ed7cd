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

import "fmt"

// A Process is one physical mechanism in a land model. Processes
// declare the state they operate on symbolically and touch it only
// through the namespace passed to their methods, never through private
// buffers, so any number of processes can share fields and a model tree
// can be reused across simulations.
//
// During a step the framework calls ComputeAuxiliary on every process
// first and ComputeTendencies second. Tendencies accumulate: each
// process adds its rates to the tendency fields and must not overwrite
// what sibling processes have already contributed.
type Process interface {
	// Variables returns the state this process reads and writes.
	// Declarations are merged across coupled processes: two processes
	// declaring the same name share one field.
	Variables() []Variable

	// Initialize seeds starting values after the state has been
	// allocated. A process that seeds diagnostics (e.g. an initial
	// temperature profile) must prime the corresponding closure before
	// returning, so that prognostic and diagnostic fields leave
	// initialization consistent.
	Initialize(s *State, g Grid) error

	// ComputeAuxiliary recomputes this process's diagnostic variables
	// from the current prognostic and input state.
	ComputeAuxiliary(s *State, g Grid)

	// ComputeTendencies adds this process's rates of change to the
	// tendency fields. Tendency fields have been zeroed at the start
	// of the step; every contribution is an addition.
	ComputeTendencies(s *State, g Grid)
}

// NoInit is embedded by processes that need no initialization beyond
// zeroed state.
type NoInit struct{}

// Initialize implements the Process interface.
func (NoInit) Initialize(s *State, g Grid) error { return nil }

// NoDynamics is embedded by purely diagnostic processes that
// contribute no tendencies.
type NoDynamics struct{}

// ComputeTendencies implements the Process interface.
func (NoDynamics) ComputeTendencies(s *State, g Grid) {}

// coupled composes child processes in declaration order within a
// single shared namespace.
type coupled struct {
	children []Process
}

// Couple composes processes into one that runs its children in the
// given order, all sharing one namespace. Variable declarations with
// the same name collapse into a single field, which is how, for
// example, heat conduction and a geothermal source both act on one
// energy variable.
func Couple(children ...Process) Process {
	return &coupled{children: children}
}

// Processes returns the children in execution order.
func (c *coupled) Processes() []Process { return c.children }

func (c *coupled) Variables() []Variable {
	var vars []Variable
	for _, p := range c.children {
		vars = append(vars, p.Variables()...)
	}
	return vars
}

func (c *coupled) Initialize(s *State, g Grid) error {
	for _, p := range c.children {
		if err := p.Initialize(s, g); err != nil {
			return err
		}
	}
	return nil
}

func (c *coupled) ComputeAuxiliary(s *State, g Grid) {
	for _, p := range c.children {
		p.ComputeAuxiliary(s, g)
	}
}

func (c *coupled) ComputeTendencies(s *State, g Grid) {
	for _, p := range c.children {
		p.ComputeTendencies(s, g)
	}
}

// nested wraps a child process in its own namespace.
type nested struct {
	name  string
	child Process
}

// Nest gives child a private namespace within its parent's state. The
// child's variables live under the given name and cannot collide with
// the parent's; sub-model fields remain reachable from outside through
// qualified lookups like "snow.temperature".
func Nest(name string, child Process) Process {
	if !validName.MatchString(name) {
		panic(fmt.Sprintf("landmap: invalid namespace name %q", name))
	}
	return &nested{name: name, child: child}
}

// Namespace returns the name of the private namespace and the process
// inside it.
func (n *nested) Namespace() (string, Process) { return n.name, n.child }

func (n *nested) Variables() []Variable { return nil }

func (n *nested) Initialize(s *State, g Grid) error {
	child, err := s.Child(n.name)
	if err != nil {
		return err
	}
	return n.child.Initialize(child, g)
}

func (n *nested) ComputeAuxiliary(s *State, g Grid) {
	if child, err := s.Child(n.name); err == nil {
		n.child.ComputeAuxiliary(child, g)
	}
}

func (n *nested) ComputeTendencies(s *State, g Grid) {
	if child, err := s.Child(n.name); err == nil {
		n.child.ComputeTendencies(child, g)
	}
}
