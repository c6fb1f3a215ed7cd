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
	"encoding/gob"
	"fmt"
	"io"
	"time"
)

// snapshotNode mirrors one state namespace for serialization.
type snapshotNode struct {
	Prognostic map[string][]float64
	Tendency   map[string][]float64
	Auxiliary  map[string][]float64
	Input      map[string][]float64
	Children   map[string]*snapshotNode
}

// snapshot is the on-disk layout of a saved simulation.
type snapshot struct {
	Start time.Time
	Time  float64
	Step  int
	Root  *snapshotNode
}

// Save writes the complete simulation state to w in gob format, so an
// interrupted run can be resumed later with Load. Everything is saved,
// auxiliary fields included, and restored bit for bit.
func (s *Sim) Save(w io.Writer) error {
	if s.state == nil {
		return fmt.Errorf("landmap: Save before Init")
	}
	snap := snapshot{
		Start: s.clock.Start,
		Time:  s.clock.Time,
		Step:  s.clock.Step,
		Root:  capture(s.state),
	}
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("landmap: encoding snapshot: %v", err)
	}
	return nil
}

// Load resumes a simulation saved with Save. It takes the place of
// Init: the state is allocated from the configured model and grid and
// then overwritten with the saved values, including the clock, and the
// model's Initialize is not run. The configured model must declare
// exactly the variables present in the snapshot.
func (s *Sim) Load(r io.Reader) error {
	if s.Model == nil {
		return fmt.Errorf("landmap: simulation has no model")
	}
	if s.Grid == nil {
		return fmt.Errorf("landmap: simulation has no grid")
	}
	if s.Integrator == nil {
		s.Integrator = Euler{}
	}
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("landmap: decoding snapshot: %v", err)
	}
	s.clock = Clock{Start: snap.Start, Time: snap.Time, Step: snap.Step}
	state, err := BuildState(s.Model, s.Grid, &s.clock)
	if err != nil {
		return err
	}
	if err := state.restore(snap.Root); err != nil {
		return err
	}
	s.state = state
	return nil
}

func capture(s *State) *snapshotNode {
	n := &snapshotNode{
		Prognostic: make(map[string][]float64),
		Tendency:   make(map[string][]float64),
		Auxiliary:  make(map[string][]float64),
		Input:      make(map[string][]float64),
		Children:   make(map[string]*snapshotNode),
	}
	cp := func(d []float64) []float64 { return append([]float64(nil), d...) }
	for _, f := range s.fields {
		switch f.Kind {
		case Prognostic:
			n.Prognostic[f.Name] = cp(f.Data)
			n.Tendency[f.Name] = cp(s.tendency[f.Name].Data)
		case Auxiliary:
			n.Auxiliary[f.Name] = cp(f.Data)
		case Input:
			n.Input[f.Name] = cp(f.Data)
		}
	}
	for name, c := range s.children {
		n.Children[name] = capture(c)
	}
	return n
}

// restore copies saved values into the allocated state in place,
// failing if the snapshot and the state disagree about layout.
func (s *State) restore(n *snapshotNode) error {
	if n == nil {
		return fmt.Errorf("landmap: snapshot has no data for namespace %q", s.path)
	}
	groups := []struct {
		name  string
		saved map[string][]float64
		get   func(name string) (*Field, bool)
	}{
		{"prognostic", n.Prognostic, func(name string) (*Field, bool) {
			f, ok := s.index[name]
			return f, ok && f.Kind == Prognostic
		}},
		{"tendency", n.Tendency, func(name string) (*Field, bool) {
			f, ok := s.tendency[name]
			return f, ok
		}},
		{"auxiliary", n.Auxiliary, func(name string) (*Field, bool) {
			f, ok := s.index[name]
			return f, ok && f.Kind == Auxiliary
		}},
		{"input", n.Input, func(name string) (*Field, bool) {
			f, ok := s.index[name]
			return f, ok && f.Kind == Input
		}},
	}
	for _, g := range groups {
		for name, data := range g.saved {
			f, ok := g.get(name)
			if !ok {
				return fmt.Errorf("landmap: snapshot holds unknown %s variable %s",
					g.name, s.qualify(name))
			}
			if len(data) != len(f.Data) {
				return fmt.Errorf("landmap: snapshot variable %s has %d values, state has %d",
					s.qualify(name), len(data), len(f.Data))
			}
			copy(f.Data, data)
		}
	}
	var want int
	for _, f := range s.fields {
		switch f.Kind {
		case Prognostic:
			want += 2
		default:
			want++
		}
	}
	if got := len(n.Prognostic) + len(n.Tendency) + len(n.Auxiliary) + len(n.Input); got != want {
		return fmt.Errorf("landmap: snapshot holds %d variables for namespace %q, state has %d",
			got, s.path, want)
	}
	for name, c := range s.children {
		if err := c.restore(n.Children[name]); err != nil {
			return err
		}
	}
	if len(n.Children) != len(s.children) {
		return fmt.Errorf("landmap: snapshot holds %d child namespaces for %q, state has %d",
			len(n.Children), s.path, len(s.children))
	}
	return nil
}
