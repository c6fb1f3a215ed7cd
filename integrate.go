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
	"math"

	"gonum.org/v1/gonum/floats"
)

// An Integrator advances the prognostic state of a model by one
// timestep. When Advance is called the tendency fields hold the rates
// of change computed at the current state; on return the prognostic
// fields hold the state at time t+Δt and every closure has been
// refreshed, so diagnostics tied to prognostic variables are
// consistent with the new state.
type Integrator interface {
	Advance(p Process, s *State, g Grid, Δt float64) error
}

// refresh recomputes all closure diagnostics of the tree.
func refresh(s *State, g Grid) {
	s.EachClosure(func(ns *State, cl Closure) { cl.Refresh(ns, g) })
}

// Euler is the explicit first-order forward Euler integrator:
// x(t+Δt) = x(t) + Δt·k₁ with k₁ the rates at the current state.
type Euler struct{}

// Advance implements the Integrator interface.
func (Euler) Advance(p Process, s *State, g Grid, Δt float64) error {
	s.EachPrognostic(func(ns *State, f, tend *Field) {
		floats.AddScaled(f.Data, Δt, tend.Data)
	})
	refresh(s, g)
	return nil
}

// Heun is the explicit second-order predictor-corrector integrator:
// a forward Euler step predicts x* = x(t) + Δt·k₁, the model rates are
// re-evaluated at the predicted state to give k₂, and the step is
// completed as x(t+Δt) = x(t) + Δt·(k₁+k₂)/2.
//
// Heun keeps scratch copies of the state between steps and resizes them
// only when the state layout changes, so repeated steps allocate
// nothing. A Heun value must not be shared between concurrently
// running simulations.
type Heun struct {
	x0 [][]float64 // state at the start of the step
	k1 [][]float64 // predictor-stage rates
}

// Advance implements the Integrator interface. On return the tendency
// fields hold the corrector-stage rates k₂.
func (h *Heun) Advance(p Process, s *State, g Grid, Δt float64) error {
	i := 0
	s.EachPrognostic(func(ns *State, f, tend *Field) {
		if i == len(h.x0) {
			h.x0 = append(h.x0, make([]float64, len(f.Data)))
			h.k1 = append(h.k1, make([]float64, len(f.Data)))
		} else if len(h.x0[i]) != len(f.Data) {
			h.x0[i] = make([]float64, len(f.Data))
			h.k1[i] = make([]float64, len(f.Data))
		}
		copy(h.x0[i], f.Data)
		copy(h.k1[i], tend.Data)
		floats.AddScaled(f.Data, Δt, tend.Data) // predictor
		i++
	})
	h.x0, h.k1 = h.x0[:i], h.k1[:i]
	refresh(s, g)

	s.ZeroTendencies()
	p.ComputeAuxiliary(s, g)
	p.ComputeTendencies(s, g)

	i = 0
	s.EachPrognostic(func(ns *State, f, tend *Field) {
		x0, k1 := h.x0[i], h.k1[i]
		for j := range f.Data {
			f.Data[j] = x0[j] + Δt/2*(k1[j]+tend.Data[j])
		}
		i++
	})
	refresh(s, g)
	return nil
}

// FixedPoint iterates x ← f(x) from x0 until successive iterates agree
// within tol or maxIter iterations have run. The second return value
// reports whether the iteration converged; when it did not, the last
// iterate is returned anyway so callers can continue with a warning
// rather than fail.
func FixedPoint(x0, tol float64, maxIter int, f func(float64) float64) (float64, bool) {
	x := x0
	for i := 0; i < maxIter; i++ {
		xNext := f(x)
		if math.Abs(xNext-x) <= tol {
			return xNext, true
		}
		x = xNext
	}
	return x, false
}
