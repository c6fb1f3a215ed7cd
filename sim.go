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
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// An InputSource writes input variables before each step, typically by
// interpolating meteorological forcing records to the current clock
// time.
type InputSource interface {
	Update(s *State, g Grid, c *Clock) error
}

// A Sim drives one simulation: it allocates state for a model on a
// grid and advances it through time. The exported fields configure the
// simulation and must not change after Init.
type Sim struct {
	// Model is the root of the process tree.
	Model Process

	// Grid is the spatial discretization to allocate state on.
	Grid Grid

	// Integrator advances the state each step. Nil selects forward
	// Euler.
	Integrator Integrator

	// Inputs update the input variables at the start of every step, in
	// order.
	Inputs []InputSource

	// Dt is the timestep [s].
	Dt float64

	// Start is the calendar time of the first step.
	Start time.Time

	// Check, when non-nil, scans the state between step phases.
	Check *Check

	// Log, when non-nil, receives progress information. LogEvery sets
	// how many steps pass between progress entries; zero logs only the
	// start and end of a run.
	Log      logrus.FieldLogger
	LogEvery int

	clock Clock
	state *State
}

// Init allocates the model state and runs the model's initialization.
// Calling Init again discards all state and restarts the simulation
// from its start time; it is the only way the clock moves backward.
func (s *Sim) Init() error {
	if s.Model == nil {
		return fmt.Errorf("landmap: simulation has no model")
	}
	if s.Grid == nil {
		return fmt.Errorf("landmap: simulation has no grid")
	}
	if !(s.Dt > 0) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("landmap: invalid timestep %g s", s.Dt)
	}
	if s.Integrator == nil {
		s.Integrator = Euler{}
	}
	s.clock = Clock{Start: s.Start}
	state, err := BuildState(s.Model, s.Grid, &s.clock)
	if err != nil {
		return err
	}
	s.state = state
	if err := s.Model.Initialize(state, s.Grid); err != nil {
		return fmt.Errorf("landmap: initializing model: %v", err)
	}
	return s.Check.Scan(state, "initialization")
}

// State returns the state tree, or nil before Init.
func (s *Sim) State() *State { return s.state }

// Clock returns a copy of the simulation clock.
func (s *Sim) Clock() Clock { return s.clock }

// Step advances the simulation by one timestep: inputs are updated,
// tendencies are zeroed, every process computes its diagnostics and
// then its rates, the integrator advances the prognostic state, and
// the clock moves forward by Dt.
func (s *Sim) Step() error {
	if s.state == nil {
		return fmt.Errorf("landmap: Step before Init")
	}
	for _, in := range s.Inputs {
		if err := in.Update(s.state, s.Grid, &s.clock); err != nil {
			return fmt.Errorf("landmap: updating inputs at step %d: %v", s.clock.Step, err)
		}
	}
	if err := s.Check.Scan(s.state, "input"); err != nil {
		return err
	}
	s.state.ZeroTendencies()
	s.Model.ComputeAuxiliary(s.state, s.Grid)
	if err := s.Check.Scan(s.state, "auxiliary"); err != nil {
		return err
	}
	s.Model.ComputeTendencies(s.state, s.Grid)
	if err := s.Check.Scan(s.state, "tendency"); err != nil {
		return err
	}
	if err := s.Integrator.Advance(s.Model, s.state, s.Grid, s.Dt); err != nil {
		return fmt.Errorf("landmap: advancing state at step %d: %v", s.clock.Step, err)
	}
	if err := s.Check.Scan(s.state, "integration"); err != nil {
		return err
	}
	s.clock.advance(s.Dt)
	return nil
}

// A RunOption sets the length of a run.
type RunOption func(*runConfig)

type runConfig struct {
	steps      int
	period     time.Duration
	haveSteps  bool
	havePeriod bool
}

// Steps runs the simulation for exactly n steps.
func Steps(n int) RunOption {
	return func(c *runConfig) {
		c.steps = n
		c.haveSteps = true
	}
}

// Period runs the simulation until at least d of model time has
// elapsed; the number of steps is rounded up, so the final clock time
// may overshoot d by less than one timestep.
func Period(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.period = d
		c.havePeriod = true
	}
}

// Run advances the simulation by the requested length, which must be
// given as exactly one of Steps or Period; anything else is a
// configuration error and no steps are taken. Run may be called
// repeatedly to continue a simulation. Cancelling ctx stops the run
// between steps.
func (s *Sim) Run(ctx context.Context, opts ...RunOption) error {
	if s.state == nil {
		return fmt.Errorf("landmap: Run before Init")
	}
	var cfg runConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.haveSteps == cfg.havePeriod {
		return fmt.Errorf("landmap: run length must be set by exactly one of Steps or Period")
	}
	n := cfg.steps
	if cfg.havePeriod {
		n = int(math.Ceil(cfg.period.Seconds() / s.Dt))
	}
	if n < 0 {
		return fmt.Errorf("landmap: negative run length %d", n)
	}

	begin := time.Now()
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"steps": n, "dt": s.Dt, "from": s.clock.Now(),
		}).Info("starting run")
	}
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
		if s.Log != nil && s.LogEvery > 0 && (i+1)%s.LogEvery == 0 {
			s.Log.WithFields(logrus.Fields{
				"step": s.clock.Step, "model_time": s.clock.Now(),
				"walltime": time.Since(begin).Round(time.Millisecond),
			}).Info("step finished")
		}
	}
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"steps": n, "model_time": s.clock.Now(),
			"walltime": time.Since(begin).Round(time.Millisecond),
		}).Info("run finished")
	}
	return nil
}
