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

// Package boundary provides the values and fluxes that close a model
// at the edges of its domain: surface temperatures, geothermal heat
// fluxes, infiltration rates. Conditions are queried per column at a
// calendar time, so one condition can drive many columns or vary
// seasonally.
package boundary

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ctessum/unit"
)

// A Condition supplies a boundary value or flux for one variable,
// queried by column index and time.
type Condition interface {
	At(t time.Time, col int) float64
}

// Constant is a condition with the same value everywhere, always.
type Constant float64

// At implements the Condition interface.
func (c Constant) At(t time.Time, col int) float64 { return float64(c) }

// Harmonic is a sinusoidally varying condition, typically an annual or
// diurnal cycle around a mean.
type Harmonic struct {
	Mean      float64
	Amplitude float64
	// Period of one full cycle.
	Period time.Duration
	// Phase is the time of the rising zero crossing.
	Phase time.Time
}

// At implements the Condition interface.
func (h *Harmonic) At(t time.Time, col int) float64 {
	ω := 2 * math.Pi / h.Period.Seconds()
	return h.Mean + h.Amplitude*math.Sin(ω*t.Sub(h.Phase).Seconds())
}

// Series is a condition interpolated linearly between timestamped
// values, clamped to the first and last value outside the record.
type Series struct {
	times []time.Time
	vals  []float64
}

// NewSeries builds an interpolating condition from matching slices of
// times and values. The times must be strictly increasing.
func NewSeries(times []time.Time, vals []float64) (*Series, error) {
	if len(times) != len(vals) {
		return nil, fmt.Errorf("boundary: %d times but %d values", len(times), len(vals))
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("boundary: empty series")
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("boundary: series times not increasing at %v", times[i])
		}
	}
	return &Series{times: times, vals: vals}, nil
}

// At implements the Condition interface.
func (s *Series) At(t time.Time, col int) float64 {
	i := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(t) })
	switch {
	case i == 0:
		return s.vals[0]
	case i == len(s.times):
		return s.vals[len(s.vals)-1]
	}
	t0, t1 := s.times[i-1], s.times[i]
	w := t.Sub(t0).Seconds() / t1.Sub(t0).Seconds()
	return (1-w)*s.vals[i-1] + w*s.vals[i]
}

// PerColumn dispatches to a different condition for every column.
type PerColumn []Condition

// At implements the Condition interface.
func (p PerColumn) At(t time.Time, col int) float64 { return p[col].At(t, col) }

var (
	wattPerMeter2  = unit.Div(unit.New(1, unit.Watt), unit.New(1, unit.Meter2)).Dimensions()
	meterPerSecond = unit.MeterPerSecond
)

// NewFlux returns a constant energy-flux condition [W m-2] from a
// dimensioned quantity, rejecting quantities that are not energy
// fluxes. Use it to catch configurations that supply, say, a
// temperature where a geothermal flux is expected.
func NewFlux(q *unit.Unit) (Condition, error) {
	if err := q.Check(wattPerMeter2); err != nil {
		return nil, fmt.Errorf("boundary: flux condition: %v", err)
	}
	return Constant(q.Value()), nil
}

// NewTemperature returns a constant temperature condition [K or °C
// depending on the consuming process] from a dimensioned quantity.
func NewTemperature(q *unit.Unit) (Condition, error) {
	if err := q.Check(unit.Kelvin); err != nil {
		return nil, fmt.Errorf("boundary: temperature condition: %v", err)
	}
	return Constant(q.Value()), nil
}

// NewRate returns a constant water-flux condition [m s-1] from a
// dimensioned quantity.
func NewRate(q *unit.Unit) (Condition, error) {
	if err := q.Check(meterPerSecond); err != nil {
		return nil, fmt.Errorf("boundary: rate condition: %v", err)
	}
	return Constant(q.Value()), nil
}
