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

package boundary

import (
	"math"
	"testing"
	"time"

	"github.com/ctessum/unit"
)

const testTolerance = 1.e-8

func TestSeries(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries(
		[]time.Time{t0, t0.Add(time.Hour), t0.Add(3 * time.Hour)},
		[]float64{1, 3, 7},
	)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		t    time.Time
		want float64
	}{
		{t0.Add(-time.Hour), 1},                 // before the record
		{t0, 1},                                 // exactly on a sample
		{t0.Add(30 * time.Minute), 2},           // midpoint
		{t0.Add(2 * time.Hour), 5},              // midpoint of uneven interval
		{t0.Add(10 * time.Hour), 7},             // after the record
		{t0.Add(time.Hour), 3},                  // interior sample
		{t0.Add(90 * time.Minute), 4},           // quarter of second interval
		{t0.Add(3 * time.Hour), 7},              // last sample
		{t0.Add(45 * time.Minute), 2.5},         // three quarters of first interval
		{t0.Add(150 * time.Minute), 6},          // three quarters of second interval
	}
	for _, c := range cases {
		if got := s.At(c.t, 0); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("At(%v) = %g, want %g", c.t, got, c.want)
		}
	}
}

func TestSeriesErrors(t *testing.T) {
	t0 := time.Now()
	if _, err := NewSeries(nil, nil); err == nil {
		t.Error("empty series should fail")
	}
	if _, err := NewSeries([]time.Time{t0}, []float64{1, 2}); err == nil {
		t.Error("mismatched lengths should fail")
	}
	if _, err := NewSeries([]time.Time{t0, t0}, []float64{1, 2}); err == nil {
		t.Error("repeated times should fail")
	}
}

func TestHarmonic(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &Harmonic{Mean: 5, Amplitude: 10, Period: 24 * time.Hour, Phase: t0}
	if got := h.At(t0, 0); math.Abs(got-5) > testTolerance {
		t.Errorf("at phase: got %g, want 5", got)
	}
	if got := h.At(t0.Add(6*time.Hour), 0); math.Abs(got-15) > testTolerance {
		t.Errorf("at crest: got %g, want 15", got)
	}
	if got := h.At(t0.Add(18*time.Hour), 0); math.Abs(got-(-5)) > testTolerance {
		t.Errorf("at trough: got %g, want -5", got)
	}
	if got := h.At(t0.Add(24*time.Hour), 0); math.Abs(got-5) > 1e-8 {
		t.Errorf("after one period: got %g, want 5", got)
	}
}

func TestPerColumn(t *testing.T) {
	p := PerColumn{Constant(1), Constant(2), Constant(3)}
	for col, want := range []float64{1, 2, 3} {
		if got := p.At(time.Now(), col); got != want {
			t.Errorf("column %d: got %g, want %g", col, got, want)
		}
	}
}

func TestDimensionedConditions(t *testing.T) {
	w := unit.Div(unit.New(0.05, unit.Watt), unit.New(1, unit.Meter2))
	c, err := NewFlux(w)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.At(time.Now(), 0); got != 0.05 {
		t.Errorf("flux value: got %g, want 0.05", got)
	}
	if _, err := NewFlux(unit.New(280, unit.Kelvin)); err == nil {
		t.Error("temperature passed as flux should fail")
	}
	if _, err := NewTemperature(unit.New(280, unit.Kelvin)); err != nil {
		t.Error(err)
	}
	if _, err := NewRate(unit.New(1e-8, unit.MeterPerSecond)); err != nil {
		t.Error(err)
	}
	if _, err := NewRate(unit.New(1e-8, unit.Meter)); err == nil {
		t.Error("length passed as rate should fail")
	}
}
