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

package forcing

import (
	"math"
	"testing"
	"time"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/boundary"
)

// inputDecl declares the input fields a forcing test drives.
type inputDecl struct {
	landmap.NoInit
	landmap.NoDynamics
	vars []landmap.Variable
}

func (d *inputDecl) Variables() []landmap.Variable                      { return d.vars }
func (d *inputDecl) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {}

func inputModel(names ...string) landmap.Process {
	var vars []landmap.Variable
	for _, n := range names {
		vars = append(vars, landmap.Variable{Name: n, Kind: landmap.Input, Dims: landmap.Lateral})
	}
	return &inputDecl{vars: vars}
}

func buildState(t *testing.T, m landmap.Process, g landmap.Grid, clk *landmap.Clock) *landmap.State {
	t.Helper()
	s, err := landmap.BuildState(m, g, clk)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConditions(t *testing.T) {
	g := landmap.NewColumn(2, 0.1, 1).Replicated(3)
	clk := &landmap.Clock{Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	model := landmap.Couple(
		inputModel("air_temperature"),
		landmap.Nest("veg", inputModel("co2")),
	)
	s := buildState(t, model, g, clk)

	src := Conditions{
		"air_temperature": boundary.Constant(12),
		"veg.co2":         boundary.Constant(400),
	}
	if err := src.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	for col := 0; col < 3; col++ {
		if got := s.Input("air_temperature").Data[col]; got != 12 {
			t.Errorf("air_temperature[%d] = %g", col, got)
		}
	}
	veg, _ := s.Child("veg")
	if got := veg.Input("co2").Data[0]; got != 400 {
		t.Errorf("veg.co2 = %g", got)
	}
}

func TestConditionsErrors(t *testing.T) {
	g := landmap.NewColumn(2, 0.1, 1)
	clk := &landmap.Clock{}

	// An unknown target fails.
	s := buildState(t, inputModel("air_temperature"), g, clk)
	src := Conditions{"no_such_input": boundary.Constant(1)}
	if err := src.Update(s, g, clk); err == nil {
		t.Error("unknown forcing target accepted")
	}

	// So does a non-input target.
	model := &inputDecl{vars: []landmap.Variable{
		{Name: "temperature", Kind: landmap.Auxiliary, Dims: landmap.Lateral},
	}}
	s = buildState(t, model, g, clk)
	src = Conditions{"temperature": boundary.Constant(1)}
	if err := src.Update(s, g, clk); err == nil {
		t.Error("auxiliary forcing target accepted")
	}
}

// syntheticYear fabricates a year of plausible daily midlatitude
// weather: cold snowy winters, warm showery summers.
func syntheticYear(start time.Time) []MetRecord {
	recs := make([]MetRecord, 365)
	for i := range recs {
		doy := float64(i)
		season := -12 * math.Cos(2*math.Pi*doy/365)
		tmin := season - 4
		tmax := season + 6
		var rain, snow float64
		if i%4 == 0 {
			if tmax < 2 {
				snow = 0.008
			} else {
				rain = 0.006
			}
		}
		recs[i] = MetRecord{
			Date: start.AddDate(0, 0, i),
			Rain: rain, Snow: snow,
			Tmin: tmin, Tmax: tmax,
		}
	}
	return recs
}

func TestMetSeriesFinite(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMet(syntheticYear(start), 52)
	if err != nil {
		t.Fatal(err)
	}
	m.EstimateRadiation = true

	g := landmap.NewColumn(2, 0.1, 1)
	clk := &landmap.Clock{Start: start}
	model := inputModel("air_temperature", "water_flux", "pet_demand", "sw_down", "lw_down")
	s := buildState(t, model, g, clk)

	var yieldTotal float64
	for day := 0; day < 365; day++ {
		clk.Time = float64(day) * 86400
		if err := m.Update(s, g, clk); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"air_temperature", "water_flux", "pet_demand", "sw_down", "lw_down"} {
			v := s.Input(name).Data[0]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("day %d: %s = %g", day, name, v)
			}
			if name != "air_temperature" && v < 0 {
				t.Fatalf("day %d: negative %s = %g", day, name, v)
			}
		}
		yieldTotal += s.Input("water_flux").Data[0] * 86400
	}
	if yieldTotal <= 0 {
		t.Error("no water reached the ground all year")
	}

	// Winter snowfall reaches the soil only as melt: the first cold
	// snowy day yields nothing.
	clk.Time = 4 * 86400 // day 4 is a snow day in the fabricated series
	if err := m.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	if y := s.Input("water_flux").Data[0]; y > 1e-12 {
		t.Errorf("midwinter snowfall yielded %g m/s immediately", y)
	}
}

func TestMetErrors(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := NewMet(nil, 52); err == nil {
		t.Error("empty record set accepted")
	}
	if _, err := NewMet(syntheticYear(start), 95); err == nil {
		t.Error("latitude 95 accepted")
	}
	recs := syntheticYear(start)
	recs[10].Date = recs[9].Date
	if _, err := NewMet(recs, 52); err == nil {
		t.Error("out-of-order records accepted")
	}
	recs = syntheticYear(start)
	recs[3].Tmax = recs[3].Tmin - 1
	if _, err := NewMet(recs, 52); err == nil {
		t.Error("Tmax below Tmin accepted")
	}
	recs = syntheticYear(start)
	recs[3].Rain = -0.01
	if _, err := NewMet(recs, 52); err == nil {
		t.Error("negative precipitation accepted")
	}
}

// Clock samples outside the record range clamp to its ends.
func TestMetClamping(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMet(syntheticYear(start), 52)
	if err != nil {
		t.Fatal(err)
	}
	g := landmap.NewColumn(1, 0.1, 1)
	clk := &landmap.Clock{Start: start}
	s := buildState(t, inputModel("air_temperature"), g, clk)

	clk.Time = -30 * 86400
	if err := m.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	before := s.Input("air_temperature").Data[0]
	clk.Time = 0
	if err := m.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	if first := s.Input("air_temperature").Data[0]; before != first {
		t.Errorf("before-record sample %g, first day %g", before, first)
	}

	clk.Time = 1000 * 86400
	if err := m.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	after := s.Input("air_temperature").Data[0]
	clk.Time = 364 * 86400
	if err := m.Update(s, g, clk); err != nil {
		t.Fatal(err)
	}
	if last := s.Input("air_temperature").Data[0]; after != last {
		t.Errorf("after-record sample %g, last day %g", after, last)
	}
}
