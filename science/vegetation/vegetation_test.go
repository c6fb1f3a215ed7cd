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

package vegetation

import (
	"context"
	"testing"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/science/soilcarbon"
	"github.com/spatialmodel/landmap/science/stratigraphy"
)

// met supplies the forcing fields the canopy reads from the host
// namespace.
type met struct {
	landmap.NoInit
	landmap.NoDynamics
}

func (met) Variables() []landmap.Variable {
	return []landmap.Variable{
		{Name: "sw_down", Kind: landmap.Input, Dims: landmap.Lateral, Units: "W m-2"},
		{Name: "air_temperature", Kind: landmap.Input, Dims: landmap.Lateral, Units: "degC"},
	}
}

func (met) ComputeAuxiliary(*landmap.State, landmap.Grid) {}

// newSim hosts the canopy above a soil carbon model so litter has a
// destination and the canopy finds saturation and forcing fields.
func newSim(t *testing.T, sw, ta float64) (*landmap.Sim, *landmap.State) {
	t.Helper()
	sim := &landmap.Sim{
		Model: landmap.Couple(
			stratigraphy.Uniform(0.4, 0.5, 0.1),
			soilcarbon.NewDecomposition(),
			met{},
			New(),
		),
		Grid: landmap.NewColumn(6, 0.1, 1.2),
		Dt:   3600,
	}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	s := sim.State()
	s.Input("sw_down").Fill(sw)
	s.Input("air_temperature").Fill(ta)
	s.Aux("temperature").Fill(ta)
	s.Aux("saturation").Fill(0.5)
	veg, err := s.Child("veg")
	if err != nil {
		t.Fatal(err)
	}
	return sim, veg
}

func TestCanopyGrowsInLight(t *testing.T) {
	lit, vegLit := newSim(t, 600, 15)
	dark, vegDark := newSim(t, 0, 15)

	start := vegLit.Prognostic("leaf_carbon").Data[0]
	for _, sim := range []*landmap.Sim{lit, dark} {
		if err := sim.Run(context.Background(), landmap.Steps(50)); err != nil {
			t.Fatal(err)
		}
	}

	if leaf := vegLit.Prognostic("leaf_carbon").Data[0]; leaf <= start {
		t.Errorf("lit canopy leaf carbon %g did not grow from %g", leaf, start)
	}
	if leaf := vegDark.Prognostic("leaf_carbon").Data[0]; leaf >= start {
		t.Errorf("dark canopy leaf carbon %g did not shrink from %g", leaf, start)
	}
	if gpp := vegDark.Aux("gpp").Data[0]; gpp != 0 {
		t.Errorf("gpp in the dark = %g, want 0", gpp)
	}
}

func TestPhenologyGate(t *testing.T) {
	cold, vegCold := newSim(t, 600, -5)
	if err := cold.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}
	if phase := vegCold.Aux("growth_phase").Data[0]; phase != 0 {
		t.Errorf("growth phase at -5 degC = %g, want 0", phase)
	}
	if gpp := vegCold.Aux("gpp").Data[0]; gpp != 0 {
		t.Errorf("gpp of a dormant canopy = %g, want 0", gpp)
	}

	mid, vegMid := newSim(t, 600, 2.5)
	if err := mid.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}
	if phase := vegMid.Aux("growth_phase").Data[0]; phase != 0.5 {
		t.Errorf("growth phase mid-ramp = %g, want 0.5", phase)
	}
}

func TestLightSaturation(t *testing.T) {
	sim, veg := newSim(t, 600, 15)
	s, g := sim.State(), sim.Grid
	p := NewProduction()

	gppAt := func(leafCarbon float64) float64 {
		veg.Prognostic("leaf_carbon").Fill(leafCarbon)
		sim.Model.ComputeAuxiliary(s, g)
		return veg.Aux("gpp").Data[0]
	}

	sparse := gppAt(0.01)
	dense := gppAt(2)
	ceiling := p.Efficiency * 600
	if !(0 < sparse && sparse < dense) {
		t.Errorf("gpp not increasing with leaf area: %g, %g", sparse, dense)
	}
	if dense >= ceiling {
		t.Errorf("gpp %g exceeds light-use ceiling %g", dense, ceiling)
	}
	if dense < 0.95*ceiling {
		t.Errorf("closed canopy gpp %g too far below ceiling %g", dense, ceiling)
	}
}

func TestLitterReachesSoil(t *testing.T) {
	sim, veg := newSim(t, 0, 10)
	s, g := sim.State(), sim.Grid
	s.Aux("liquid_fraction").Fill(0) // no soil decay

	s.ZeroTendencies()
	sim.Model.ComputeAuxiliary(s, g)
	sim.Model.ComputeTendencies(s, g)

	litter := veg.Aux("litter_fall").Data[0]
	if litter <= 0 {
		t.Fatalf("litter flux = %g, want positive", litter)
	}
	tendF := s.Tendency("carbon_fast")
	if got, want := tendF.Data[g.Index(0, 0)], litter/g.Dz(0); got != want {
		t.Errorf("topsoil fast carbon tendency = %g, want litter/dz = %g", got, want)
	}
	for k := 1; k < g.Layers(); k++ {
		if v := tendF.Data[g.Index(0, k)]; v != 0 {
			t.Errorf("fast carbon tendency[%d] = %g, want 0", k, v)
		}
	}
	if tend := veg.Tendency("leaf_carbon").Data[0]; tend >= 0 {
		t.Errorf("unlit leaf carbon tendency = %g, want negative", tend)
	}
}

// A canopy hosted by a model without forcing, soil moisture or a
// carbon pool stays dormant instead of failing.
func TestStandaloneCanopy(t *testing.T) {
	sim := &landmap.Sim{
		Model: landmap.Couple(stratigraphy.Uniform(0.4, 0.5, 0.1), New()),
		Grid:  landmap.NewColumn(4, 0.1, 1),
		Dt:    3600,
	}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	if err := sim.Run(context.Background(), landmap.Steps(3)); err != nil {
		t.Fatal(err)
	}
	veg, err := sim.State().Child("veg")
	if err != nil {
		t.Fatal(err)
	}
	if gpp := veg.Aux("gpp").Data[0]; gpp != 0 {
		t.Errorf("gpp without light = %g, want 0", gpp)
	}
	if phase := veg.Aux("growth_phase").Data[0]; phase != 1 {
		t.Errorf("growth phase without an air temperature = %g, want 1", phase)
	}
	if leaf := veg.Prognostic("leaf_carbon").Data[0]; leaf >= NewPhenology().InitialLeaf {
		t.Errorf("leaf carbon %g did not decay by turnover", leaf)
	}
}
