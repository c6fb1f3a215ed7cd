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

package soilcarbon

import (
	"context"
	"math"
	"testing"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/science/stratigraphy"
)

const testTolerance = 1.e-12

// newSim builds a decomposition-only simulation with the soil
// environment held at the given temperature, saturation and liquid
// fraction.
func newSim(t *testing.T, d *Decomposition, T, se, liq float64) *landmap.Sim {
	t.Helper()
	sim := &landmap.Sim{
		Model: landmap.Couple(stratigraphy.Uniform(0.4, 0.5, 0.1), d),
		Grid:  landmap.NewColumn(8, 0.1, 1.2),
		Dt:    3600,
	}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	s := sim.State()
	s.Aux("temperature").Fill(T)
	s.Aux("saturation").Fill(se)
	s.Aux("liquid_fraction").Fill(liq)
	return sim
}

// At reference conditions and with humification off, the fast pool
// must follow the discrete exponential C·(1-k·Δt)ⁿ exactly.
func TestExponentialDecay(t *testing.T) {
	d := NewDecomposition()
	d.Humification = 0
	sim := newSim(t, d, 10, 0.5, 1)

	const n = 100
	if err := sim.Run(context.Background(), landmap.Steps(n)); err != nil {
		t.Fatal(err)
	}

	k := 1 / d.FastTurnover
	want := d.InitialFast * math.Pow(1-k*sim.Dt, n)
	for i, got := range sim.State().Prognostic("carbon_fast").Data {
		if math.Abs(got-want) > testTolerance*want {
			t.Fatalf("carbon_fast[%d] = %.15g after %d steps, want %.15g", i, got, n, want)
		}
	}
}

// Warming by 10 K must scale the decay rate by exactly Q10.
func TestQ10Response(t *testing.T) {
	tendAt := func(T float64) float64 {
		sim := newSim(t, NewDecomposition(), T, 0.5, 1)
		s := sim.State()
		s.ZeroTendencies()
		sim.Model.ComputeAuxiliary(s, sim.Grid)
		sim.Model.ComputeTendencies(s, sim.Grid)
		return s.Tendency("carbon_fast").Data[0]
	}

	cold, warm := tendAt(10), tendAt(20)
	if cold >= 0 || warm >= 0 {
		t.Fatalf("decay tendencies %g, %g should be negative", cold, warm)
	}
	if ratio := warm / cold; math.Abs(ratio-2) > testTolerance {
		t.Errorf("rate ratio across 10 K = %.15g, want Q10 = 2", ratio)
	}
}

// The moisture response peaks at half saturation and vanishes in both
// dry and saturated soil.
func TestMoistureResponse(t *testing.T) {
	d := NewDecomposition()
	rate := func(se float64) float64 {
		rf, _ := d.rates(10, se, 1)
		return rf
	}
	if rate(0) != 0 || rate(1) != 0 {
		t.Errorf("decay at se=0 and se=1 = %g, %g, want 0", rate(0), rate(1))
	}
	if !(rate(0.5) > rate(0.2) && rate(0.5) > rate(0.8)) {
		t.Errorf("moisture response not peaked at se=0.5: %g, %g, %g",
			rate(0.2), rate(0.5), rate(0.8))
	}
	if r := rate(1.3); r != 0 {
		t.Errorf("decay at se=1.3 = %g, want 0", r)
	}
	if rf, _ := d.rates(10, 0.5, 0); rf != 0 {
		t.Errorf("decay in frozen soil = %g, want 0", rf)
	}
}

// Carbon leaving the two pools must equal the respired flux: the
// humified transfer stays inside the column.
func TestConservation(t *testing.T) {
	sim := newSim(t, NewDecomposition(), 12, 0.6, 1)
	s, g := sim.State(), sim.Grid
	s.ZeroTendencies()
	sim.Model.ComputeAuxiliary(s, g)
	sim.Model.ComputeTendencies(s, g)

	var sum float64
	tendF := s.Tendency("carbon_fast")
	tendS := s.Tendency("carbon_slow")
	for k := 0; k < g.Layers(); k++ {
		i := g.Index(0, k)
		sum += (tendF.Data[i] + tendS.Data[i]) * g.Dz(k)
	}
	resp := s.Aux("heterotrophic_respiration").Data[0]
	if resp <= 0 {
		t.Fatalf("respiration = %g, want positive", resp)
	}
	if math.Abs(sum+resp) > testTolerance*resp {
		t.Errorf("column carbon change %g does not balance respiration %g", sum, resp)
	}
}

// The slow pool grows by the humified fraction of fast decay.
func TestHumification(t *testing.T) {
	sim := newSim(t, NewDecomposition(), 10, 0.5, 1)
	s := sim.State()
	s.ZeroTendencies()
	sim.Model.ComputeAuxiliary(s, sim.Grid)
	sim.Model.ComputeTendencies(s, sim.Grid)

	i := sim.Grid.Index(0, 2)
	tendS := s.Tendency("carbon_slow").Data[i]
	d := NewDecomposition()
	rf, rs := d.rates(10, 0.5, 1)
	gain := d.Humification * (rf * d.InitialFast)
	loss := rs * d.InitialSlow
	// The default pools are near steady state, so compare against the
	// gross terms rather than their small difference.
	if math.Abs(tendS-(gain-loss)) > testTolerance*(gain+loss) {
		t.Errorf("carbon_slow tendency = %g, want %g", tendS, gain-loss)
	}
}

// Litterfall enters the fast pool of the top cell only.
func TestLitterfall(t *testing.T) {
	sim := newSim(t, NewDecomposition(), 10, 0.5, 0) // frozen: no decay
	s, g := sim.State(), sim.Grid
	const flux = 1e-8
	s.Input("litterfall").Fill(flux)
	s.ZeroTendencies()
	sim.Model.ComputeAuxiliary(s, g)
	sim.Model.ComputeTendencies(s, g)

	tendF := s.Tendency("carbon_fast")
	if got, want := tendF.Data[g.Index(0, 0)], flux/g.Dz(0); got != want {
		t.Errorf("top cell fast tendency = %g, want %g", got, want)
	}
	for k := 1; k < g.Layers(); k++ {
		if v := tendF.Data[g.Index(0, k)]; v != 0 {
			t.Errorf("fast tendency[%d] = %g in frozen soil, want 0", k, v)
		}
	}
	if resp := s.Aux("heterotrophic_respiration").Data[0]; resp != 0 {
		t.Errorf("respiration = %g in frozen soil, want 0", resp)
	}
}
