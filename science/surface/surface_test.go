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

package surface

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/science/soilheat"
	"github.com/spatialmodel/landmap/science/stratigraphy"
)

// newSim couples a bare-ground energy balance to a conductive soil
// column initialized at a uniform temperature.
func newSim(t *testing.T, eb *EnergyBalance, tSoil float64) *landmap.Sim {
	t.Helper()
	c := soilheat.NewConduction(nil)
	c.InitialTemperature = func(z float64) float64 { return tSoil }
	sim := &landmap.Sim{
		Model: landmap.Couple(stratigraphy.Uniform(0.4, 0.5, 0.1), eb, c),
		Grid:  landmap.NewColumn(15, 0.1, 1.05),
		Dt:    60,
	}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	return sim
}

// A surface in radiative equilibrium with its forcing and the soil
// below should hold its temperature.
func TestRadiativeEquilibrium(t *testing.T) {
	sim := newSim(t, NewEnergyBalance(), 10)
	s := sim.State()

	tk := 10 + zeroC
	s.Input("lw_down").Fill(sigma * tk * tk * tk * tk)

	if err := sim.Run(context.Background(), landmap.Steps(5)); err != nil {
		t.Fatal(err)
	}

	if ts := s.Aux("skin_temperature").Data[0]; math.Abs(ts-10) > 0.02 {
		t.Errorf("skin temperature = %g degC, want 10", ts)
	}
	if h := s.Aux("sensible_heat_flux").Data[0]; h != 0 {
		t.Errorf("sensible heat flux = %g W m-2 under calm air, want 0", h)
	}
	if le := s.Aux("latent_heat_flux").Data[0]; le != 0 {
		t.Errorf("latent heat flux = %g W m-2 under calm air, want 0", le)
	}
	if rn := s.Aux("net_radiation").Data[0]; math.Abs(rn) > 0.5 {
		t.Errorf("net radiation = %g W m-2, want ~0", rn)
	}
	for i, v := range s.Aux("temperature").Data {
		if math.Abs(v-10) > 0.01 {
			t.Errorf("soil temperature[%d] = %g degC, want 10", i, v)
		}
	}
}

// Air warmer than the ground drives sensible heat toward the surface
// and a ground heat flux into the soil, and the solved budget must
// close: Rn = H + LE + G.
func TestFluxDirections(t *testing.T) {
	sim := newSim(t, NewEnergyBalance(), 0)
	s := sim.State()
	g := sim.Grid

	tk := 0 + zeroC
	s.Input("lw_down").Fill(sigma * tk * tk * tk * tk)
	s.Input("air_temperature").Fill(10)
	s.Input("wind_speed").Fill(3)

	if err := sim.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}

	ts := s.Aux("skin_temperature").Data[0]
	if ts <= 0 || ts >= 10 {
		t.Errorf("skin temperature = %g degC, want between soil (0) and air (10)", ts)
	}
	h := s.Aux("sensible_heat_flux").Data[0]
	if h >= 0 {
		t.Errorf("sensible heat flux = %g W m-2, want negative (toward the surface)", h)
	}
	gf := s.Aux("ground_heat_flux").Data[0]
	if gf <= 0 {
		t.Errorf("ground heat flux = %g W m-2, want positive (into the soil)", gf)
	}
	rn := s.Aux("net_radiation").Data[0]
	le := s.Aux("latent_heat_flux").Data[0]
	if resid := rn - h - le - gf; math.Abs(resid) > 1 {
		t.Errorf("budget residual Rn-H-LE-G = %g W m-2, want ~0", resid)
	}
	if tend := s.Tendency("energy").Data[g.Index(0, 0)]; math.Abs(tend-gf/g.Dz(0)) > 1e-9*math.Abs(tend) {
		t.Errorf("top cell energy tendency = %g, want G/dz = %g", tend, gf/g.Dz(0))
	}
}

// A wet surface under sunny, dry air evaporates and ends up cooler
// than the same surface when dry.
func TestEvaporativeCooling(t *testing.T) {
	force := func(s *landmap.State) {
		s.Input("sw_down").Fill(600)
		s.Input("lw_down").Fill(300)
		s.Input("air_temperature").Fill(15)
		s.Input("wind_speed").Fill(3)
		s.Input("humidity").Fill(0.002)
	}

	dry := newSim(t, NewEnergyBalance(), 5)
	force(dry.State())
	if err := dry.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}

	wet := newSim(t, NewEnergyBalance(), 5)
	force(wet.State())
	wet.State().Aux("saturation").Fill(1)
	if err := wet.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}

	if le := dry.State().Aux("latent_heat_flux").Data[0]; le != 0 {
		t.Errorf("dry surface latent heat flux = %g W m-2, want 0", le)
	}
	if le := wet.State().Aux("latent_heat_flux").Data[0]; le <= 0 {
		t.Errorf("wet surface latent heat flux = %g W m-2, want positive", le)
	}
	tsDry := dry.State().Aux("skin_temperature").Data[0]
	tsWet := wet.State().Aux("skin_temperature").Data[0]
	if tsWet >= tsDry {
		t.Errorf("wet skin %g degC not cooler than dry skin %g degC", tsWet, tsDry)
	}
}

func TestNonConvergenceWarning(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	eb := NewEnergyBalance()
	eb.MaxIter = 1
	eb.Log = logger

	sim := newSim(t, eb, 0)
	s := sim.State()
	tk := 0 + zeroC
	s.Input("lw_down").Fill(sigma * tk * tk * tk * tk)
	s.Input("sw_down").Fill(800)

	if err := sim.Run(context.Background(), landmap.Steps(1)); err != nil {
		t.Fatal(err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry for an unconverged balance")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("log level = %v, want warning", entry.Level)
	}
	if entry.Message != "surface energy balance did not converge" {
		t.Errorf("unexpected message %q", entry.Message)
	}
}

func TestConfigErrors(t *testing.T) {
	bad := NewEnergyBalance()
	bad.Roughness = 0
	c := soilheat.NewConduction(nil)
	sim := &landmap.Sim{
		Model: landmap.Couple(stratigraphy.Uniform(0.4, 0.5, 0.1), bad, c),
		Grid:  landmap.NewColumn(5, 0.1, 1),
		Dt:    60,
	}
	if err := sim.Init(); err == nil {
		t.Error("zero roughness length not rejected")
	}
}

func TestSatHumidity(t *testing.T) {
	// Saturation humidity grows with temperature and its analytic
	// derivative matches a central difference.
	q0, _ := satHumidity(0)
	q20, dq := satHumidity(20)
	if q20 <= q0 {
		t.Errorf("qsat(20) = %g not above qsat(0) = %g", q20, q0)
	}
	qp, _ := satHumidity(20 + 1e-5)
	qm, _ := satHumidity(20 - 1e-5)
	if fd := (qp - qm) / 2e-5; math.Abs(fd-dq) > 1e-6*dq {
		t.Errorf("dqsat/dT = %g, finite difference %g", dq, fd)
	}
	// Far below the physical range the curve stays finite.
	q, _ := satHumidity(-500)
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		t.Errorf("qsat(-500) = %g", q)
	}
}
