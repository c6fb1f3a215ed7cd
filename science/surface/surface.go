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

// Package surface closes the energy budget at the soil-atmosphere
// interface. It solves for the skin temperature at which net
// radiation balances the turbulent and ground heat fluxes, following
// the bulk formulation of Westermann et al. (2016), and feeds the
// resulting ground heat flux into the uppermost soil cell.
package surface

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/landmap"
)

const (
	sigma  = 5.670374419e-8 // Stefan-Boltzmann constant [W m-2 K-4]
	rhoAir = 1.225          // air density [kg m-3]
	cpAir  = 1005.          // specific heat of air [J kg-1 K-1]
	lv     = 2.501e6        // latent heat of vaporization [J kg-1]
	karman = 0.4            // von Kármán constant
	pAir   = 101325.        // reference air pressure [Pa]
	zeroC  = 273.15
)

// EnergyBalance determines the skin temperature Ts of the ground from
// the budget
//
//	(1-α)·SW + ε·(LW - σ·Ts⁴) = H(Ts) + LE(Ts) + G(Ts)
//
// and contributes G to the energy tendency of the top soil cell. The
// budget is solved per column with a Newton iteration, linearizing
// each flux about the current Ts estimate.
//
// The moisture availability limiting LE is read from the shared
// saturation field, so composing EnergyBalance with a soil hydrology
// process couples evaporation to the water state. Without one the
// field stays zero and the surface is dry. Evaporated mass is not
// withdrawn here; the hydrology's evaporative demand input covers the
// water side of the flux.
type EnergyBalance struct {
	// Albedo is the shortwave reflectivity of the surface.
	Albedo float64

	// Emissivity applies to both outgoing thermal emission and the
	// absorbed fraction of incoming longwave radiation.
	Emissivity float64

	// Roughness is the aerodynamic roughness length z0 in meters, and
	// MeasurementHeight the height above ground at which the wind and
	// air temperature forcing apply. Together they set the neutral
	// bulk exchange coefficient κ²/ln²(z/z0).
	Roughness         float64
	MeasurementHeight float64

	// Tolerance is the skin temperature convergence criterion in
	// kelvin, and MaxIter the iteration cap per column and step.
	Tolerance float64
	MaxIter   int

	Log logrus.FieldLogger
}

// NewEnergyBalance returns an EnergyBalance for an unvegetated ground
// surface: moderate albedo, near-black thermal emission, and a
// roughness length of 1 cm under 2 m forcing.
func NewEnergyBalance() *EnergyBalance {
	return &EnergyBalance{
		Albedo:            0.2,
		Emissivity:        0.97,
		Roughness:         0.01,
		MeasurementHeight: 2,
		Tolerance:         0.01,
		MaxIter:           50,
		Log:               logrus.StandardLogger(),
	}
}

// Variables implements the landmap.Process interface. The energy,
// temperature, thermal_conductivity and saturation declarations are
// shared with the soil physics processes.
func (b *EnergyBalance) Variables() []landmap.Variable {
	return []landmap.Variable{
		{Name: "sw_down", Kind: landmap.Input, Dims: landmap.Lateral, Units: "W m-2",
			Description: "incoming shortwave radiation"},
		{Name: "lw_down", Kind: landmap.Input, Dims: landmap.Lateral, Units: "W m-2",
			Description: "incoming longwave radiation"},
		{Name: "air_temperature", Kind: landmap.Input, Dims: landmap.Lateral, Units: "degC"},
		{Name: "wind_speed", Kind: landmap.Input, Dims: landmap.Lateral, Units: "m s-1"},
		{Name: "humidity", Kind: landmap.Input, Dims: landmap.Lateral, Units: "kg kg-1",
			Description: "specific humidity of the air"},

		{Name: "skin_temperature", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "degC"},
		{Name: "net_radiation", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "W m-2"},
		{Name: "sensible_heat_flux", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "W m-2",
			Description: "positive away from the surface"},
		{Name: "latent_heat_flux", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "W m-2",
			Description: "positive away from the surface"},
		{Name: "ground_heat_flux", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "W m-2",
			Description: "positive into the soil"},

		{Name: "energy", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "J m-3"},
		{Name: "temperature", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "degC"},
		{Name: "thermal_conductivity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "W m-1 K-1"},
		{Name: "saturation", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "1"},
	}
}

// Initialize implements the landmap.Process interface.
func (b *EnergyBalance) Initialize(s *landmap.State, g landmap.Grid) error {
	if b.Roughness <= 0 || b.MeasurementHeight <= b.Roughness {
		return fmt.Errorf("landmap: surface roughness %g m and measurement height %g m are inconsistent",
			b.Roughness, b.MeasurementHeight)
	}
	if b.Tolerance <= 0 || b.MaxIter < 1 {
		return fmt.Errorf("landmap: surface solver needs a positive tolerance and iteration cap")
	}
	if b.Log == nil {
		b.Log = logrus.StandardLogger()
	}
	skin := s.Aux("skin_temperature")
	tSoil := s.Aux("temperature")
	for col := 0; col < g.Columns(); col++ {
		skin.Data[col] = tSoil.Data[g.Index(col, 0)]
	}
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface, solving
// the energy budget of every column for the current forcing.
func (b *EnergyBalance) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	var (
		swd  = s.Input("sw_down")
		lwd  = s.Input("lw_down")
		tAir = s.Input("air_temperature")
		wind = s.Input("wind_speed")
		qAir = s.Input("humidity")

		skin  = s.Aux("skin_temperature")
		rnOut = s.Aux("net_radiation")
		hOut  = s.Aux("sensible_heat_flux")
		leOut = s.Aux("latent_heat_flux")
		gOut  = s.Aux("ground_heat_flux")

		tSoil = s.Aux("temperature")
		cond  = s.Aux("thermal_conductivity")
		se    = s.Aux("saturation")
	)
	ch := b.exchange()
	zc := g.Center(0)
	step := s.Clock().Step

	landmap.EachColumn(g, func(col int) {
		i0 := g.Index(col, 0)
		var (
			sw   = swd.Data[col]
			lw   = lwd.Data[col]
			ta   = tAir.Data[col]
			u    = wind.Data[col]
			qa   = qAir.Data[col]
			t0   = tSoil.Data[i0]
			κ    = cond.Data[i0]
			beta = se.Data[i0]
			rCh  = rhoAir * ch * u
		)
		// All budget terms at skin temperature ts, with the combined
		// slope d(H+LE+G-Rn)/dTs used to linearize the balance.
		eval := func(ts float64) (rn, h, le, gf, slope float64) {
			e, de := emission(b.Emissivity, ts)
			qs, dqs := satHumidity(ts)
			rn = (1-b.Albedo)*sw + b.Emissivity*lw - e
			h = rCh * cpAir * (ts - ta)
			le = beta * rCh * lv * (qs - qa)
			gf = κ * (ts - t0) / zc
			slope = de + rCh*(cpAir+beta*lv*dqs) + κ/zc
			return
		}

		ts, ok := landmap.FixedPoint(skin.Data[col], b.Tolerance, b.MaxIter, func(ts float64) float64 {
			rn, h, le, gf, slope := eval(ts)
			return ts + (rn-h-le-gf)/slope
		})
		if !ok {
			b.Log.WithFields(logrus.Fields{
				"column": col,
				"step":   step,
				"Ts":     ts,
			}).Warn("surface energy balance did not converge")
		}
		rn, h, le, gf, _ := eval(ts)
		skin.Data[col] = ts
		rnOut.Data[col] = rn
		hOut.Data[col] = h
		leOut.Data[col] = le
		gOut.Data[col] = gf
	})
}

// ComputeTendencies implements the landmap.Process interface. The
// ground heat flux warms or cools the top soil cell; the turbulent
// fluxes leave the modeled column.
func (b *EnergyBalance) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	tend := s.Tendency("energy")
	gOut := s.Aux("ground_heat_flux")
	dz0 := g.Dz(0)
	for col := 0; col < g.Columns(); col++ {
		tend.Data[g.Index(col, 0)] += gOut.Data[col] / dz0
	}
}

// exchange is the neutral bulk transfer coefficient for heat and
// moisture. Stability corrections are beyond this formulation.
func (b *EnergyBalance) exchange() float64 {
	r := math.Log(b.MeasurementHeight / b.Roughness)
	return karman * karman / (r * r)
}

// emission evaluates thermal emission εσT⁴ and its derivative. The
// temperature is clamped at 100 K so the linearization keeps a
// positive slope however far an iterate strays from the physical
// range.
func emission(emissivity, ts float64) (e, de float64) {
	tk := ts + zeroC
	if tk < 100 {
		tk = 100
	}
	t3 := tk * tk * tk
	return emissivity * sigma * t3 * tk, 4 * emissivity * sigma * t3
}

// satHumidity is the saturation specific humidity over water at
// temperature t in °C and its temperature derivative, from the Magnus
// vapor pressure form of Alduchov and Eskridge (1996). Below -80 °C
// the curve is held at its -80 °C value.
func satHumidity(t float64) (q, dq float64) {
	if t < -80 {
		t = -80
	}
	d := 243.12 + t
	es := 611.2 * math.Exp(17.62*t/d)
	q = 0.622 * es / pAir
	dq = q * 17.62 * 243.12 / (d * d)
	return q, dq
}
