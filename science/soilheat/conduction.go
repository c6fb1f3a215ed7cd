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

// Package soilheat models the subsurface energy budget: heat
// conduction through the soil column with phase change of soil water,
// and the geothermal heat flux entering from below. The formulation
// follows Westermann et al. (2016): the conserved quantity is
// volumetric internal energy, and temperature and liquid water
// fraction are diagnosed from it through a free water freeze curve.
package soilheat

import (
	"math"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/boundary"
)

// Volumetric properties of the soil constituents, following
// Westermann et al. (2016), Table 1. Heat capacities are in
// J m-3 K-1, conductivities in W m-1 K-1, and the latent heat of
// fusion in J m-3 of water.
const (
	cWater   = 4.2e6
	cIce     = 1.9e6
	cMineral = 2.0e6
	cOrganic = 2.5e6
	cAir     = 1.25e3

	κWater   = 0.57
	κIce     = 2.2
	κMineral = 3.0
	κOrganic = 0.25
	κAir     = 0.025

	// ρLsl is the volumetric latent heat of fusion of water.
	ρLsl = 3.34e8
)

// Conduction models vertical heat conduction with phase change. It
// owns the energy budget of the soil column: the prognostic energy
// field, its closure to temperature and liquid fraction, and the
// thermal property diagnostics that other processes read.
type Conduction struct {
	// Surface is the surface temperature [°C] forcing the top of the
	// column. Leave nil when the ground heat flux is supplied by a
	// surface energy balance process instead; the top boundary is then
	// closed to conduction.
	Surface boundary.Condition

	// InitialTemperature gives the starting temperature [°C] at depth
	// z [m]. When nil, the column starts at the surface condition's
	// value at the start time, or at 0 °C if that is also nil.
	InitialTemperature func(z float64) float64

	closure *EnergyClosure
}

// NewConduction returns a conduction process forced by the given
// surface temperature.
func NewConduction(surface boundary.Condition) *Conduction {
	return &Conduction{Surface: surface, closure: NewEnergyClosure()}
}

// Variables implements the landmap.Process interface. The water
// content and composition fields are shared declarations: coupling
// with the water flow and stratigraphy processes fills them in, and
// without them the column is dry air above the solid fractions given.
func (c *Conduction) Variables() []landmap.Variable {
	if c.closure == nil {
		c.closure = NewEnergyClosure()
	}
	return []landmap.Variable{
		{Name: "energy", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "J m-3",
			Description: "volumetric internal energy", Closure: c.closure},
		{Name: "temperature", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "degC"},
		{Name: "liquid_fraction", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "1",
			Description: "liquid fraction of soil water"},
		{Name: "heat_capacity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "J m-3 K-1"},
		{Name: "latent_heat", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "J m-3",
			Description: "latent heat of the cell's total water content"},
		{Name: "thermal_conductivity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "W m-1 K-1"},
		{Name: "water_content", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "m3 m-3"},
		{Name: "porosity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3"},
		{Name: "mineral", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3"},
		{Name: "organic", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3"},
	}
}

// Initialize implements the landmap.Process interface. It seeds the
// temperature profile, computes the thermal properties and then
// primes the energy closure, leaving energy and temperature
// consistent.
func (c *Conduction) Initialize(s *landmap.State, g landmap.Grid) error {
	init := c.InitialTemperature
	if init == nil {
		T0 := 0.0
		if c.Surface != nil {
			T0 = c.Surface.At(s.Clock().Now(), 0)
		}
		init = func(z float64) float64 { return T0 }
	}
	T := s.Aux("temperature")
	liq := s.Aux("liquid_fraction")
	for col := 0; col < g.Columns(); col++ {
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			T.Data[i] = init(g.Center(k))
			if T.Data[i] > 0 {
				liq.Data[i] = 1
			}
		}
	}
	c.ComputeAuxiliary(s, g)
	c.closure.Prime(s, g)
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface,
// recomputing the bulk thermal properties of every cell from its
// composition. The heat capacity is the volume-weighted mean of the
// constituent capacities and the conductivity their geometric mean
// (Cosenza et al., 2003); whatever volume is not solid or water
// counts as air, so even an empty cell keeps finite properties.
func (c *Conduction) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	θ := s.Prognostic("water_content")
	liq := s.Aux("liquid_fraction")
	m := s.Aux("mineral")
	o := s.Aux("organic")
	C := s.Aux("heat_capacity")
	L := s.Aux("latent_heat")
	κ := s.Aux("thermal_conductivity")
	landmap.EachColumn(g, func(col int) {
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			θl := θ.Data[i] * liq.Data[i]
			θi := θ.Data[i] - θl
			air := 1 - m.Data[i] - o.Data[i] - θ.Data[i]
			if air < 0 {
				air = 0
			}
			C.Data[i] = θl*cWater + θi*cIce + m.Data[i]*cMineral +
				o.Data[i]*cOrganic + air*cAir
			L.Data[i] = ρLsl * θ.Data[i]
			κ.Data[i] = math.Pow(κWater, θl) * math.Pow(κIce, θi) *
				math.Pow(κMineral, m.Data[i]) * math.Pow(κOrganic, o.Data[i]) *
				math.Pow(κAir, air)
		}
	})
}

// ComputeTendencies implements the landmap.Process interface, adding
// the divergence of the conductive heat flux to the energy tendency.
// Fluxes are positive downward; the bottom face is closed, with the
// geothermal flux contributed by the separate Geothermal process.
func (c *Conduction) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	T := s.Aux("temperature")
	κ := s.Aux("thermal_conductivity")
	tend := s.Tendency("energy")
	now := s.Clock().Now()
	landmap.EachColumn(g, func(col int) {
		if c.Surface != nil {
			i0 := g.Index(col, 0)
			Ts := c.Surface.At(now, col)
			F := -κ.Data[i0] * (T.Data[i0] - Ts) / g.Center(0)
			tend.Data[i0] += F / g.Dz(0)
		}
		for k := 1; k < g.Layers(); k++ {
			i := g.Index(col, k)
			κf := harmonicMean(κ.Data[i-1], κ.Data[i], g.Dz(k-1), g.Dz(k))
			F := -κf * g.Grad(T.Data, col, k)
			tend.Data[i-1] -= F / g.Dz(k-1)
			tend.Data[i] += F / g.Dz(k)
		}
	})
}

// harmonicMean interpolates conductivity to the face between two
// cells, weighting by thickness so that the flux matches across the
// interface of dissimilar layers (Patankar, 1980).
func harmonicMean(a, b, dza, dzb float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return (dza + dzb) / (dza/a + dzb/b)
}

// Geothermal adds the geothermal heat flux to the energy budget at
// the bottom of each column. It shares the energy field declared by
// Conduction and writes only the bottom cell of each column, so the
// two processes accumulate into disjoint parts of the same tendency.
type Geothermal struct {
	landmap.NoInit

	// Flux is the upward heat flux into the column bottom [W m-2].
	// Continental background values are near 0.05 W m-2.
	Flux boundary.Condition
}

// Variables implements the landmap.Process interface.
func (q *Geothermal) Variables() []landmap.Variable {
	return []landmap.Variable{
		{Name: "energy", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "J m-3"},
	}
}

// ComputeAuxiliary implements the landmap.Process interface; the flux
// needs no diagnostics.
func (q *Geothermal) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {}

// ComputeTendencies implements the landmap.Process interface.
func (q *Geothermal) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	if q.Flux == nil {
		return
	}
	tend := s.Tendency("energy")
	now := s.Clock().Now()
	kb := g.Layers() - 1
	landmap.EachColumn(g, func(col int) {
		i := g.Index(col, kb)
		tend.Data[i] += q.Flux.At(now, col) / g.Dz(kb)
	})
}
