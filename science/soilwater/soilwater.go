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

// Package soilwater models variably-saturated vertical water flow
// after Richards (1931). The conserved quantity is volumetric water
// content; pressure head and saturation are diagnosed from it through
// a soil water retention curve, and fluxes follow Darcy's law with
// gravity. Infiltration and evapotranspiration demand enter as input
// fields, so the same process serves prescribed-forcing studies and
// fully coupled land models.
package soilwater

import (
	"math"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/science/swrc"
)

// A SaturationClosure keeps pressure head and saturation consistent
// with the water content field through a retention curve. Saturation
// is clipped to [0,1] before inversion, so superphysical water
// contents stay finite.
type SaturationClosure struct {
	WaterContent string
	PressureHead string
	Saturation   string
	Porosity     string
	Curve        swrc.RetentionCurve
}

// NewSaturationClosure returns a closure over the standard field
// names.
func NewSaturationClosure(curve swrc.RetentionCurve) *SaturationClosure {
	return &SaturationClosure{
		WaterContent: "water_content",
		PressureHead: "pressure_head",
		Saturation:   "saturation",
		Porosity:     "porosity",
		Curve:        curve,
	}
}

// Refresh implements the landmap.Closure interface, diagnosing
// saturation and pressure head from water content cell by cell.
func (c *SaturationClosure) Refresh(s *landmap.State, g landmap.Grid) {
	θ := s.Prognostic(c.WaterContent)
	ψ := s.Aux(c.PressureHead)
	se := s.Aux(c.Saturation)
	φ := s.Aux(c.Porosity)
	for i := range θ.Data {
		x := 0.0
		if φ.Data[i] > 0 {
			x = θ.Data[i] / φ.Data[i]
		}
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		se.Data[i] = x
		ψ.Data[i] = c.Curve.PressureHead(x)
	}
}

// Prime implements the landmap.Closure interface, computing water
// content from a seeded pressure head field.
func (c *SaturationClosure) Prime(s *landmap.State, g landmap.Grid) {
	θ := s.Prognostic(c.WaterContent)
	ψ := s.Aux(c.PressureHead)
	se := s.Aux(c.Saturation)
	φ := s.Aux(c.Porosity)
	for i := range θ.Data {
		x := c.Curve.Saturation(ψ.Data[i])
		se.Data[i] = x
		θ.Data[i] = x * φ.Data[i]
	}
}

// Richards models vertical water movement through the soil column:
// Darcy flow with gravity in the interior, infiltration at the
// surface, optional free drainage at the bottom, and root water
// uptake against an evapotranspiration demand.
type Richards struct {
	// Curve is the water retention curve of the soil.
	Curve swrc.RetentionCurve

	// Ksat is the saturated hydraulic conductivity [m s-1].
	Ksat float64

	// InitialSaturation sets the uniform effective saturation the
	// column starts from.
	InitialSaturation float64

	// FreeDrainage opens the column bottom to gravity drainage at the
	// local conductivity. When false the bottom is closed.
	FreeDrainage bool

	// RootDepth is the e-folding depth of root water uptake [m].
	RootDepth float64

	closure *SaturationClosure
}

// NewRichards returns a water flow process for a loam-like soil with
// free drainage.
func NewRichards() *Richards {
	curve := swrc.NewVanGenuchten()
	return &Richards{
		Curve:             curve,
		Ksat:              2.9e-6,
		InitialSaturation: 0.5,
		FreeDrainage:      true,
		RootDepth:         0.3,
		closure:           NewSaturationClosure(curve),
	}
}

// Variables implements the landmap.Process interface.
func (r *Richards) Variables() []landmap.Variable {
	if r.closure == nil {
		r.closure = NewSaturationClosure(r.Curve)
	}
	r.closure.Curve = r.Curve
	return []landmap.Variable{
		{Name: "water_content", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "m3 m-3",
			Description: "volumetric water plus ice content", Closure: r.closure},
		{Name: "pressure_head", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m"},
		{Name: "saturation", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "1",
			Description: "effective saturation"},
		{Name: "hydraulic_conductivity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m s-1"},
		{Name: "porosity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3"},
		{Name: "water_flux", Kind: landmap.Input, Dims: landmap.Lateral, Units: "m s-1",
			Description: "water reaching the soil surface"},
		{Name: "pet_demand", Kind: landmap.Input, Dims: landmap.Lateral, Units: "m s-1",
			Description: "potential evapotranspiration demand"},
	}
}

// Initialize implements the landmap.Process interface. The column
// starts at a uniform saturation: the matching pressure head is
// seeded and the closure primed from it, so water content, saturation
// and pressure head leave initialization mutually consistent.
func (r *Richards) Initialize(s *landmap.State, g landmap.Grid) error {
	ψ0 := r.Curve.PressureHead(r.InitialSaturation)
	s.Aux("pressure_head").Fill(ψ0)
	r.closure.Prime(s, g)
	r.ComputeAuxiliary(s, g)
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface,
// recomputing the unsaturated hydraulic conductivity of every cell
// after Mualem (1976).
func (r *Richards) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	se := s.Aux("saturation")
	K := s.Aux("hydraulic_conductivity")
	landmap.EachColumn(g, func(col int) {
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			K.Data[i] = r.Ksat * r.Curve.Kr(se.Data[i])
		}
	})
}

// ComputeTendencies implements the landmap.Process interface, adding
// the divergence of the Darcy flux q = -K(∂ψ/∂z - 1) to the water
// content tendency, with depth positive downward so gravity drives
// flow toward larger z.
func (r *Richards) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	θ := s.Prognostic("water_content")
	φ := s.Aux("porosity")
	ψ := s.Aux("pressure_head")
	se := s.Aux("saturation")
	K := s.Aux("hydraulic_conductivity")
	tend := s.Tendency("water_content")
	qIn := s.Input("water_flux")
	pet := s.Input("pet_demand")

	n := g.Layers()
	rootW := make([]float64, n)
	var wsum float64
	for k := 0; k < n; k++ {
		rootW[k] = math.Exp(-g.Center(k)/r.RootDepth) * g.Dz(k)
		wsum += rootW[k]
	}
	for k := range rootW {
		rootW[k] /= wsum
	}

	landmap.EachColumn(g, func(col int) {
		i0 := g.Index(col, 0)
		if q0 := qIn.Data[col]; q0 > 0 && θ.Data[i0] < φ.Data[i0] {
			tend.Data[i0] += q0 / g.Dz(0)
		}
		for k := 1; k < n; k++ {
			i := g.Index(col, k)
			Kf := g.FaceVal(K.Data, col, k)
			q := -Kf * (g.Grad(ψ.Data, col, k) - 1)
			tend.Data[i-1] -= q / g.Dz(k-1)
			tend.Data[i] += q / g.Dz(k)
		}
		ib := g.Index(col, n-1)
		if r.FreeDrainage {
			tend.Data[ib] -= K.Data[ib] / g.Dz(n-1)
		}
		if d := pet.Data[col]; d > 0 {
			for k := 0; k < n; k++ {
				i := g.Index(col, k)
				tend.Data[i] -= d * rootW[k] * se.Data[i] / g.Dz(k)
			}
		}
	})
}
