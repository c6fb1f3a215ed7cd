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

// Package soilcarbon tracks soil organic carbon in a fast and a slow
// pool, a minimal relative of the CENTURY family of decomposition
// models (Parton et al. 1987). Decay responds to the shared soil
// temperature, moisture and frozen state, so composing this package
// with the heat and water physics couples decomposition to the
// simulated environment.
package soilcarbon

import (
	"fmt"
	"math"

	"github.com/spatialmodel/landmap"
)

const yearSeconds = 365.25 * 86400

// Decomposition decays two soil carbon pools by first-order kinetics.
// The labile pool turns over within years and partly humifies into
// the slow pool; the slow pool respires directly. Both rates are
// scaled by a Q10 temperature response, a parabolic moisture optimum
// 4·Se·(1-Se) that shuts decomposition down in both dry and anoxic
// saturated soil, and the liquid water fraction, which stops
// decomposition in frozen ground.
type Decomposition struct {
	// Q10 is the factor by which decay accelerates per 10 K of
	// warming, referenced to 10 °C.
	Q10 float64

	// FastTurnover and SlowTurnover are pool turnover times in
	// seconds at reference conditions.
	FastTurnover float64
	SlowTurnover float64

	// Humification is the fraction of fast-pool decay transferred to
	// the slow pool instead of being respired.
	Humification float64

	// InitialFast and InitialSlow set the pool densities at
	// initialization [kg m-3].
	InitialFast float64
	InitialSlow float64
}

// NewDecomposition returns a Decomposition with turnover times of 10
// and 500 years and a conventional temperate-soil parameterization.
func NewDecomposition() *Decomposition {
	return &Decomposition{
		Q10:          2,
		FastTurnover: 10 * yearSeconds,
		SlowTurnover: 500 * yearSeconds,
		Humification: 0.2,
		InitialFast:  2,
		InitialSlow:  20,
	}
}

// Variables implements the landmap.Process interface. The
// temperature, saturation and liquid_fraction declarations are shared
// with the soil physics processes.
func (d *Decomposition) Variables() []landmap.Variable {
	return []landmap.Variable{
		{Name: "carbon_fast", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "kg m-3",
			Description: "labile soil organic carbon"},
		{Name: "carbon_slow", Kind: landmap.Prognostic, Dims: landmap.Column, Units: "kg m-3",
			Description: "humified soil organic carbon"},
		{Name: "heterotrophic_respiration", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "kg m-2 s-1",
			Description: "column total carbon loss to the atmosphere"},
		{Name: "litterfall", Kind: landmap.Input, Dims: landmap.Lateral, Units: "kg m-2 s-1",
			Description: "carbon entering the topmost fast pool"},

		{Name: "temperature", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "degC"},
		{Name: "saturation", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "1"},
		{Name: "liquid_fraction", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "1",
			Description: "liquid fraction of soil water"},
	}
}

// Initialize implements the landmap.Process interface.
func (d *Decomposition) Initialize(s *landmap.State, g landmap.Grid) error {
	if d.Q10 <= 0 || d.FastTurnover <= 0 || d.SlowTurnover <= 0 {
		return fmt.Errorf("landmap: decomposition needs positive Q10 and turnover times")
	}
	if d.Humification < 0 || d.Humification >= 1 {
		return fmt.Errorf("landmap: humified fraction %g outside [0,1)", d.Humification)
	}
	s.Prognostic("carbon_fast").Fill(d.InitialFast)
	s.Prognostic("carbon_slow").Fill(d.InitialSlow)
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface,
// diagnosing the respired carbon flux of each column for the current
// pool and environmental state.
func (d *Decomposition) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	var (
		cf   = s.Prognostic("carbon_fast")
		cs   = s.Prognostic("carbon_slow")
		T    = s.Aux("temperature")
		se   = s.Aux("saturation")
		liq  = s.Aux("liquid_fraction")
		resp = s.Aux("heterotrophic_respiration")
	)
	landmap.EachColumn(g, func(col int) {
		var sum float64
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			rf, rs := d.rates(T.Data[i], se.Data[i], liq.Data[i])
			sum += ((1-d.Humification)*rf*cf.Data[i] + rs*cs.Data[i]) * g.Dz(k)
		}
		resp.Data[col] = sum
	})
}

// ComputeTendencies implements the landmap.Process interface.
// Litterfall enters the fast pool of the top cell; decayed fast
// carbon partly moves to the slow pool and the rest leaves the
// column.
func (d *Decomposition) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	var (
		cf     = s.Prognostic("carbon_fast")
		cs     = s.Prognostic("carbon_slow")
		tendF  = s.Tendency("carbon_fast")
		tendS  = s.Tendency("carbon_slow")
		T      = s.Aux("temperature")
		se     = s.Aux("saturation")
		liq    = s.Aux("liquid_fraction")
		litter = s.Input("litterfall")
	)
	dz0 := g.Dz(0)
	landmap.EachColumn(g, func(col int) {
		tendF.Data[g.Index(col, 0)] += litter.Data[col] / dz0
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			rf, rs := d.rates(T.Data[i], se.Data[i], liq.Data[i])
			decay := rf * cf.Data[i]
			tendF.Data[i] -= decay
			tendS.Data[i] += d.Humification*decay - rs*cs.Data[i]
		}
	})
}

// rates returns the fast and slow pool decay rates [s-1] for one
// cell's environment.
func (d *Decomposition) rates(T, se, liq float64) (rf, rs float64) {
	fw := 4 * se * (1 - se)
	if fw < 0 {
		fw = 0
	}
	if liq < 0 {
		liq = 0
	} else if liq > 1 {
		liq = 1
	}
	f := math.Pow(d.Q10, (T-10)/10) * fw * liq
	return f / d.FastTurnover, f / d.SlowTurnover
}
