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

// Package vegetation grows a big-leaf canopy out of two carbon pools.
// The sub-model lives in its own state namespace and reads the host
// model's forcing and soil fields through ancestor lookups, so the
// same processes work above any soil configuration. Production
// follows the light-use efficiency logic of Monteith (1972); dead
// biomass is handed to the host's fast soil carbon pool when one is
// present.
package vegetation

import (
	"fmt"
	"math"

	"github.com/spatialmodel/landmap"
)

const yearSeconds = 365.25 * 86400

// New returns the canopy sub-model, namespaced under "veg". The
// composition order runs phenology before production before turnover,
// so leaf area and growth phase are current when carbon is allocated.
func New() landmap.Process {
	return landmap.Nest("veg", landmap.Couple(
		NewPhenology(),
		NewProduction(),
		NewTurnover(),
	))
}

// pools are the carbon stores shared by all canopy processes.
func pools() []landmap.Variable {
	return []landmap.Variable{
		{Name: "leaf_carbon", Kind: landmap.Prognostic, Dims: landmap.Lateral, Units: "kg m-2"},
		{Name: "root_carbon", Kind: landmap.Prognostic, Dims: landmap.Lateral, Units: "kg m-2"},
	}
}

// lookupLateral reads one column of a field declared by an enclosing
// namespace, resolving Lateral and Column dims to a surface value.
// The second result is false when no ancestor declares the name.
func lookupLateral(s *landmap.State, g landmap.Grid, name string, col int) (float64, bool) {
	f := s.Lookup(name)
	if f == nil {
		return 0, false
	}
	if f.Dims == landmap.Column {
		return f.Data[g.Index(col, 0)], true
	}
	return f.Data[col], true
}

// Phenology diagnoses leaf area from the leaf carbon pool and gates
// canopy activity on air temperature.
type Phenology struct {
	landmap.NoDynamics

	// SLA is the specific leaf area [m2 kg-1] converting leaf carbon
	// to leaf area index.
	SLA float64

	// Growth ramps from zero at BaseTemperature to one over
	// RampWidth kelvin. Without an air_temperature field in the host
	// model the canopy is always active.
	BaseTemperature float64
	RampWidth       float64

	// InitialLeaf and InitialRoot seed the pools [kg m-2].
	InitialLeaf float64
	InitialRoot float64
}

func NewPhenology() *Phenology {
	return &Phenology{
		SLA:             15,
		BaseTemperature: 0,
		RampWidth:       5,
		InitialLeaf:     0.02,
		InitialRoot:     0.02,
	}
}

// Variables implements the landmap.Process interface.
func (p *Phenology) Variables() []landmap.Variable {
	return append(pools(),
		landmap.Variable{Name: "leaf_area", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "m2 m-2"},
		landmap.Variable{Name: "growth_phase", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "1",
			Description: "0 dormant to 1 growing"},
	)
}

// Initialize implements the landmap.Process interface.
func (p *Phenology) Initialize(s *landmap.State, g landmap.Grid) error {
	if p.SLA <= 0 || p.RampWidth <= 0 {
		return fmt.Errorf("landmap: phenology needs positive SLA and ramp width")
	}
	s.Prognostic("leaf_carbon").Fill(p.InitialLeaf)
	s.Prognostic("root_carbon").Fill(p.InitialRoot)
	p.ComputeAuxiliary(s, g)
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface.
func (p *Phenology) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	var (
		leaf  = s.Prognostic("leaf_carbon")
		lai   = s.Aux("leaf_area")
		phase = s.Aux("growth_phase")
	)
	landmap.EachColumn(g, func(col int) {
		lai.Data[col] = p.SLA * leaf.Data[col]
		f := 1.0
		if ta, ok := lookupLateral(s, g, "air_temperature", col); ok {
			f = (ta - p.BaseTemperature) / p.RampWidth
			if f < 0 {
				f = 0
			} else if f > 1 {
				f = 1
			}
		}
		phase.Data[col] = f
	})
}

// Production converts absorbed shortwave radiation into new biomass
// with a fixed light-use efficiency and splits it between the leaf
// and root pools.
type Production struct {
	landmap.NoInit

	// Efficiency is carbon fixed per unit absorbed shortwave
	// radiation [kg J-1].
	Efficiency float64

	// Extinction is the Beer-Lambert canopy light extinction
	// coefficient.
	Extinction float64

	// LeafFraction of production grows leaves; the rest grows roots.
	LeafFraction float64
}

func NewProduction() *Production {
	return &Production{
		Efficiency:   7e-10,
		Extinction:   0.5,
		LeafFraction: 0.5,
	}
}

// Variables implements the landmap.Process interface.
func (p *Production) Variables() []landmap.Variable {
	return append(pools(),
		landmap.Variable{Name: "leaf_area", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "m2 m-2"},
		landmap.Variable{Name: "growth_phase", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "1"},
		landmap.Variable{Name: "gpp", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "kg m-2 s-1",
			Description: "gross primary production"},
	)
}

// ComputeAuxiliary implements the landmap.Process interface. Light
// comes from the host model's sw_down field and water stress from its
// soil saturation; a host without them leaves the canopy dark or
// unstressed, respectively.
func (p *Production) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	var (
		lai   = s.Aux("leaf_area")
		phase = s.Aux("growth_phase")
		gpp   = s.Aux("gpp")
	)
	landmap.EachColumn(g, func(col int) {
		sw, _ := lookupLateral(s, g, "sw_down", col)
		beta := 1.0
		if se, ok := lookupLateral(s, g, "saturation", col); ok {
			beta = 4 * se * (1 - se)
			if beta < 0 {
				beta = 0
			}
		}
		absorbed := 1 - math.Exp(-p.Extinction*lai.Data[col])
		gpp.Data[col] = p.Efficiency * phase.Data[col] * beta * absorbed * sw
	})
}

// ComputeTendencies implements the landmap.Process interface.
func (p *Production) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	var (
		gpp      = s.Aux("gpp")
		tendLeaf = s.Tendency("leaf_carbon")
		tendRoot = s.Tendency("root_carbon")
	)
	for col := 0; col < g.Columns(); col++ {
		tendLeaf.Data[col] += p.LeafFraction * gpp.Data[col]
		tendRoot.Data[col] += (1 - p.LeafFraction) * gpp.Data[col]
	}
}

// Turnover retires biomass at fixed pool lifetimes and respires
// maintenance carbon at a Q10-scaled rate. Litter becomes fast soil
// carbon in the host model's top cell.
type Turnover struct {
	landmap.NoInit

	// LeafLifetime and RootLifetime are pool turnover times [s].
	LeafLifetime float64
	RootLifetime float64

	// Maintenance is the specific maintenance respiration rate [s-1]
	// at 10 °C, scaled by Q10 with air temperature.
	Maintenance float64
	Q10         float64
}

func NewTurnover() *Turnover {
	return &Turnover{
		LeafLifetime: 1 * yearSeconds,
		RootLifetime: 2 * yearSeconds,
		Maintenance:  2e-8,
		Q10:          2,
	}
}

// Variables implements the landmap.Process interface.
func (t *Turnover) Variables() []landmap.Variable {
	return append(pools(),
		landmap.Variable{Name: "litter_fall", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "kg m-2 s-1"},
		landmap.Variable{Name: "plant_respiration", Kind: landmap.Auxiliary, Dims: landmap.Lateral, Units: "kg m-2 s-1"},
	)
}

// ComputeAuxiliary implements the landmap.Process interface.
func (t *Turnover) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {
	var (
		leaf   = s.Prognostic("leaf_carbon")
		root   = s.Prognostic("root_carbon")
		litter = s.Aux("litter_fall")
		resp   = s.Aux("plant_respiration")
	)
	landmap.EachColumn(g, func(col int) {
		rm := t.Maintenance
		if ta, ok := lookupLateral(s, g, "air_temperature", col); ok {
			rm *= math.Pow(t.Q10, (ta-10)/10)
		}
		litter.Data[col] = leaf.Data[col]/t.LeafLifetime + root.Data[col]/t.RootLifetime
		resp.Data[col] = rm * (leaf.Data[col] + root.Data[col])
	})
}

// ComputeTendencies implements the landmap.Process interface.
func (t *Turnover) ComputeTendencies(s *landmap.State, g landmap.Grid) {
	var (
		leaf     = s.Prognostic("leaf_carbon")
		root     = s.Prognostic("root_carbon")
		litter   = s.Aux("litter_fall")
		tendLeaf = s.Tendency("leaf_carbon")
		tendRoot = s.Tendency("root_carbon")
	)
	var soil *landmap.Field
	if parent := s.Parent(); parent != nil && parent.Has("carbon_fast") {
		soil = parent.Tendency("carbon_fast")
	}
	dz0 := g.Dz(0)
	landmap.EachColumn(g, func(col int) {
		rm := t.Maintenance
		if ta, ok := lookupLateral(s, g, "air_temperature", col); ok {
			rm *= math.Pow(t.Q10, (ta-10)/10)
		}
		tendLeaf.Data[col] -= leaf.Data[col]/t.LeafLifetime + rm*leaf.Data[col]
		tendRoot.Data[col] -= root.Data[col]/t.RootLifetime + rm*root.Data[col]
		if soil != nil {
			soil.Data[g.Index(col, 0)] += litter.Data[col] / dz0
		}
	})
}
