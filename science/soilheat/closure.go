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

package soilheat

import "github.com/spatialmodel/landmap"

// An EnergyClosure keeps temperature and liquid water fraction
// consistent with the internal energy field. The field names default
// to the ones declared by Conduction and only need changing when a
// model carries several energy budgets in one namespace.
type EnergyClosure struct {
	Energy       string
	Temperature  string
	Liquid       string
	LatentHeat   string
	HeatCapacity string
}

// NewEnergyClosure returns a closure over the standard field names.
func NewEnergyClosure() *EnergyClosure {
	return &EnergyClosure{
		Energy:       "energy",
		Temperature:  "temperature",
		Liquid:       "liquid_fraction",
		LatentHeat:   "latent_heat",
		HeatCapacity: "heat_capacity",
	}
}

// Refresh implements the landmap.Closure interface, recomputing
// temperature and liquid fraction from energy cell by cell.
func (c *EnergyClosure) Refresh(s *landmap.State, g landmap.Grid) {
	U := s.Prognostic(c.Energy)
	T := s.Aux(c.Temperature)
	liq := s.Aux(c.Liquid)
	L := s.Aux(c.LatentHeat)
	C := s.Aux(c.HeatCapacity)
	for i := range U.Data {
		T.Data[i], liq.Data[i] = Temperature(U.Data[i], L.Data[i], C.Data[i])
	}
}

// Prime implements the landmap.Closure interface, computing energy
// from a seeded temperature field. On the 0 °C plateau the liquid
// fraction field supplies the missing information.
func (c *EnergyClosure) Prime(s *landmap.State, g landmap.Grid) {
	U := s.Prognostic(c.Energy)
	T := s.Aux(c.Temperature)
	liq := s.Aux(c.Liquid)
	L := s.Aux(c.LatentHeat)
	C := s.Aux(c.HeatCapacity)
	for i := range U.Data {
		U.Data[i] = Energy(T.Data[i], liq.Data[i], L.Data[i], C.Data[i])
	}
}
