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

import "github.com/ctessum/unit"

// Dimensions of the thermal quantities this package works with.
var (
	// JoulePerMeter3 is volumetric energy density.
	JoulePerMeter3 = unit.Div(
		unit.New(1, unit.Joule), unit.New(1, unit.Meter3)).Dimensions()

	// JoulePerMeter3Kelvin is volumetric heat capacity.
	JoulePerMeter3Kelvin = unit.Div(
		unit.New(1, unit.Joule),
		unit.Mul(unit.New(1, unit.Meter3), unit.New(1, unit.Kelvin))).Dimensions()

	// WattPerMeterKelvin is thermal conductivity.
	WattPerMeterKelvin = unit.Div(
		unit.New(1, unit.Watt),
		unit.Mul(unit.New(1, unit.Meter), unit.New(1, unit.Kelvin))).Dimensions()

	// WattPerMeter2 is an areal heat flux.
	WattPerMeter2 = unit.Div(
		unit.New(1, unit.Watt), unit.New(1, unit.Meter2)).Dimensions()
)

// Constants returns the physical constants of the soil energy budget
// as dimensioned quantities, so configuration plumbing can check the
// dimensions of values it passes around against them.
func Constants() map[string]*unit.Unit {
	return map[string]*unit.Unit{
		"water_heat_capacity":   unit.New(cWater, JoulePerMeter3Kelvin),
		"ice_heat_capacity":     unit.New(cIce, JoulePerMeter3Kelvin),
		"mineral_heat_capacity": unit.New(cMineral, JoulePerMeter3Kelvin),
		"organic_heat_capacity": unit.New(cOrganic, JoulePerMeter3Kelvin),
		"water_conductivity":    unit.New(κWater, WattPerMeterKelvin),
		"ice_conductivity":      unit.New(κIce, WattPerMeterKelvin),
		"mineral_conductivity":  unit.New(κMineral, WattPerMeterKelvin),
		"organic_conductivity":  unit.New(κOrganic, WattPerMeterKelvin),
		"latent_heat_fusion":    unit.New(ρLsl, JoulePerMeter3),
	}
}
