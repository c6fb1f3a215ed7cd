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

// This file holds the per-cell free-energy kernels relating volumetric
// internal energy to temperature through the isothermal phase-change
// plateau, following the free water freeze curve of Westermann et al.
// (2016). Energy is measured relative to water at the freezing point:
// U = 0 is soil at 0 °C with all water frozen, U = L is the same soil
// with all water melted.
//
// The kernels are pure functions of their arguments, branch on values
// only, and return finite results for any finite input with C > 0, so
// they are safe in parallel per-cell loops and traversable by
// reverse-mode differentiation.

// Temperature inverts the energy relation: given volumetric internal
// energy U [J m-3], volumetric latent heat of the cell's total water
// content L [J m-3] and volumetric heat capacity C [J m-3 K-1], it
// returns the temperature T [°C] and the fraction of the water that is
// liquid.
//
// Three regimes: frozen (U < 0), where all energy changes are
// sensible below the freezing point; the phase-change plateau
// (0 ≤ U < L), where the temperature stays at 0 °C while energy melts
// ice; and thawed (U ≥ L), sensible again above freezing. A cell with
// no water (L = 0) has no plateau and its liquid fraction is reported
// as zero.
func Temperature(U, L, C float64) (T, liq float64) {
	switch {
	case U < 0:
		return U / C, 0
	case U < L:
		return 0, U / L
	default:
		if L > 0 {
			liq = 1
		}
		return (U - L) / C, liq
	}
}

// Energy is the forward energy relation, converting temperature and
// liquid water fraction to volumetric internal energy. It is the exact
// inverse of Temperature: the liquid fraction disambiguates states on
// the 0 °C plateau, where temperature alone cannot.
func Energy(T, liq, L, C float64) float64 {
	switch {
	case T < 0:
		return C * T
	case T > 0:
		return L + C*T
	default:
		return L * liq
	}
}

// DTemperature is the analytic derivative dT/dU of Temperature. On the
// phase-change plateau the temperature does not respond to energy, so
// the derivative is zero there.
func DTemperature(U, L, C float64) float64 {
	if U >= 0 && U < L {
		return 0
	}
	return 1 / C
}
