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

// Package swrc implements soil water retention curves: the
// relationships between pressure head and effective saturation that
// close variably-saturated water flow. Pressure heads follow the
// hydrological sign convention, negative in unsaturated soil, and
// every curve returns finite values for any finite input.
package swrc

import (
	"fmt"
	"math"
	"strings"
)

// seMin keeps inverse evaluations finite as saturation approaches
// zero.
const seMin = 1e-9

// A RetentionCurve relates pressure head ψ [m] to effective
// saturation Se [-] for one soil. Saturation and PressureHead are
// inverses of each other on the unsaturated range, and DSaturation is
// the analytic slope dSe/dψ, so 1/DSaturation is the slope of
// PressureHead at the matching point. Kr is the relative hydraulic
// conductivity at a given saturation.
type RetentionCurve interface {
	Name() string
	Saturation(ψ float64) float64
	PressureHead(se float64) float64
	DSaturation(ψ float64) float64
	Kr(se float64) float64
}

func clip(se float64) float64 {
	if se < seMin {
		return seMin
	}
	if se > 1 {
		return 1
	}
	return se
}

// VanGenuchten is the retention curve of van Genuchten (1980) with the
// conductivity model of Mualem (1976):
// Se = (1+(α·|ψ|)^N)^(−m), m = 1−1/N.
type VanGenuchten struct {
	// Alpha is the inverse air-entry parameter α [m-1].
	Alpha float64
	// N is the pore-size distribution parameter [-], > 1.
	N float64
	// L is the Mualem pore-connectivity exponent [-], typically 0.5.
	L float64
}

// NewVanGenuchten returns a van Genuchten curve with the loam
// parameters of Carsel and Parrish (1988).
func NewVanGenuchten() *VanGenuchten {
	return &VanGenuchten{Alpha: 3.6, N: 1.56, L: 0.5}
}

func (v *VanGenuchten) Name() string { return "vanGenuchten" }

func (v *VanGenuchten) m() float64 { return 1 - 1/v.N }

// Saturation implements the RetentionCurve interface.
func (v *VanGenuchten) Saturation(ψ float64) float64 {
	if ψ >= 0 {
		return 1
	}
	t := math.Pow(v.Alpha*-ψ, v.N)
	return math.Pow(1+t, -v.m())
}

// PressureHead implements the RetentionCurve interface.
func (v *VanGenuchten) PressureHead(se float64) float64 {
	se = clip(se)
	if se == 1 {
		return 0
	}
	m := v.m()
	return -math.Pow(math.Pow(se, -1/m)-1, 1/v.N) / v.Alpha
}

// DSaturation implements the RetentionCurve interface.
func (v *VanGenuchten) DSaturation(ψ float64) float64 {
	if ψ >= 0 {
		return 0
	}
	h := -ψ
	t := math.Pow(v.Alpha*h, v.N)
	if math.IsInf(t, 1) {
		return 0
	}
	m := v.m()
	se := math.Pow(1+t, -m)
	return m * v.N * t * se / (h * (1 + t))
}

// Kr implements the RetentionCurve interface.
func (v *VanGenuchten) Kr(se float64) float64 {
	se = clip(se)
	m := v.m()
	f := 1 - math.Pow(1-math.Pow(se, 1/m), m)
	return math.Pow(se, v.L) * f * f
}

// BrooksCorey is the retention curve of Brooks and Corey (1964) with
// the Burdine (1953) conductivity model:
// Se = (hb/|ψ|)^λ for |ψ| > hb, 1 otherwise.
type BrooksCorey struct {
	// Hb is the air-entry pressure head [m], > 0.
	Hb float64
	// Lambda is the pore-size distribution index λ [-].
	Lambda float64
}

// NewBrooksCorey returns a Brooks-Corey curve with loam-like
// parameters.
func NewBrooksCorey() *BrooksCorey {
	return &BrooksCorey{Hb: 0.15, Lambda: 0.3}
}

func (b *BrooksCorey) Name() string { return "brooksCorey" }

// Saturation implements the RetentionCurve interface.
func (b *BrooksCorey) Saturation(ψ float64) float64 {
	h := -ψ
	if h <= b.Hb {
		return 1
	}
	return math.Pow(b.Hb/h, b.Lambda)
}

// PressureHead implements the RetentionCurve interface. At full
// saturation the curve is flat, so the air-entry head -Hb is
// returned.
func (b *BrooksCorey) PressureHead(se float64) float64 {
	se = clip(se)
	if se == 1 {
		return -b.Hb
	}
	return -b.Hb * math.Pow(se, -1/b.Lambda)
}

// DSaturation implements the RetentionCurve interface.
func (b *BrooksCorey) DSaturation(ψ float64) float64 {
	h := -ψ
	if h <= b.Hb {
		return 0
	}
	return b.Lambda * math.Pow(b.Hb/h, b.Lambda) / h
}

// Kr implements the RetentionCurve interface.
func (b *BrooksCorey) Kr(se float64) float64 {
	se = clip(se)
	return math.Pow(se, 3+2/b.Lambda)
}

// ByName returns the named retention curve with default parameters.
// It is the dispatch point for configuration files; names match
// case-insensitively and the returned values may be adjusted before
// use.
func ByName(name string) (RetentionCurve, error) {
	switch strings.ToLower(name) {
	case "vangenuchten":
		return NewVanGenuchten(), nil
	case "brookscorey":
		return NewBrooksCorey(), nil
	default:
		return nil, fmt.Errorf("swrc: unknown retention curve %q (have vanGenuchten, brooksCorey)", name)
	}
}
