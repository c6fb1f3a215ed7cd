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

// Package stratigraphy describes the subsurface make-up of a model
// column: a sequence of horizons, each with its volumetric solid and
// pore fractions. The profile populates the composition fields that
// the heat, water and carbon processes read, and it must therefore be
// the first process in any composition that uses it.
package stratigraphy

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/landmap"
)

// A Horizon is one layer of a soil profile with uniform composition.
type Horizon struct {
	// Base is the depth of the bottom of the horizon [m].
	Base float64
	// Porosity, Mineral and Organic are volumetric fractions [-];
	// their sum may not exceed one.
	Porosity float64
	Mineral  float64
	Organic  float64
}

func (h Horizon) check() error {
	for _, f := range []float64{h.Porosity, h.Mineral, h.Organic} {
		if f < 0 || f > 1 {
			return fmt.Errorf("stratigraphy: fraction %g outside [0,1]", f)
		}
	}
	if s := h.Porosity + h.Mineral + h.Organic; s > 1+1e-9 {
		return fmt.Errorf("stratigraphy: fractions sum to %g > 1", s)
	}
	return nil
}

// A Profile is the stratigraphy of a column, horizons ordered from the
// surface down. Columns deeper than the last horizon continue with its
// composition. The profile has no dynamics of its own; its only work
// is writing the composition fields during initialization.
type Profile struct {
	landmap.NoDynamics
	Horizons []Horizon
}

// Uniform returns a single-horizon profile of unlimited depth.
func Uniform(porosity, mineral, organic float64) *Profile {
	return &Profile{Horizons: []Horizon{{
		Base: 0, Porosity: porosity, Mineral: mineral, Organic: organic,
	}}}
}

// Variables implements the landmap.Process interface.
func (p *Profile) Variables() []landmap.Variable {
	return []landmap.Variable{
		{Name: "porosity", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3",
			Description: "pore volume fraction"},
		{Name: "mineral", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3",
			Description: "mineral solid fraction"},
		{Name: "organic", Kind: landmap.Auxiliary, Dims: landmap.Column, Units: "m3 m-3",
			Description: "organic solid fraction"},
	}
}

// HorizonAt returns the horizon containing depth z [m].
func (p *Profile) HorizonAt(z float64) Horizon {
	for _, h := range p.Horizons {
		if z <= h.Base {
			return h
		}
	}
	return p.Horizons[len(p.Horizons)-1]
}

// Initialize implements the landmap.Process interface, writing the
// composition of each cell from the horizon its midpoint falls in.
func (p *Profile) Initialize(s *landmap.State, g landmap.Grid) error {
	if len(p.Horizons) == 0 {
		return fmt.Errorf("stratigraphy: profile has no horizons")
	}
	for i, h := range p.Horizons {
		if err := h.check(); err != nil {
			return err
		}
		if i > 0 && h.Base <= p.Horizons[i-1].Base {
			return fmt.Errorf("stratigraphy: horizon bases not increasing at %g m", h.Base)
		}
	}
	φ := s.Aux("porosity")
	min := s.Aux("mineral")
	org := s.Aux("organic")
	for col := 0; col < g.Columns(); col++ {
		for k := 0; k < g.Layers(); k++ {
			h := p.HorizonAt(g.Center(k))
			i := g.Index(col, k)
			φ.Data[i] = h.Porosity
			min.Data[i] = h.Mineral
			org.Data[i] = h.Organic
		}
	}
	return nil
}

// ComputeAuxiliary implements the landmap.Process interface. The
// profile is static, so this is deliberately a no-op; the composition
// fields keep the values written at initialization.
func (p *Profile) ComputeAuxiliary(s *landmap.State, g landmap.Grid) {}

// profileFile is the on-disk TOML layout of a soil profile.
type profileFile struct {
	Horizon []Horizon
}

// ReadTOML reads a soil profile from TOML of the form
//
//	[[horizon]]
//	base = 0.3
//	porosity = 0.55
//	mineral = 0.05
//	organic = 0.4
//
//	[[horizon]]
//	base = 10.0
//	porosity = 0.4
//	mineral = 0.55
//	organic = 0.05
func ReadTOML(r io.Reader) (*Profile, error) {
	var f profileFile
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("stratigraphy: decoding profile: %v", err)
	}
	if len(f.Horizon) == 0 {
		return nil, fmt.Errorf("stratigraphy: profile has no horizons")
	}
	return &Profile{Horizons: f.Horizon}, nil
}

// ReadFile reads a TOML soil profile from the named file.
func ReadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stratigraphy: %v", err)
	}
	defer f.Close()
	return ReadTOML(f)
}
