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

// Package forcing feeds meteorological data into the input variables
// of a simulation. Inputs can be driven from analytic boundary
// conditions, from NetCDF time series, or from daily weather records
// preprocessed into model fluxes.
package forcing

import (
	"fmt"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/boundary"
)

// Conditions drives input variables from boundary conditions, one per
// variable. Keys may be dotted paths like "veg.co2" to reach inputs
// of nested sub-models.
type Conditions map[string]boundary.Condition

// Update implements the landmap.InputSource interface.
func (c Conditions) Update(s *landmap.State, g landmap.Grid, clk *landmap.Clock) error {
	now := clk.Now()
	for name, cond := range c {
		f, err := inputField(s, name)
		if err != nil {
			return err
		}
		for col := 0; col < g.Columns(); col++ {
			f.Data[col] = cond.At(now, col)
		}
	}
	return nil
}

// inputField resolves name to a lateral input variable.
func inputField(s *landmap.State, name string) (*landmap.Field, error) {
	f, err := s.Find(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != landmap.Input {
		return nil, fmt.Errorf("landmap: forcing target %s is %s, not an input", name, f.Kind)
	}
	if f.Dims != landmap.Lateral {
		return nil, fmt.Errorf("landmap: forcing target %s is not a lateral variable", name)
	}
	return f, nil
}
