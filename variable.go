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

package landmap

import (
	"fmt"
	"regexp"
)

// Kind determines how the framework treats a variable during a
// simulation step.
type Kind int

const (
	// Prognostic variables hold conserved quantities that are advanced
	// in time by the integrator. Each prognostic variable owns a
	// tendency field in which processes accumulate rates of change.
	Prognostic Kind = iota

	// Auxiliary variables are diagnostics that are recomputed from the
	// prognostic state at the beginning of every step and carry no
	// memory of their own.
	Auxiliary

	// Input variables are boundary data (meteorological forcing,
	// prescribed fluxes) written by input sources before each step and
	// read-only to processes.
	Input
)

func (k Kind) String() string {
	switch k {
	case Prognostic:
		return "prognostic"
	case Auxiliary:
		return "auxiliary"
	case Input:
		return "input"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dims determines the spatial extent of a variable.
type Dims int

const (
	// Lateral variables hold one value per grid column. Surface fluxes,
	// snow depth and other interface quantities are lateral.
	Lateral Dims = iota

	// Column variables resolve the vertical dimension and hold one
	// value per grid cell, in column-major order.
	Column
)

func (d Dims) String() string {
	switch d {
	case Lateral:
		return "lateral"
	case Column:
		return "column"
	default:
		return fmt.Sprintf("Dims(%d)", int(d))
	}
}

// validName matches variable and namespace identifiers. The restriction
// to word characters keeps names usable in output expressions.
var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// A Variable symbolically declares one field of model state. Processes
// return declarations from their Variables method; the framework merges
// the declarations of all coupled processes and allocates storage when
// the state is built. Declaring a variable never allocates anything.
type Variable struct {
	// Name identifies the variable within its namespace. Names must
	// begin with a letter and may contain letters, digits and
	// underscores.
	Name string

	Kind Kind
	Dims Dims

	// Units documents the physical units of the variable, e.g. "J m-3"
	// or "K". Units take no part in computation.
	Units string

	// Description is an optional free-form explanation used by
	// reporting tools.
	Description string

	// Closure, when non-nil, ties this prognostic variable to the
	// diagnostics computed from it. Only prognostic variables may carry
	// a closure.
	Closure Closure
}

// check reports whether the declaration is well formed.
func (v Variable) check() error {
	if !validName.MatchString(v.Name) {
		return fmt.Errorf("landmap: invalid variable name %q", v.Name)
	}
	if v.Closure != nil && v.Kind != Prognostic {
		return fmt.Errorf("landmap: %s variable %s may not carry a closure",
			v.Kind, v.Name)
	}
	return nil
}

// compatible reports whether two declarations of the same name may be
// merged into a single shared field. Sibling processes may declare the
// same variable (shared ownership is how several processes add
// tendencies to one energy field) but the declarations must agree.
func (v Variable) compatible(w Variable) error {
	if v.Kind != w.Kind {
		return fmt.Errorf("landmap: variable %s redeclared as %s (was %s)",
			v.Name, w.Kind, v.Kind)
	}
	if v.Dims != w.Dims {
		return fmt.Errorf("landmap: variable %s redeclared as %s (was %s)",
			v.Name, w.Dims, v.Dims)
	}
	if v.Closure != nil && w.Closure != nil && v.Closure != w.Closure {
		return fmt.Errorf("landmap: variable %s declared with two different closures", v.Name)
	}
	return nil
}
