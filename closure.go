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

// A Closure ties a conserved prognostic variable to the diagnostic
// variables computed from it, for example internal energy to
// temperature and liquid fraction, or water content to pressure head.
// The two directions are exact inverses of each other wherever the
// underlying relation is invertible, and both must return finite
// results for any finite input.
//
// Closures attach to variable declarations and are invoked by the
// framework: Refresh after every integrator update, Prime during
// initialization. A closure implementation holds only constant
// parameters, never mutable state, so one value may be shared by any
// number of cells and workers.
type Closure interface {
	// Refresh recomputes the diagnostic variables of namespace s from
	// the prognostic variable, cell by cell. It is called whenever the
	// prognostic variable has been updated.
	Refresh(s *State, g Grid)

	// Prime runs the closure in reverse, computing the prognostic
	// variable from diagnostics that were seeded directly. Processes
	// call it at the end of initialization so that the simulation
	// starts from a consistent state.
	Prime(s *State, g Grid)
}
