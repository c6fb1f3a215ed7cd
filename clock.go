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

import "time"

// A Clock tracks elapsed simulation time. Every namespace in a state
// tree shares a single clock; it only moves forward, by exactly one
// timestep per completed step, and is reset only when a simulation is
// (re)initialized.
type Clock struct {
	// Start is the calendar time corresponding to zero elapsed
	// seconds. Input sources use it to locate the simulation within
	// their forcing records.
	Start time.Time

	// Time is the elapsed simulation time [s].
	Time float64

	// Step counts completed timesteps.
	Step int
}

// Now returns the current calendar time.
func (c *Clock) Now() time.Time {
	return c.Start.Add(time.Duration(c.Time * float64(time.Second)))
}

// advance moves the clock forward by Δt seconds.
func (c *Clock) advance(Δt float64) {
	c.Time += Δt
	c.Step++
}

// reset rewinds the clock to its start time.
func (c *Clock) reset() {
	c.Time = 0
	c.Step = 0
}
