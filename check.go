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
	"math"

	"github.com/sirupsen/logrus"
)

// A Check scans model state for non-finite values between the phases
// of a simulation step. Scanning costs a full pass over all fields, so
// it is meant for debugging blown-up runs; a nil *Check in the driver
// disables it entirely.
type Check struct {
	// NaN enables scanning for NaN and infinite values.
	NaN bool

	// MaxReport limits how many offending values are logged per scan.
	// Zero means the default of 10.
	MaxReport int

	// Log receives one entry per offending value. A nil Log still
	// fails the scan, silently.
	Log logrus.FieldLogger
}

// Scan walks every field of the tree, tendencies included, and reports
// the non-finite values it finds. The walk always completes before
// Scan fails, so a single scan reports all affected fields, not just
// the first. phase names the step phase that just ran.
func (c *Check) Scan(s *State, phase string) error {
	if c == nil || !c.NaN {
		return nil
	}
	max := c.MaxReport
	if max <= 0 {
		max = 10
	}
	var n int
	var first string
	s.eachField(func(ns *State, group string, f *Field) {
		for i, v := range f.Data {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				continue
			}
			n++
			name := ns.qualify(f.Name)
			if group == "tendency" {
				name += " (tendency)"
			}
			if first == "" {
				first = fmt.Sprintf("%s[%d] = %v", name, i, v)
			}
			if c.Log != nil && n <= max {
				c.Log.WithFields(logrus.Fields{
					"variable": name,
					"group":    group,
					"index":    i,
					"value":    v,
					"phase":    phase,
					"step":     s.clock.Step,
				}).Error("non-finite value in model state")
			}
		}
	})
	if n > 0 {
		return fmt.Errorf("landmap: %d non-finite values after %s phase at step %d (first: %s)",
			n, phase, s.clock.Step, first)
	}
	return nil
}
