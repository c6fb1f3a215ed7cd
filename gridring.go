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
	"math"

	"github.com/ctessum/geom"
)

// Located is implemented by grids whose columns have geographic
// locations. Output writers include coordinates for located grids, and
// input sources use the locations to sample gridded forcing.
type Located interface {
	// Location returns the longitude (X) and latitude (Y) of column
	// col in degrees.
	Location(col int) geom.Point
}

// A RingGrid arranges columns on latitude rings of a reduced Gaussian
// style global grid: each ring holds a number of columns proportional
// to the cosine of its latitude, so columns have approximately equal
// area everywhere instead of crowding toward the poles.
type RingGrid struct {
	vgrid
	pts   []geom.Point
	ringN []int // columns per ring, south to north
}

// NewRingGrid returns a global grid with the given number of latitude
// rings and the vertical geometry of NewColumn.
func NewRingGrid(rings, layers int, dz0, growth float64) *RingGrid {
	g := &RingGrid{
		vgrid: newVgrid(layers, dz0, growth),
		ringN: make([]int, rings),
	}
	Δφ := 180.0 / float64(rings)
	for r := 0; r < rings; r++ {
		φ := -90 + (float64(r)+0.5)*Δφ
		n := int(math.Round(2 * float64(rings) * math.Cos(φ*math.Pi/180)))
		if n < 1 {
			n = 1
		}
		g.ringN[r] = n
		Δλ := 360.0 / float64(n)
		for i := 0; i < n; i++ {
			g.pts = append(g.pts, geom.Point{
				X: -180 + (float64(i)+0.5)*Δλ,
				Y: φ,
			})
		}
	}
	return g
}

func (g *RingGrid) Columns() int { return len(g.pts) }
func (g *RingGrid) Cells() int   { return len(g.pts) * len(g.dz) }

func (g *RingGrid) Index(col, k int) int { return col*len(g.dz) + k }

func (g *RingGrid) Grad(vals []float64, col, k int) float64 {
	return gradAt(&g.vgrid, vals, col*len(g.dz), k)
}

func (g *RingGrid) FaceVal(vals []float64, col, k int) float64 {
	return faceAt(&g.vgrid, vals, col*len(g.dz), k)
}

// Location implements the Located interface.
func (g *RingGrid) Location(col int) geom.Point { return g.pts[col] }

// Bounds returns the geographic bounding box of all columns.
func (g *RingGrid) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range g.pts {
		b.Extend(p.Bounds())
	}
	return b
}

// Rings returns the number of columns on each latitude ring, ordered
// south to north.
func (g *RingGrid) Rings() []int { return g.ringN }
