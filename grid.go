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
	"runtime"
	"sync"
)

// A Grid describes the discretization that model state is allocated on:
// a set of independent soil columns, each divided into the same number
// of vertical layers. Depth coordinates are positive downward from the
// surface [m]. Column-resolving fields are stored column-major, so cell
// (col, k) lives at index col*Layers()+k and a single column occupies a
// contiguous slice.
type Grid interface {
	// Columns returns the number of lateral columns.
	Columns() int

	// Layers returns the number of vertical layers per column.
	Layers() int

	// Cells returns Columns()*Layers().
	Cells() int

	// Index returns the storage index of layer k of column col.
	Index(col, k int) int

	// Dz returns the thickness of layer k [m].
	Dz(k int) float64

	// Center returns the depth of the midpoint of layer k [m].
	Center(k int) float64

	// Edge returns the depth of the upper face of layer k [m];
	// Edge(Layers()) is the depth of the column bottom.
	Edge(k int) float64

	// Grad returns ∂v/∂z of the column-resolving field vals at the
	// interior face between layers k-1 and k of column col, for
	// 1 ≤ k ≤ Layers()-1. Fluxes through the outermost faces are set
	// by boundary conditions, not by this operator.
	Grad(vals []float64, col, k int) float64

	// FaceVal linearly interpolates the column-resolving field vals to
	// the interior face between layers k-1 and k of column col.
	FaceVal(vals []float64, col, k int) float64
}

// vgrid holds the vertical geometry shared by all grid types.
type vgrid struct {
	dz []float64 // layer thicknesses [m]
	zc []float64 // cell center depths [m]
	ze []float64 // face depths [m]; len(ze) == len(dz)+1
}

func newVgrid(layers int, dz0, growth float64) vgrid {
	if layers <= 0 {
		panic(fmt.Sprintf("landmap: grid needs at least one layer, got %d", layers))
	}
	if dz0 <= 0 || growth <= 0 {
		panic(fmt.Sprintf("landmap: nonpositive grid spacing dz0=%g growth=%g", dz0, growth))
	}
	g := vgrid{
		dz: make([]float64, layers),
		zc: make([]float64, layers),
		ze: make([]float64, layers+1),
	}
	Δz := dz0
	for k := 0; k < layers; k++ {
		g.dz[k] = Δz
		g.ze[k+1] = g.ze[k] + Δz
		g.zc[k] = g.ze[k] + Δz/2
		Δz *= growth
	}
	return g
}

func (g *vgrid) Layers() int          { return len(g.dz) }
func (g *vgrid) Dz(k int) float64     { return g.dz[k] }
func (g *vgrid) Center(k int) float64 { return g.zc[k] }
func (g *vgrid) Edge(k int) float64   { return g.ze[k] }

// A ColumnGrid is a grid of one or more identical soil columns with
// vertically stretched layers: layer k has thickness dz0·growthᵏ, so
// growth == 1 gives uniform spacing and growth > 1 concentrates
// resolution near the surface.
type ColumnGrid struct {
	vgrid
	ncol int
}

// NewColumn returns a single-column grid.
func NewColumn(layers int, dz0, growth float64) *ColumnGrid {
	return &ColumnGrid{vgrid: newVgrid(layers, dz0, growth), ncol: 1}
}

// Replicated returns a grid with the same vertical geometry repeated
// across cols independent columns.
func (g *ColumnGrid) Replicated(cols int) *ColumnGrid {
	if cols <= 0 {
		panic(fmt.Sprintf("landmap: grid needs at least one column, got %d", cols))
	}
	return &ColumnGrid{vgrid: g.vgrid, ncol: cols}
}

func (g *ColumnGrid) Columns() int { return g.ncol }
func (g *ColumnGrid) Cells() int   { return g.ncol * len(g.dz) }

func (g *ColumnGrid) Index(col, k int) int { return col*len(g.dz) + k }

func (g *ColumnGrid) Grad(vals []float64, col, k int) float64 {
	return gradAt(&g.vgrid, vals, col*len(g.dz), k)
}

func (g *ColumnGrid) FaceVal(vals []float64, col, k int) float64 {
	return faceAt(&g.vgrid, vals, col*len(g.dz), k)
}

// gradAt differences cell-centered values across the face between
// layers k-1 and k. base is the storage index of layer 0 of the column.
func gradAt(g *vgrid, vals []float64, base, k int) float64 {
	return (vals[base+k] - vals[base+k-1]) / (g.zc[k] - g.zc[k-1])
}

// faceAt interpolates cell-centered values to the face between layers
// k-1 and k, weighting each cell by its distance to the face.
func faceAt(g *vgrid, vals []float64, base, k int) float64 {
	w := g.dz[k-1] / (g.dz[k-1] + g.dz[k])
	return (1-w)*vals[base+k-1] + w*vals[base+k]
}

// EachColumn runs fn once for every column of g, fanning the columns
// out over GOMAXPROCS workers. Columns share no state, so processes use
// it to parallelize their vertical sweeps.
func EachColumn(g Grid, fn func(col int)) {
	ncol := g.Columns()
	nprocs := runtime.GOMAXPROCS(0)
	if ncol == 1 || nprocs == 1 {
		for col := 0; col < ncol; col++ {
			fn(col)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for proc := 0; proc < nprocs; proc++ {
		go func(proc int) {
			defer wg.Done()
			for col := proc; col < ncol; col += nprocs {
				fn(col)
			}
		}(proc)
	}
	wg.Wait()
}
