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

// Package landmap implements a modular land-surface simulation framework.
//
// A model is a tree of physical processes (soil heat conduction, water
// flow, carbon turnover, vegetation dynamics, surface energy exchange)
// that declare their state symbolically and are advanced through time by
// explicit integrators. Processes communicate only through a shared state
// namespace: prognostic fields hold conserved quantities, tendency fields
// accumulate the rates contributed by every process, and auxiliary fields
// hold diagnostics recomputed each step. Closure relations keep each
// conserved quantity consistent with its diagnostic companion (internal
// energy with temperature, water content with pressure head) cell by
// cell.
//
// The per-cell kernels are pure functions that branch on values rather
// than types and return finite results for any finite input, so a model
// built from them remains traversable by reverse-mode differentiation
// tools and safe to evaluate on arbitrarily many parallel workers.
package landmap

// Version gives the version of this copy of the framework.
const Version = "0.1.0"
