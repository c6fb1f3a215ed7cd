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

package forcing

import (
	"fmt"
	"math"
	"time"

	"github.com/maseology/goHydro/pet"
	"github.com/maseology/goHydro/snowpack"
	"github.com/maseology/goHydro/solirrad"

	"github.com/spatialmodel/landmap"
)

// Prescott coefficients relating sunshine fraction to the global
// shortwave fraction of top-of-atmosphere radiation (Novák 2012).
const (
	prescottA = 0.27
	prescottB = 0.52

	refPressure = 101300. // [Pa]
	daySeconds  = 86400.

	// Standard Makkink coefficients (Makkink 1957), formerly hardcoded
	// inside goHydro's pet.Makkink.
	makkinkAlpha = 0.61
	makkinkBeta  = -1.2e-4 // [m/d]
)

// A MetRecord is one day of station weather.
type MetRecord struct {
	Date time.Time

	// Rain and Snow are daily precipitation depths [m].
	Rain, Snow float64

	// Tmin and Tmax are the daily temperature extremes [°C].
	Tmin, Tmax float64
}

// Met preprocesses daily weather records into model inputs. The
// snowfall fraction of precipitation accumulates in a cold-content
// snowpack and reaches the soil only as melt, so the water_flux input
// is delayed against precipitation in winter. Evaporative demand
// comes from Makkink (1957) radiation-based potential
// evapotranspiration, with global radiation estimated from
// top-of-atmosphere irradiation and a precipitation-based sunshine
// fraction. All derived series are computed once, in record order,
// because the snowpack carries state from day to day; a simulation
// then samples its day's value, with the first and last day extended
// outward.
type Met struct {
	days   []time.Time
	yield  []float64 // water reaching the ground [m s-1]
	demand []float64 // potential evapotranspiration [m s-1]
	tMean  []float64 // [°C]
	swDown []float64 // [W m-2]
	lwDown []float64 // [W m-2]

	// EstimateRadiation additionally drives the sw_down and lw_down
	// inputs, when the model has them, from the same global radiation
	// estimate used for evaporative demand and from the clear-sky
	// emission formula of Swinbank (1963).
	EstimateRadiation bool
}

// NewMet derives the forcing series from daily records at a site
// latitude given in degrees. Records must be sorted and unbroken;
// missing days would silently stretch the snowpack state.
func NewMet(records []MetRecord, latitude float64) (*Met, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("landmap: no weather records")
	}
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("landmap: latitude %g outside [-90,90]", latitude)
	}
	sp := snowpack.NewDefaultCCF()
	si := solirrad.New(latitude, 0, 0)

	m := &Met{
		days:   make([]time.Time, len(records)),
		yield:  make([]float64, len(records)),
		demand: make([]float64, len(records)),
		tMean:  make([]float64, len(records)),
		swDown: make([]float64, len(records)),
		lwDown: make([]float64, len(records)),
	}
	for i, r := range records {
		if i > 0 && !r.Date.After(records[i-1].Date) {
			return nil, fmt.Errorf("landmap: weather records out of order at %v", r.Date)
		}
		if r.Rain < 0 || r.Snow < 0 {
			return nil, fmt.Errorf("landmap: negative precipitation on %v", r.Date)
		}
		if r.Tmax < r.Tmin {
			return nil, fmt.Errorf("landmap: Tmax below Tmin on %v", r.Date)
		}
		tm := (r.Tmin + r.Tmax) / 2
		melt, throughfall, err := sp.Update(r.Rain, r.Snow, tm)
		if err != nil {
			return nil, fmt.Errorf("landmap: snowpack update on %v: %w", r.Date, err)
		}
		y := melt + throughfall

		sunshine := 1.
		if r.Rain+r.Snow > 0.001 {
			sunshine = 0
		}
		kg := si.PSIdaily(r.Date.YearDay()) * (prescottA + prescottB*sunshine)
		ep := pet.Makkink(kg, tm, refPressure, makkinkAlpha, makkinkBeta)

		tk := tm + 273.15
		m.days[i] = r.Date
		m.yield[i] = y / daySeconds
		m.demand[i] = ep / daySeconds
		m.tMean[i] = tm
		m.swDown[i] = kg * 1e6 / daySeconds // [MJ m-2 d-1] to [W m-2]
		m.lwDown[i] = 5.31e-13 * math.Pow(tk, 6)
	}
	return m, nil
}

// Update implements the landmap.InputSource interface. Only the
// inputs the model declares are written: air_temperature, water_flux
// and pet_demand always qualify, the radiation pair only with
// EstimateRadiation set.
func (m *Met) Update(s *landmap.State, g landmap.Grid, clk *landmap.Clock) error {
	i := dayIndex(m.days, clk.Now())
	fill := func(name string, val float64) error {
		if !s.Has(name) {
			return nil
		}
		f, err := inputField(s, name)
		if err != nil {
			return err
		}
		f.Fill(val)
		return nil
	}
	if err := fill("air_temperature", m.tMean[i]); err != nil {
		return err
	}
	if err := fill("water_flux", m.yield[i]); err != nil {
		return err
	}
	if err := fill("pet_demand", m.demand[i]); err != nil {
		return err
	}
	if m.EstimateRadiation {
		if err := fill("sw_down", m.swDown[i]); err != nil {
			return err
		}
		if err := fill("lw_down", m.lwDown[i]); err != nil {
			return err
		}
	}
	return nil
}

// dayIndex returns the record whose calendar day covers t, clamped to
// the series.
func dayIndex(days []time.Time, t time.Time) int {
	for i := len(days) - 1; i >= 0; i-- {
		if !t.Before(days[i]) {
			return i
		}
	}
	return 0
}
