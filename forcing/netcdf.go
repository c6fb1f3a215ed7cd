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
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/landmap"
)

// NetCDF supplies inputs from a NetCDF file of time series. The file
// must carry a record dimension variable "time" with a CF-style units
// attribute ("seconds since ...", "hours since ..." or "days since
// ..."). Every other numeric variable whose leading dimension matches
// the time axis becomes a candidate input: one-dimensional variables
// apply to all grid columns, two-dimensional variables must have one
// value per column. Values are interpolated linearly in time and held
// constant beyond either end of the series.
type NetCDF struct {
	// Rename maps file variable names to model input names; a file
	// variable named like its input needs no entry. Renamed variables
	// must exist in the model while unmapped ones are skipped when the
	// model has no matching input.
	Rename map[string]string

	times  []time.Time
	series map[string]*sparse.DenseArray
}

// OpenNetCDF reads all forcing series out of the named file into
// memory.
func OpenNetCDF(filename string) (*NetCDF, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("landmap: opening forcing file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("landmap: reading forcing file %s: %v", filename, err)
	}

	times, err := readTimeAxis(ff)
	if err != nil {
		return nil, fmt.Errorf("landmap: %s: %v", filename, err)
	}

	n := &NetCDF{times: times, series: make(map[string]*sparse.DenseArray)}
	for _, v := range ff.Header.Variables() {
		if v == "time" {
			continue
		}
		dims := ff.Header.Lengths(v)
		if len(dims) == 0 || len(dims) > 2 || dims[0] != len(times) {
			continue
		}
		vals, ok, err := readFloats(ff, v)
		if err != nil {
			return nil, fmt.Errorf("landmap: %s: %v", filename, err)
		}
		if !ok {
			continue
		}
		arr := sparse.ZerosDense(dims...)
		copy(arr.Elements, vals)
		n.series[v] = arr
	}
	if len(n.series) == 0 {
		return nil, fmt.Errorf("landmap: %s holds no forcing series", filename)
	}
	return n, nil
}

// Times returns the time axis of the file.
func (n *NetCDF) Times() []time.Time {
	return append([]time.Time(nil), n.times...)
}

// Variables returns the names of the forcing series, sorted.
func (n *NetCDF) Variables() []string {
	names := make([]string, 0, len(n.series))
	for v := range n.series {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// Update implements the landmap.InputSource interface.
func (n *NetCDF) Update(s *landmap.State, g landmap.Grid, clk *landmap.Clock) error {
	i0, i1, w := bracket(n.times, clk.Now())
	for v, arr := range n.series {
		name, renamed := n.Rename[v], false
		if name == "" {
			name = v
		} else {
			renamed = true
		}
		if !renamed && !s.Has(name) {
			continue
		}
		f, err := inputField(s, name)
		if err != nil {
			return err
		}
		if len(arr.Shape) == 1 {
			val := (1-w)*arr.Elements[i0] + w*arr.Elements[i1]
			f.Fill(val)
			continue
		}
		if arr.Shape[1] != g.Columns() {
			return fmt.Errorf("landmap: forcing series %s has %d columns, grid has %d",
				v, arr.Shape[1], g.Columns())
		}
		for col := 0; col < g.Columns(); col++ {
			f.Data[col] = (1-w)*arr.Get(i0, col) + w*arr.Get(i1, col)
		}
	}
	return nil
}

// bracket locates t within the sorted time axis, returning the two
// surrounding indices and the weight of the later one. Outside the
// axis the nearest end holds.
func bracket(times []time.Time, t time.Time) (i0, i1 int, w float64) {
	j := sort.Search(len(times), func(i int) bool { return times[i].After(t) })
	switch {
	case j == 0:
		return 0, 0, 0
	case j == len(times):
		return j - 1, j - 1, 0
	}
	i0, i1 = j-1, j
	span := times[i1].Sub(times[i0]).Seconds()
	return i0, i1, t.Sub(times[i0]).Seconds() / span
}

func readTimeAxis(ff *cdf.File) ([]time.Time, error) {
	dims := ff.Header.Lengths("time")
	if len(dims) != 1 {
		return nil, fmt.Errorf("file has no one-dimensional time variable")
	}
	units, _ := ff.Header.GetAttribute("time", "units").(string)
	base, scale, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	vals, ok, err := readFloats(ff, "time")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("time variable is not numeric")
	}
	times := make([]time.Time, len(vals))
	for i, v := range vals {
		sec := v * scale
		whole := math.Trunc(sec)
		times[i] = base.Add(time.Duration(whole)*time.Second +
			time.Duration((sec-whole)*float64(time.Second)))
		if i > 0 && !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("time axis not increasing at record %d", i)
		}
	}
	return times, nil
}

// parseTimeUnits interprets a CF time units attribute, returning the
// reference time and the length of one unit in seconds.
func parseTimeUnits(units string) (time.Time, float64, error) {
	fields := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(fields) != 2 {
		return time.Time{}, 0, fmt.Errorf("cannot interpret time units %q", units)
	}
	var scale float64
	switch strings.ToLower(fields[0]) {
	case "seconds", "second", "s":
		scale = 1
	case "minutes", "minute":
		scale = 60
	case "hours", "hour", "h":
		scale = 3600
	case "days", "day", "d":
		scale = 86400
	default:
		return time.Time{}, 0, fmt.Errorf("unsupported time unit %q", fields[0])
	}
	ref := strings.TrimSpace(fields[1])
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if base, err := time.Parse(layout, ref); err == nil {
			return base, scale, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("cannot parse reference time %q", ref)
}

// readFloats reads a whole variable, converting the numeric types a
// forcing file plausibly stores to float64. Non-numeric variables
// report ok false.
func readFloats(ff *cdf.File, v string) (vals []float64, ok bool, err error) {
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, false, fmt.Errorf("reading variable %s: %v", v, err)
	}
	switch b := buf.(type) {
	case []float64:
		return b, true, nil
	case []float32:
		vals = make([]float64, len(b))
		for i, x := range b {
			vals[i] = float64(x)
		}
		return vals, true, nil
	case []int32:
		vals = make([]float64, len(b))
		for i, x := range b {
			vals[i] = float64(x)
		}
		return vals, true, nil
	case []int16:
		vals = make([]float64, len(b))
		for i, x := range b {
			vals[i] = float64(x)
		}
		return vals, true, nil
	default:
		return nil, false, nil
	}
}
