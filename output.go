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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/Knetic/govaluate"
)

// An Outputter evaluates user-supplied expressions over model state
// and writes the results as CSV, one row per grid cell. Expressions
// combine variable names from the state tree (qualified names use
// underscores instead of dots, e.g. veg_leaf_area) with arithmetic and
// the built-in functions exp, log, log10, sqrt, abs, min and max; the
// cell coordinates column, layer and depth, and for geolocated grids
// longitude and latitude, are available implicitly.
type Outputter struct {
	names []string
	exprs map[string]*govaluate.EvaluableExpression
	funcs map[string]govaluate.ExpressionFunction
}

func one(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("argument %v is not a number", args[0])
		}
		return f(x), nil
	}
}

func two(f func(a, b float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("want 2 arguments, got %d", len(args))
		}
		a, aok := args[0].(float64)
		b, bok := args[1].(float64)
		if !aok || !bok {
			return nil, fmt.Errorf("arguments %v are not numbers", args)
		}
		return f(a, b), nil
	}
}

// NewOutputter compiles the given output specification, mapping output
// column names to expressions. extraFunctions, which may be nil, adds
// to or overrides the built-in function set.
func NewOutputter(outputVariables map[string]string, extraFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	o := &Outputter{
		exprs: make(map[string]*govaluate.EvaluableExpression),
		funcs: map[string]govaluate.ExpressionFunction{
			"exp":   one(math.Exp),
			"log":   one(math.Log),
			"log10": one(math.Log10),
			"sqrt":  one(math.Sqrt),
			"abs":   one(math.Abs),
			"min":   two(math.Min),
			"max":   two(math.Max),
		},
	}
	for name, fn := range extraFunctions {
		o.funcs[name] = fn
	}
	for name, spec := range outputVariables {
		if !validName.MatchString(name) {
			return nil, fmt.Errorf("landmap: invalid output name %q", name)
		}
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(spec, o.funcs)
		if err != nil {
			return nil, fmt.Errorf("landmap: parsing output %s: %v", name, err)
		}
		o.exprs[name] = expr
		o.names = append(o.names, name)
	}
	sort.Strings(o.names)
	return o, nil
}

// implicit cell coordinates available to every expression.
var implicitVars = map[string]bool{
	"column": true, "layer": true, "depth": true,
	"longitude": true, "latitude": true,
}

// CheckModelVars verifies that every variable referenced by the output
// expressions exists in the state tree.
func (o *Outputter) CheckModelVars(s *State) error {
	for _, name := range o.names {
		for _, v := range o.exprs[name].Vars() {
			if implicitVars[v] {
				continue
			}
			if _, err := resolveVar(s, v); err != nil {
				return fmt.Errorf("landmap: output %s: %v", name, err)
			}
		}
	}
	return nil
}

// resolveVar finds the field an expression identifier refers to,
// trying the verbatim name first and then successively replacing
// underscores with dots from the left.
func resolveVar(s *State, v string) (*Field, error) {
	f, err := s.Find(v)
	if err == nil {
		return f, nil
	}
	name := v
	for i := 0; i < len(name); i++ {
		if name[i] != '_' {
			continue
		}
		try := name[:i] + "." + name[i+1:]
		if f, err2 := s.Find(try); err2 == nil {
			return f, nil
		}
	}
	return nil, err
}

// Results evaluates all output expressions over the current state and
// returns one value per grid cell for each output name. Lateral
// variables broadcast down their column.
func (o *Outputter) Results(s *State, g Grid) (map[string][]float64, error) {
	type binding struct {
		name string
		f    *Field
	}
	bindings := make(map[string][]binding)
	for _, name := range o.names {
		for _, v := range o.exprs[name].Vars() {
			if implicitVars[v] {
				continue
			}
			f, err := resolveVar(s, v)
			if err != nil {
				return nil, fmt.Errorf("landmap: output %s: %v", name, err)
			}
			bindings[name] = append(bindings[name], binding{name: v, f: f})
		}
	}

	loc, located := g.(Located)
	results := make(map[string][]float64, len(o.names))
	for _, name := range o.names {
		results[name] = make([]float64, g.Cells())
	}
	params := make(map[string]interface{})
	for col := 0; col < g.Columns(); col++ {
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			params["column"] = float64(col)
			params["layer"] = float64(k)
			params["depth"] = g.Center(k)
			if located {
				p := loc.Location(col)
				params["longitude"] = p.X
				params["latitude"] = p.Y
			}
			for _, name := range o.names {
				for _, b := range bindings[name] {
					if b.f.Dims == Lateral {
						params[b.name] = b.f.Data[col]
					} else {
						params[b.name] = b.f.Data[i]
					}
				}
				v, err := o.exprs[name].Evaluate(params)
				if err != nil {
					return nil, fmt.Errorf("landmap: evaluating output %s: %v", name, err)
				}
				x, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("landmap: output %s is %T, not a number", name, v)
				}
				results[name][i] = x
			}
		}
	}
	return results, nil
}

// Write evaluates the output expressions and writes them to w as CSV
// with one row per grid cell.
func (o *Outputter) Write(w io.Writer, s *State, g Grid) error {
	results, err := o.Results(s, g)
	if err != nil {
		return err
	}
	loc, located := g.(Located)
	cw := csv.NewWriter(w)
	header := []string{"column", "layer", "depth"}
	if located {
		header = append(header, "longitude", "latitude")
	}
	header = append(header, o.names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("landmap: writing output: %v", err)
	}
	fc := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	row := make([]string, 0, len(header))
	for col := 0; col < g.Columns(); col++ {
		for k := 0; k < g.Layers(); k++ {
			i := g.Index(col, k)
			row = row[:0]
			row = append(row, strconv.Itoa(col), strconv.Itoa(k), fc(g.Center(k)))
			if located {
				p := loc.Location(col)
				row = append(row, fc(p.X), fc(p.Y))
			}
			for _, name := range o.names {
				row = append(row, fc(results[name][i]))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("landmap: writing output: %v", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
