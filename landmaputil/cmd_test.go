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

package landmaputil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/science/swrc"
)

// setOption overrides a configuration option for one test, restoring
// its declared default afterwards.
func setOption(t *testing.T, name string, value interface{}) {
	t.Helper()
	for _, o := range options {
		if o.name == name {
			def := o.defaultVal
			Cfg.Set(name, value)
			t.Cleanup(func() { Cfg.Set(name, def) })
			return
		}
	}
	t.Fatalf("unknown option %s", name)
}

func TestDefaults(t *testing.T) {
	if dt := Cfg.GetFloat64("Sim.Dt"); dt != 1800 {
		t.Errorf("default timestep %g, want 1800", dt)
	}
	names := Cfg.GetStringSlice("Processes")
	if len(names) != 6 || names[0] != "stratigraphy" {
		t.Errorf("default process list %v", names)
	}
	if _, err := swrc.ByName(Cfg.GetString("Soil.Retention")); err != nil {
		t.Errorf("default retention curve does not resolve: %v", err)
	}
	vars, err := GetStringMapString("OutputVariables", Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if vars["total_carbon"] != "carbon_fast + carbon_slow" {
		t.Errorf("default output variables %v", vars)
	}
}

func TestModel(t *testing.T) {
	model, err := Model(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	grid, err := Grid(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	s, err := landmap.BuildState(model, grid, &landmap.Clock{})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"energy", "water_content", "carbon_fast", "veg.leaf_area"} {
		if _, err := s.Find(name); err != nil {
			t.Errorf("full model lacks %s: %v", name, err)
		}
	}
}

func TestModelUnknownProcess(t *testing.T) {
	setOption(t, "Processes", []string{"stratigraphy", "chemistry"})
	if _, err := Model(Cfg); err == nil {
		t.Error("unknown process name accepted")
	}
}

func TestIntegrator(t *testing.T) {
	setOption(t, "Sim.Integrator", "euler")
	if in, err := integrator(Cfg); err != nil {
		t.Error(err)
	} else if _, ok := in.(landmap.Euler); !ok {
		t.Errorf("euler resolved to %T", in)
	}
	Cfg.Set("Sim.Integrator", "midpoint")
	if _, err := integrator(Cfg); err == nil {
		t.Error("unknown integrator accepted")
	}
}

func TestGridRings(t *testing.T) {
	setOption(t, "Grid.Rings", 2)
	g, err := Grid(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*landmap.RingGrid); !ok {
		t.Errorf("rings resolved to %T", g)
	}
}

func TestDescribe(t *testing.T) {
	var b bytes.Buffer
	if err := Describe(&b, Cfg); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"temperature", "veg.leaf_area", "W m-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output lacks %q", want)
		}
	}
}

// TestRunCommand integrates a forced heat conduction model for two
// days through the command interface and checks the output profile.
func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.csv")
	snapFile := filepath.Join(dir, "end.gob")
	setOption(t, "Processes", []string{"stratigraphy", "soilheat"})
	setOption(t, "Sim.Days", 2.0)
	setOption(t, "LogFile", filepath.Join(dir, "run.log"))
	setOption(t, "OutputFile", outFile)
	setOption(t, "OutputVariables", map[string]string{"soil_temperature": "temperature"})
	setOption(t, "Sim.SnapshotFile", snapFile)

	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	layers := Cfg.GetInt("Grid.Layers")
	if len(rows) != layers+1 {
		t.Fatalf("%d output rows, want %d", len(rows), layers+1)
	}
	var hasTemp bool
	for _, h := range rows[0] {
		if h == "soil_temperature" {
			hasTemp = true
		}
	}
	if !hasTemp {
		t.Errorf("output header %v lacks soil_temperature", rows[0])
	}

	if fi, err := os.Stat(snapFile); err != nil {
		t.Error(err)
	} else if fi.Size() == 0 {
		t.Error("empty snapshot file")
	}
}
