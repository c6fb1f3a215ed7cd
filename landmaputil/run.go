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
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ctessum/unit"
	"github.com/lnashier/viper"
	"github.com/maseology/mmio"
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/landmap"
	"github.com/spatialmodel/landmap/boundary"
	"github.com/spatialmodel/landmap/forcing"
	"github.com/spatialmodel/landmap/science/soilcarbon"
	"github.com/spatialmodel/landmap/science/soilheat"
	"github.com/spatialmodel/landmap/science/soilwater"
	"github.com/spatialmodel/landmap/science/stratigraphy"
	"github.com/spatialmodel/landmap/science/surface"
	"github.com/spatialmodel/landmap/science/swrc"
	"github.com/spatialmodel/landmap/science/vegetation"
)

// processConstructors maps configuration process names to their
// constructors. The constructors receive the full process name list so
// components can adapt to what they are composed with. Resolution
// happens once, when the model is built; afterwards composition calls
// concrete methods only.
var processConstructors = map[string]func(cfg *viper.Viper, names []string) (landmap.Process, error){
	"stratigraphy": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		if path := cfg.GetString("Soil.Profile"); path != "" {
			return stratigraphy.ReadFile(os.ExpandEnv(path))
		}
		return stratigraphy.Uniform(0.45, 0.5, 0.05), nil
	},
	"surface": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		b := surface.NewEnergyBalance()
		b.Albedo = cfg.GetFloat64("Surface.Albedo")
		return b, nil
	},
	"soilwater": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		curve, err := swrc.ByName(cfg.GetString("Soil.Retention"))
		if err != nil {
			return nil, err
		}
		r := soilwater.NewRichards()
		r.Curve = curve
		r.Ksat = cfg.GetFloat64("Soil.Ksat")
		return r, nil
	},
	"soilheat": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		// With a surface energy balance in the composition the ground
		// heat flux closes the top of the column; otherwise an annual
		// temperature cycle does.
		var cond boundary.Condition
		if !contains(names, "surface") {
			cond = &boundary.Harmonic{
				Mean:      cfg.GetFloat64("Boundary.MeanTemperature"),
				Amplitude: cfg.GetFloat64("Boundary.Amplitude"),
				Period:    365 * 24 * time.Hour,
			}
		}
		flux, err := boundary.NewFlux(
			unit.New(cfg.GetFloat64("Soil.GeothermalFlux"), soilheat.WattPerMeter2))
		if err != nil {
			return nil, err
		}
		return landmap.Couple(
			soilheat.NewConduction(cond),
			&soilheat.Geothermal{Flux: flux},
		), nil
	},
	"soilcarbon": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		return soilcarbon.NewDecomposition(), nil
	},
	"vegetation": func(cfg *viper.Viper, names []string) (landmap.Process, error) {
		return vegetation.New(), nil
	},
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// Model composes the configured process list into a single model.
func Model(cfg *viper.Viper) (landmap.Process, error) {
	names := cfg.GetStringSlice("Processes")
	if len(names) == 0 {
		return nil, fmt.Errorf("landmap: no processes configured")
	}
	procs := make([]landmap.Process, len(names))
	for i, name := range names {
		construct, ok := processConstructors[name]
		if !ok {
			return nil, fmt.Errorf("landmap: unknown process %q", name)
		}
		p, err := construct(cfg, names)
		if err != nil {
			return nil, fmt.Errorf("landmap: building process %q: %v", name, err)
		}
		procs[i] = p
	}
	if len(procs) == 1 {
		return procs[0], nil
	}
	return landmap.Couple(procs...), nil
}

// Grid builds the configured spatial discretization.
func Grid(cfg *viper.Viper) (landmap.Grid, error) {
	layers := cfg.GetInt("Grid.Layers")
	dz0 := cfg.GetFloat64("Grid.Dz0")
	growth := cfg.GetFloat64("Grid.Growth")
	if layers < 1 || dz0 <= 0 || growth <= 0 {
		return nil, fmt.Errorf("landmap: invalid grid: %d layers, dz0 %g, growth %g",
			layers, dz0, growth)
	}
	if rings := cfg.GetInt("Grid.Rings"); rings > 0 {
		return landmap.NewRingGrid(rings, layers, dz0, growth), nil
	}
	cols := cfg.GetInt("Grid.Columns")
	if cols < 1 {
		return nil, fmt.Errorf("landmap: invalid column count %d", cols)
	}
	return landmap.NewColumn(layers, dz0, growth).Replicated(cols), nil
}

// integrator resolves the configured integration scheme.
func integrator(cfg *viper.Viper) (landmap.Integrator, error) {
	switch name := cfg.GetString("Sim.Integrator"); name {
	case "euler":
		return landmap.Euler{}, nil
	case "heun":
		return &landmap.Heun{}, nil
	default:
		return nil, fmt.Errorf("landmap: unknown integrator %q; valid options are euler and heun", name)
	}
}

// inputs builds the configured forcing sources, in the order they
// update each step: weather preprocessing first, NetCDF series second
// so file-driven inputs win where both supply the same variable.
func inputs(cfg *viper.Viper) ([]landmap.InputSource, error) {
	var srcs []landmap.InputSource
	if path := cfg.GetString("Forcing.WeatherFile"); path != "" {
		records, err := forcing.ReadMetFile(os.ExpandEnv(path))
		if err != nil {
			return nil, err
		}
		met, err := forcing.NewMet(records, cfg.GetFloat64("Forcing.Latitude"))
		if err != nil {
			return nil, err
		}
		met.EstimateRadiation = cfg.GetBool("Forcing.EstimateRadiation")
		srcs = append(srcs, met)
	}
	if path := cfg.GetString("Forcing.NetCDF"); path != "" {
		n, err := forcing.OpenNetCDF(os.ExpandEnv(path))
		if err != nil {
			return nil, err
		}
		rename, err := GetStringMapString("Forcing.Rename", cfg)
		if err != nil {
			return nil, err
		}
		n.Rename = rename
		srcs = append(srcs, n)
	}
	return srcs, nil
}

// logger builds the run log destination.
func logger(cfg *viper.Viper) (*logrus.Logger, error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if path := cfg.GetString("LogFile"); path != "" {
		f, err := os.Create(os.ExpandEnv(path))
		if err != nil {
			return nil, fmt.Errorf("landmap: creating log file: %v", err)
		}
		log.Out = f
	}
	return log, nil
}

// Run builds a simulation from the configuration, integrates it
// through the configured period and writes the output variables.
func Run(cfg *viper.Viper) error {
	tt := mmio.NewTimer()

	log, err := logger(cfg)
	if err != nil {
		return err
	}
	model, err := Model(cfg)
	if err != nil {
		return err
	}
	grid, err := Grid(cfg)
	if err != nil {
		return err
	}
	integ, err := integrator(cfg)
	if err != nil {
		return err
	}
	srcs, err := inputs(cfg)
	if err != nil {
		return err
	}
	start, err := time.Parse("2006-01-02", cfg.GetString("Sim.Start"))
	if err != nil {
		return fmt.Errorf("landmap: reading Sim.Start: %v", err)
	}
	days := cfg.GetFloat64("Sim.Days")
	if !(days > 0) {
		return fmt.Errorf("landmap: Sim.Days must be positive, got %g", days)
	}

	outVars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return err
	}
	out, err := landmap.NewOutputter(outVars, nil)
	if err != nil {
		return err
	}

	sim := &landmap.Sim{
		Model:      model,
		Grid:       grid,
		Integrator: integ,
		Inputs:     srcs,
		Dt:         cfg.GetFloat64("Sim.Dt"),
		Start:      start,
		Log:        log,
		LogEvery:   cfg.GetInt("LogEvery"),
	}
	if cfg.GetBool("Sim.CheckNaN") {
		sim.Check = &landmap.Check{NaN: true, Log: log}
	}
	if err := sim.Init(); err != nil {
		return err
	}
	if err := out.CheckModelVars(sim.State()); err != nil {
		return err
	}
	if path := cfg.GetString("Sim.RestartFile"); path != "" {
		f, err := os.Open(os.ExpandEnv(path))
		if err != nil {
			return fmt.Errorf("landmap: opening restart file: %v", err)
		}
		err = sim.Load(f)
		f.Close()
		if err != nil {
			return err
		}
	}
	tt.Lap("model build complete")

	period := time.Duration(days * 24 * float64(time.Hour))
	if err := sim.Run(context.Background(), landmap.Period(period)); err != nil {
		return err
	}
	tt.Lap("simulation complete")

	of, err := os.Create(os.ExpandEnv(cfg.GetString("OutputFile")))
	if err != nil {
		return fmt.Errorf("landmap: creating output file: %v", err)
	}
	err = out.Write(of, sim.State(), grid)
	if cerr := of.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if path := cfg.GetString("Sim.SnapshotFile"); path != "" {
		f, err := os.Create(os.ExpandEnv(path))
		if err != nil {
			return fmt.Errorf("landmap: creating snapshot file: %v", err)
		}
		err = sim.Save(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	tt.Lap("results save complete")
	return nil
}

// Describe composes the configured model, allocates its state on the
// configured grid and writes a table of every declared variable.
func Describe(w io.Writer, cfg *viper.Viper) error {
	model, err := Model(cfg)
	if err != nil {
		return err
	}
	grid, err := Grid(cfg)
	if err != nil {
		return err
	}
	s, err := landmap.BuildState(model, grid, &landmap.Clock{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tGROUP\tDIMS\tUNITS\tDESCRIPTION")
	for _, name := range s.VarNames() {
		f, err := s.Find(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%v\t%v\t%s\t%s\n",
			name, f.Kind, f.Dims, f.Units, f.Description)
	}
	return tw.Flush()
}
