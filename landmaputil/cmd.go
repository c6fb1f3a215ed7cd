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

// Package landmaputil wires the LandMAP framework into a command-line
// program: configuration declaration and resolution, the process
// registry, and the run and describe commands.
package landmaputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/landmap"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to LandMAP.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Sim.Start",
			usage: `
              Sim.Start is the calendar date of the first timestep,
              formatted YYYY-MM-DD. Forcing sources locate the simulation
              within their records relative to this date.`,
			defaultVal: "2000-01-01",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.Days",
			usage: `
              Sim.Days is the length of the simulation in days. The number
              of timesteps is rounded up, so the run may overshoot by less
              than one timestep.`,
			defaultVal: 365.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.Dt",
			usage: `
              Sim.Dt is the timestep in seconds. Explicit integration
              bounds the usable timestep by the thinnest grid layer;
              half an hour is safe for the default grid.`,
			defaultVal: 1800.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.Integrator",
			usage: `
              Sim.Integrator selects the time integration scheme. Valid
              options are "euler" and "heun".`,
			defaultVal: "heun",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.CheckNaN",
			usage: `
              Sim.CheckNaN scans all state for non-finite values between
              step phases, stopping the run at the first one found and
              reporting what produced it.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.RestartFile",
			usage: `
              Sim.RestartFile is the path to a snapshot to resume from.
              The snapshot must have been written by a model with the same
              variables on the same grid. Empty means a cold start.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sim.SnapshotFile",
			usage: `
              Sim.SnapshotFile is the path where the final state snapshot
              should be written, for later restart. Empty disables
              snapshotting.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. If
              blank, logging goes to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogEvery",
			usage: `
              LogEvery sets how many timesteps pass between progress log
              entries. Zero logs only the start and end of a run.`,
			defaultVal: 24,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.Layers",
			usage: `
              Grid.Layers is the number of vertical layers in each soil
              column.`,
			defaultVal: 24,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Grid.Dz0",
			usage: `
              Grid.Dz0 is the thickness of the topmost layer in meters.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Grid.Growth",
			usage: `
              Grid.Growth is the geometric layer thickness growth factor
              with depth. 1 gives uniform layers.`,
			defaultVal: 1.2,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Grid.Columns",
			usage: `
              Grid.Columns is the number of independent soil columns to
              simulate. Ignored when Grid.Rings is set.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Grid.Rings",
			usage: `
              Grid.Rings, when positive, lays the columns out on the
              given number of global latitude rings, with columns per
              ring proportional to the cosine of latitude, and attaches
              a location to each column, so output includes
              coordinates.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Processes",
			usage: `
              Processes lists the model components to compose, in order.
              Valid names are "stratigraphy", "surface", "soilwater",
              "soilheat", "soilcarbon" and "vegetation". Order encodes
              dependency: composition initializes left to right.`,
			defaultVal: []string{"stratigraphy", "surface", "soilwater", "soilheat", "soilcarbon", "vegetation"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Soil.Profile",
			usage: `
              Soil.Profile is the path to a TOML stratigraphy document
              giving the porosity, mineral and organic fractions by depth
              horizon. If blank, a uniform loam-like profile is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Soil.Retention",
			usage: `
              Soil.Retention selects the water retention curve. Valid
              options are "vangenuchten" and "brookscorey".`,
			defaultVal: "vangenuchten",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Soil.Ksat",
			usage: `
              Soil.Ksat is the saturated hydraulic conductivity in m/s.`,
			defaultVal: 2.9e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Soil.GeothermalFlux",
			usage: `
              Soil.GeothermalFlux is the heat flux entering the column
              bottom in W/m². Continental background values are near
              0.05.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Surface.Albedo",
			usage: `
              Surface.Albedo is the shortwave reflectivity of the ground
              surface.`,
			defaultVal: 0.2,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Boundary.MeanTemperature",
			usage: `
              Boundary.MeanTemperature is the annual mean surface
              temperature in °C driving heat conduction when the model has
              no surface energy balance process.`,
			defaultVal: 8.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Boundary.Amplitude",
			usage: `
              Boundary.Amplitude is the amplitude in K of the annual
              surface temperature cycle around Boundary.MeanTemperature.`,
			defaultVal: 12.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Forcing.WeatherFile",
			usage: `
              Forcing.WeatherFile is the path to a CSV file of daily
              weather records (date, rain, snow, tmin, tmax) to be
              preprocessed into model inputs. Empty disables weather
              forcing.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.Latitude",
			usage: `
              Forcing.Latitude is the site latitude in degrees, used for
              the radiation estimates of the weather preprocessing.`,
			defaultVal: 45.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.EstimateRadiation",
			usage: `
              Forcing.EstimateRadiation additionally drives the shortwave
              and longwave radiation inputs from the weather records'
              radiation estimate.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.NetCDF",
			usage: `
              Forcing.NetCDF is the path to a NetCDF file of forcing time
              series, interpolated linearly in time onto the model inputs.
              Empty disables NetCDF forcing.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.Rename",
			usage: `
              Forcing.Rename maps NetCDF variable names to model input
              names, for files whose variables are named differently than
              the inputs they should drive.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output CSV location.`,
			defaultVal: "landmap_output.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which model variables should be
              included in the output file. Values are expressions over
              declared variable names; names from nested namespaces join
              with underscores.`,
			defaultVal: map[string]string{
				"soil_temperature": "temperature",
				"liquid_water":     "water_content * liquid_fraction",
				"total_carbon":     "carbon_fast + carbon_slow",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LANDMAP")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(describeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("landmap: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// GetStringMapString returns a map of strings from the named
// configuration variable, which pflag carries as a JSON-encoded
// string.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch t := i.(type) {
	case string:
		if t == "" {
			return map[string]string{}, nil
		}
		m := make(map[string]string)
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, fmt.Errorf("landmap: reading configuration variable %s: %v", varName, err)
		}
		return m, nil
	default:
		m, err := cast.ToStringMapStringE(i)
		if err != nil {
			return nil, fmt.Errorf("landmap: reading configuration variable %s: %v", varName, err)
		}
		return m, nil
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "landmap",
	Short: "A modular land-surface simulation framework.",
	Long: `LandMAP simulates coupled heat, water and carbon dynamics of soil
columns. Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'LANDMAP_var'
where 'var' is the name of the variable to be set. Refer to
https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of LandMAP.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("LandMAP v%s\n", landmap.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: `run composes the configured model, allocates its state on the
configured grid and integrates it through the configured period, writing
the output variables to a CSV file at the end of the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(Cfg)
	},
	DisableAutoGenTag: true,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe the configured model.",
	Long: `describe composes the configured model, allocates its state and
prints a table of every state variable with its group, dimensions and
units, without running a simulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Describe(os.Stdout, Cfg)
	},
	DisableAutoGenTag: true,
}
