/*
Copyright © 2025 the forestcarbon authors.
This file is part of forestcarbon.

forestcarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

forestcarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with forestcarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package forestcarbonutil holds the command-line interface and
// configuration handling for forestcarbon.
package forestcarbonutil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/forestcarbon"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	analysisFlags := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{runCmd.Flags(), zonesCmd.Flags(), filterCmd.Flags()}
	}

	// Options are the configuration options available to forestcarbon.
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
			name: "DataDir",
			usage: `
              DataDir is the directory or blob storage URL (e.g.,
              gs://bucket/data) holding the input grids, ecoregion shapefile
              and name lists. Input names in the other options are relative
              to it.`,
			shorthand:  "d",
			defaultVal: ".",
			flagsets:   analysisFlags(),
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory or blob storage URL where outputs are
              saved. If empty, outputs are saved in DataDir.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   analysisFlags(),
		},
		{
			name: "OutputFormat",
			usage: `
              OutputFormat is the file format that output grids are saved in.
              Options are ".nc" (netCDF) and ".asc" (Esri ASCII).`,
			defaultVal: ".nc",
			flagsets:   analysisFlags(),
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the desired logfile location. The
              default is the output directory plus "forestcarbon_[label].log".`,
			defaultVal: "",
			flagsets:   analysisFlags(),
		},
		{
			name: "Percentile",
			usage: `
              Percentile is the within-zone carbon density percentile, in the
              range [0, 100], that a forest cell must exceed to be
              considered high priority.`,
			shorthand:  "p",
			defaultVal: 90.0,
			flagsets:   analysisFlags(),
		},
		{
			name: "Interpolation",
			usage: `
              Interpolation is the percentile interpolation method. Options are
              AUTO_DETECT (NEAREST for categorical carbon grids and LINEAR
              otherwise), NEAREST and LINEAR.`,
			defaultVal: "AUTO_DETECT",
			flagsets:   analysisFlags(),
		},
		{
			name: "CarbonSource",
			usage: `
              CarbonSource is the carbon pool to evaluate. Options are
              aboveground, belowground and combined.`,
			defaultVal: string(forestcarbon.Aboveground),
			flagsets:   analysisFlags(),
		},
		{
			name: "ForestRemap",
			usage: `
              ForestRemap collapses forest structure classes into forest
              classes, in the format "old new;old new". Values that are not
              listed become nodata.`,
			defaultVal: forestcarbon.DefaultForestRemap.String(),
			flagsets:   analysisFlags(),
		},
		{
			name: "AbovegroundCarbon",
			usage: `
              AbovegroundCarbon is the name of the aboveground carbon density
              grid.`,
			defaultVal: "aboveground_carbon",
			flagsets:   analysisFlags(),
		},
		{
			name: "BelowgroundCarbon",
			usage: `
              BelowgroundCarbon is the name of the belowground carbon density
              grid.`,
			defaultVal: "belowground_carbon",
			flagsets:   analysisFlags(),
		},
		{
			name: "Forest",
			usage: `
              Forest is the name of the forest structure class grid. It sets the
              geometry of the zones and of the outputs.`,
			defaultVal: "forest_structure",
			flagsets:   analysisFlags(),
		},
		{
			name: "Ecoregions",
			usage: `
              Ecoregions is the name of the ecoregion shapefile. It must have
              ECO_NAME and BIOME_NAME attributes.`,
			defaultVal: "ecoregions",
			flagsets:   analysisFlags(),
		},
		{
			name: "GridProj",
			usage: `
              GridProj gives projection info for the grids in proj4 format.
              If set, the ecoregions are projected to it when they are loaded.`,
			defaultVal: "",
			flagsets:   analysisFlags(),
		},
		{
			name: "Filter",
			usage: `
              Filter specifies whether to additionally filter the high priority
              forest carbon to the included biomes and to the ecoregions of
              interest holding more carbon than the median ecoregion of
              interest.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "HighPriority",
			usage: `
              HighPriority is the name of an existing high priority forest
              carbon grid to filter. The default is the output of an earlier
              run with the same label.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "BiomesToInclude",
			usage: `
              BiomesToInclude lists the biomes whose ecoregions are always kept
              by the filter.`,
			defaultVal: forestcarbon.DefaultBiomes,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "EcoregionsOfInterest",
			usage: `
              EcoregionsOfInterest is the name of the CSV file listing the
              candidate ecoregions for the filter, in an ECO_NAME column or
              in the first column.`,
			defaultVal: "ecoregions_of_interest",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "TotalCarbon",
			usage: `
              TotalCarbon is the name of a grid of total carbon per cell on an
              equal-area grid, used to rank the ecoregions of interest. If it
              is empty, totals are calculated from the carbon density in each
              forest cell and CellArea.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "CellArea",
			usage: `
              CellArea is the area of each forest cell, used to convert carbon
              density to total carbon when TotalCarbon is not set.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "ClipMask",
			usage: `
              ClipMask is the path to a GeoJSON polygon. If set, the inputs are
              clipped to it and "_subset" is added to the output names, which is
              useful for testing on a small area.`,
			defaultVal: "",
			flagsets:   analysisFlags(),
		},
		{
			name: "VersionLabel",
			usage: `
              VersionLabel is added to the output names. The default is
              "[Percentile]th_percentile_[CarbonSource]".`,
			defaultVal: "",
			flagsets:   analysisFlags(),
		},
		{
			name: "SaveIntermediate",
			usage: `
              SaveIntermediate specifies whether to save the intermediate grids:
              the clipped carbon, the reclassified forest, the zones, the
              zone thresholds and the carbon in each forest cell.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "CacheSize",
			usage: `
              CacheSize is the number of loaded input files kept in memory.`,
			defaultVal: 20,
			flagsets:   analysisFlags(),
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("FORESTCARBON")

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
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
	Cfg.AutomaticEnv()
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(zonesCmd)
	Root.AddCommand(filterCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("forestcarbon: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "forestcarbon",
	Short: "Identify high priority forest carbon.",
	Long: `forestcarbon identifies forest cells whose carbon density is greater than
a chosen percentile of the carbon density of forest of the same structural class
in the same ecoregion, and optionally filters them to the ecoregions that hold
the most carbon.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FORESTCARBON_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of forestcarbon.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("forestcarbon v%s\n", forestcarbon.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Identify high priority forest carbon.",
	Long: `run calculates the within-zone carbon density thresholds, selects the
forest cells whose carbon density exceeds them and saves the result as
high_priority_forest_carbon_[label]. If --Filter is set, the result is also
filtered by ecoregion and biome and saved as
high_priority_forest_carbon_filtered_[label].`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runFromConfig(cmd, nil, func(c *forestcarbon.Config) {})
		return err
	},
	DisableAutoGenTag: true,
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Create the ecoregion and forest class zones.",
	Long: `zones reclassifies the forest grid, combines it with the rasterized
ecoregions and saves the resulting zone grid and the intermediate grids
without calculating thresholds. The zone table, which gives the ecoregion
and forest class of each zone, is written to the run report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runFromConfig(cmd, forestcarbon.ZoneStages(), func(c *forestcarbon.Config) {
			c.Filter = false
			c.SaveIntermediate = true
		})
		return err
	},
	DisableAutoGenTag: true,
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter high priority forest carbon by ecoregion and biome.",
	Long: `filter keeps the high priority forest carbon in the included biomes and in
the ecoregions of interest that hold more total carbon than the median
ecoregion of interest, and saves the result as
high_priority_forest_carbon_filtered_[label]. The high priority grid is read
from --HighPriority or, if that is empty, from the output of an earlier 'run'
with the same label. If --TotalCarbon is empty, the earlier run must have been
made with --SaveIntermediate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runFromConfig(cmd, forestcarbon.FilterStages(), func(c *forestcarbon.Config) { c.Filter = true })
		return err
	},
	DisableAutoGenTag: true,
}

// runFromConfig reads the configuration from Cfg, applies modify to it, and
// runs the given stages.
func runFromConfig(cmd *cobra.Command, stages []forestcarbon.Stage, modify func(*forestcarbon.Config)) (*forestcarbon.Result, error) {
	ctx := context.Background()
	log := logrus.StandardLogger()

	dataDir, err := checkDataDir(Cfg.GetString("DataDir"))
	if err != nil {
		return nil, err
	}
	outputDir, err := checkOutputDir(Cfg.GetString("OutputDir"), dataDir)
	if err != nil {
		return nil, err
	}
	maskFile, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("ClipMask")), log)
	if err != nil {
		return nil, err
	}
	sr, err := gridProj(Cfg)
	if err != nil {
		return nil, err
	}
	c, err := PipelineConfig(Cfg, maskFile)
	if err != nil {
		return nil, err
	}
	modify(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	format, err := checkOutputFormat(Cfg.GetString("OutputFormat"))
	if err != nil {
		return nil, err
	}
	return Run(cmd, RunConfig{
		DataDir:      dataDir,
		OutputDir:    outputDir,
		OutputFormat: format,
		LogFile:      checkLogFile(Cfg.GetString("LogFile"), outputDir, c.Label()),
		GridProj:     sr,
		CacheSize:    Cfg.GetInt("CacheSize"),
	}, c, stages)
}
