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

package forestcarbonutil

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/forestcarbon"
	"github.com/spatialmodel/forestcarbon/cloud"
	"github.com/spf13/cast"
)

// PipelineConfig creates a new forestcarbon.Config from the given
// configuration. maskFile is the local path of the clip mask, if any.
func PipelineConfig(cfg *viper.Viper, maskFile string) (*forestcarbon.Config, error) {
	interp, err := forestcarbon.ParseInterpolation(os.ExpandEnv(cfg.GetString("Interpolation")))
	if err != nil {
		return nil, err
	}
	source, err := forestcarbon.ParseCarbonSource(os.ExpandEnv(cfg.GetString("CarbonSource")))
	if err != nil {
		return nil, err
	}
	remap, err := forestRemap(cfg)
	if err != nil {
		return nil, err
	}
	percentile, err := cast.ToFloat64E(cfg.Get("Percentile"))
	if err != nil {
		return nil, fmt.Errorf("forestcarbonutil: invalid Percentile: %v", err)
	}
	cellArea, err := cast.ToFloat64E(cfg.Get("CellArea"))
	if err != nil {
		return nil, fmt.Errorf("forestcarbonutil: invalid CellArea: %v", err)
	}
	c := &forestcarbon.Config{
		Percentile:           percentile,
		Interpolation:        interp,
		CarbonSource:         source,
		ForestRemap:          remap,
		AbovegroundGrid:      os.ExpandEnv(cfg.GetString("AbovegroundCarbon")),
		BelowgroundGrid:      os.ExpandEnv(cfg.GetString("BelowgroundCarbon")),
		ForestGrid:           os.ExpandEnv(cfg.GetString("Forest")),
		RegionSet:            os.ExpandEnv(cfg.GetString("Ecoregions")),
		Filter:               cfg.GetBool("Filter"),
		BiomesToInclude:      expandStringSlice(cfg.GetStringSlice("BiomesToInclude")),
		EcoregionsOfInterest: os.ExpandEnv(cfg.GetString("EcoregionsOfInterest")),
		TotalCarbonGrid:      os.ExpandEnv(cfg.GetString("TotalCarbon")),
		CellArea:             cellArea,
		VersionLabel:         os.ExpandEnv(cfg.GetString("VersionLabel")),
		SaveIntermediate:     cfg.GetBool("SaveIntermediate"),
		HighPriorityGrid:     os.ExpandEnv(cfg.GetString("HighPriority")),
	}
	if maskFile != "" {
		mask, err := parseMask(maskFile)
		if err != nil {
			return nil, err
		}
		c.ClipMask = mask
	}
	return c, c.Validate()
}

// forestRemap returns the forest remap table, which may be specified
// either as a string in the format "1 1;2 1;3 1" or as a table mapping
// old values to new values.
func forestRemap(cfg *viper.Viper) (forestcarbon.RemapTable, error) {
	switch v := cfg.Get("ForestRemap").(type) {
	case nil:
		return forestcarbon.DefaultForestRemap, nil
	case string:
		if v == "" {
			return forestcarbon.DefaultForestRemap, nil
		}
		return forestcarbon.ParseRemap(os.ExpandEnv(v))
	default:
		m := GetStringMapString("ForestRemap", cfg)
		t := make(forestcarbon.RemapTable)
		for k, val := range m {
			from, err := cast.ToIntE(strings.TrimSpace(k))
			if err != nil {
				return nil, fmt.Errorf("forestcarbonutil: invalid ForestRemap key %q: %v", k, err)
			}
			to, err := cast.ToIntE(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("forestcarbonutil: invalid ForestRemap value %q: %v", val, err)
			}
			t[from] = to
		}
		if len(t) == 0 {
			return nil, fmt.Errorf("forestcarbonutil: ForestRemap is empty")
		}
		return t, nil
	}
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		return cast.ToStringMapString(v)
	default:
		return cast.ToStringMapString(cast.ToStringMap(v))
	}
}

// expandStringSlice expands environment variables in each element of s.
func expandStringSlice(s []string) []string {
	o := make([]string, len(s))
	for i, ss := range s {
		o[i] = os.ExpandEnv(strings.TrimSpace(ss))
	}
	return o
}

// gridProj returns the spatial reference that region sets are projected
// to, or nil if GridProj is not set.
func gridProj(cfg *viper.Viper) (*proj.SR, error) {
	p := os.ExpandEnv(cfg.GetString("GridProj"))
	if p == "" {
		return nil, nil
	}
	sr, err := proj.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("forestcarbonutil: parsing GridProj: %v", err)
	}
	return sr, nil
}

// checkDataDir makes sure that the data directory is specified and
// exists, and expands any environment variables.
func checkDataDir(d string) (string, error) {
	if d == "" {
		return "", fmt.Errorf("forestcarbonutil: you need to specify the DataDir configuration variable")
	}
	d = os.ExpandEnv(d)
	if cloud.IsBlob(d) {
		return d, nil
	}
	if _, err := os.Stat(d); err != nil {
		return d, fmt.Errorf("forestcarbonutil: the DataDir directory doesn't exist: %v", err)
	}
	return d, nil
}

// checkOutputDir expands any environment variables in the output
// directory and creates it if it is a local directory that doesn't exist.
// If it is empty, the data directory is used.
func checkOutputDir(d, dataDir string) (string, error) {
	if d == "" {
		return dataDir, nil
	}
	d = os.ExpandEnv(d)
	if cloud.IsBlob(d) {
		return d, nil
	}
	if err := os.MkdirAll(d, os.ModePerm); err != nil {
		return d, fmt.Errorf("forestcarbonutil: creating OutputDir: %v", err)
	}
	return d, nil
}

// checkOutputFormat makes sure that grids can be saved in format f.
func checkOutputFormat(f string) (string, error) {
	f = strings.ToLower(os.ExpandEnv(f))
	if f != "" && !strings.HasPrefix(f, ".") {
		f = "." + f
	}
	switch f {
	case "", ".nc", ".asc":
		return f, nil
	default:
		return f, fmt.Errorf("forestcarbonutil: OutputFormat needs to be .nc or .asc, but is currently set to `%s`", f)
	}
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputDir, label string) string {
	if logFile == "" {
		logFile = joinLocation(outputDir, "forestcarbon_"+label+".log")
	}
	return os.ExpandEnv(logFile)
}

// joinLocation joins a file name to a directory or blob storage URL.
func joinLocation(dir, name string) string {
	if cloud.IsBlob(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + path.Clean(name)
	}
	return filepath.Join(dir, name)
}

// parseMask returns a mask polygon represented by the
// given GeoJSON file.
func parseMask(maskGeoJSONFile string) (geom.Polygon, error) {
	var mask geom.Polygon
	if m := maskGeoJSONFile; m != "" {
		f, err := os.Open(os.ExpandEnv(m))
		if err != nil {
			return nil, fmt.Errorf("opening clip mask file: %w", err)
		}
		defer f.Close()
		b, err := ioutil.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading clip mask file: %w", err)
		}
		j, err := geojson.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("decoding ClipMask: %w", err)
		}
		switch msk := j.(type) {
		case geom.Polygon:
			mask = msk
		case geom.MultiPolygon:
			for _, p := range msk {
				mask = append(mask, p...)
			}
		default:
			return nil, fmt.Errorf("invalid clip mask geometry type %T", j)
		}
	}
	return mask, nil
}
