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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/forestcarbon"
)

func TestParseMask(t *testing.T) {
	t.Run("polygon", func(t *testing.T) {
		f, err := os.Create("tmp_mask.json")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove("tmp_mask.json")
		fmt.Fprint(f, `{"type": "Polygon","coordinates": [ [ [0, 0], [1, 0], [1, 1], [0, 0] ] ] }`)
		f.Close()
		mask, err := parseMask("tmp_mask.json")
		if err != nil {
			t.Fatal(err)
		}
		want := geom.Polygon{geom.Path{geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}, geom.Point{X: 1, Y: 1}, geom.Point{X: 0, Y: 0}}}
		if !reflect.DeepEqual(mask, want) {
			t.Errorf("%v != %v", mask, want)
		}
	})
	t.Run("multipolygon", func(t *testing.T) {
		f, err := os.Create("tmp_mask.json")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove("tmp_mask.json")
		fmt.Fprint(f, `{"type": "MultiPolygon","coordinates": [ [ [ [0, 0], [1, 0], [1, 1], [0, 0] ] ], [ [ [2, 2], [3, 2], [3, 3], [2, 2] ] ] ] }`)
		f.Close()
		mask, err := parseMask("tmp_mask.json")
		if err != nil {
			t.Fatal(err)
		}
		want := geom.Polygon{
			geom.Path{geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}, geom.Point{X: 1, Y: 1}, geom.Point{X: 0, Y: 0}},
			geom.Path{geom.Point{X: 2, Y: 2}, geom.Point{X: 3, Y: 2}, geom.Point{X: 3, Y: 3}, geom.Point{X: 2, Y: 2}},
		}
		if !reflect.DeepEqual(mask, want) {
			t.Errorf("%v != %v", mask, want)
		}
	})
	t.Run("point", func(t *testing.T) {
		f, err := os.Create("tmp_mask.json")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove("tmp_mask.json")
		fmt.Fprint(f, `{"type": "Point","coordinates": [0, 0] }`)
		f.Close()
		if _, err := parseMask("tmp_mask.json"); err == nil {
			t.Error("a point mask should fail")
		}
	})
}

func TestPipelineConfig(t *testing.T) {
	os.Setenv("FC_TEST_INPUTS", "inputs")
	defer os.Unsetenv("FC_TEST_INPUTS")

	cfg := viper.New()
	cfg.Set("Percentile", "95")
	cfg.Set("Interpolation", "LINEAR")
	cfg.Set("CarbonSource", "combined")
	cfg.Set("ForestRemap", map[string]interface{}{"1": int64(1), "2": int64(1), " 5": "2"})
	cfg.Set("AbovegroundCarbon", "${FC_TEST_INPUTS}/agb")
	cfg.Set("BelowgroundCarbon", "bgb")
	cfg.Set("Forest", "forest")
	cfg.Set("Ecoregions", "ecoregions")
	cfg.Set("Filter", true)
	cfg.Set("BiomesToInclude", []string{"Mangroves", " Tundra"})
	cfg.Set("EcoregionsOfInterest", "eoi")
	cfg.Set("CellArea", 2.5)
	cfg.Set("VersionLabel", "test")

	c, err := PipelineConfig(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	want := &forestcarbon.Config{
		Percentile:           95,
		Interpolation:        forestcarbon.Linear,
		CarbonSource:         forestcarbon.Combined,
		ForestRemap:          forestcarbon.RemapTable{1: 1, 2: 1, 5: 2},
		AbovegroundGrid:      "inputs/agb",
		BelowgroundGrid:      "bgb",
		ForestGrid:           "forest",
		RegionSet:            "ecoregions",
		Filter:               true,
		BiomesToInclude:      []string{"Mangroves", "Tundra"},
		EcoregionsOfInterest: "eoi",
		CellArea:             2.5,
		VersionLabel:         "test",
	}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("config mismatch: %v", pretty.Diff(c, want))
	}

	cfg.Set("ForestRemap", "1 2;3 4")
	c, err = PipelineConfig(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.ForestRemap, forestcarbon.RemapTable{1: 2, 3: 4}) {
		t.Errorf("string remap: have %v", c.ForestRemap)
	}

	for name, val := range map[string]interface{}{
		"Percentile":    "high",
		"Interpolation": "cubic",
		"CarbonSource":  "soil",
		"ForestRemap":   map[string]interface{}{"a": 1},
	} {
		bad := viper.New()
		for _, k := range cfg.AllKeys() {
			bad.Set(k, cfg.Get(k))
		}
		bad.Set(name, val)
		if _, err := PipelineConfig(bad, ""); err == nil {
			t.Errorf("invalid %s should fail", name)
		}
	}
}

func TestConfigExample(t *testing.T) {
	cfg := viper.New()
	cfg.SetConfigFile("../cmd/forestcarbon/configExample.toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := PipelineConfig(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.ForestRemap, forestcarbon.DefaultForestRemap) {
		t.Errorf("remap: have %v, want %v", c.ForestRemap, forestcarbon.DefaultForestRemap)
	}
	if !reflect.DeepEqual(c.BiomesToInclude, forestcarbon.DefaultBiomes) {
		t.Errorf("biomes: have %v, want %v", c.BiomesToInclude, forestcarbon.DefaultBiomes)
	}
	if l := c.Label(); l != "90th_percentile_aboveground" {
		t.Errorf("label: have %s", l)
	}
	sr, err := gridProj(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sr == nil {
		t.Error("GridProj should be set")
	}
}

func TestCheckOutputFormat(t *testing.T) {
	for in, want := range map[string]string{
		"":     "",
		".nc":  ".nc",
		"asc":  ".asc",
		".ASC": ".asc",
	} {
		have, err := checkOutputFormat(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
		}
		if have != want {
			t.Errorf("%q: have %q, want %q", in, have, want)
		}
	}
	if _, err := checkOutputFormat(".tif"); err == nil {
		t.Error(".tif should fail")
	}
}

func TestJoinLocation(t *testing.T) {
	if have, want := joinLocation("gs://bucket/out/", "a.nc"), "gs://bucket/out/a.nc"; have != want {
		t.Errorf("have %s, want %s", have, want)
	}
	if have, want := joinLocation("out", "a.nc"), filepath.Join("out", "a.nc"); have != want {
		t.Errorf("have %s, want %s", have, want)
	}
	if have, want := checkLogFile("", "s3://b", "v1"), "s3://b/forestcarbon_v1.log"; have != want {
		t.Errorf("have %s, want %s", have, want)
	}
}

func TestCheckDirs(t *testing.T) {
	if _, err := checkDataDir(""); err == nil {
		t.Error("an empty DataDir should fail")
	}
	if _, err := checkDataDir("/does/not/exist"); err == nil {
		t.Error("a missing DataDir should fail")
	}
	if d, err := checkDataDir("gs://bucket/data"); err != nil || d != "gs://bucket/data" {
		t.Errorf("have %s %v", d, err)
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "a", "b")
	if _, err := checkOutputDir(out, dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output directory should be created: %v", err)
	}
	if d, _ := checkOutputDir("", dir); d != dir {
		t.Errorf("have %s, want %s", d, dir)
	}
}
