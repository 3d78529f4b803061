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
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/spatialmodel/forestcarbon"
	"github.com/spf13/cobra"
)

func TestRunFailureCleanup(t *testing.T) {
	tmp := t.TempDir()
	oldTmp := os.Getenv("TMPDIR")
	os.Setenv("TMPDIR", tmp)
	defer os.Setenv("TMPDIR", oldTmp)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOutput(&out)
	rc := RunConfig{
		DataDir:   "mem://data",
		OutputDir: "mem://out",
		LogFile:   "mem://out/forestcarbon_test.log",
	}
	cfg := &forestcarbon.Config{
		Percentile:      50,
		CarbonSource:    forestcarbon.Aboveground,
		ForestRemap:     forestcarbon.DefaultForestRemap,
		AbovegroundGrid: "agb",
		ForestGrid:      "forest",
		RegionSet:       "ecoregions",
	}
	_, err := Run(cmd, rc, cfg, nil)
	var mi *forestcarbon.MissingInputError
	if !errors.As(err, &mi) {
		t.Fatalf("have %v, want *MissingInputError", err)
	}
	if !strings.Contains(out.String(), "run failed") {
		t.Errorf("the failure was not logged: %s", out.String())
	}
	left, err := ioutil.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		var names []string
		for _, f := range left {
			names = append(names, f.Name())
		}
		t.Errorf("temporary files were left behind: %v", names)
	}
}
