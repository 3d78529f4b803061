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

package gridstore

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spatialmodel/forestcarbon"
)

func TestNetCDFRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for i, categorical := range []bool{true, false} {
		g := testGrid(t, forestcarbon.Geometry{X0: 500, Y0: -300, Dx: 30, Dy: 20}, categorical, [][]float64{
			{1, 2, nd, 4},
			{5, 6, 7, 8},
			{9, nd, 11, 12},
		})
		path := filepath.Join(dir, []string{"a.nc", "b.nc"}[i])
		if err := writeNetCDF(path, g); err != nil {
			t.Fatal(err)
		}
		have, err := readNetCDF(path)
		if err != nil {
			t.Fatal(err)
		}
		if have.Geometry != g.Geometry {
			t.Errorf("geometry: have %v, want %v", have.Geometry, g.Geometry)
		}
		if have.NoData != g.NoData || have.Categorical != g.Categorical {
			t.Errorf("have nodata=%g categorical=%v", have.NoData, have.Categorical)
		}
		if !reflect.DeepEqual(have.Rows(), g.Rows()) {
			t.Errorf("have %v, want %v", have.Rows(), g.Rows())
		}
	}
}
