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

package forestcarbon

import (
	"fmt"
	"math"
)

// UniqueCellIDs returns a categorical grid where every valid cell of ref
// holds a unique positive id. Ids are assigned densely in row-major order.
func UniqueCellIDs(ref *Grid) *Grid {
	o := NewGrid(ref.Geometry, DefaultNoData, true)
	id := 0
	for i, v := range ref.Data.Elements {
		if ref.isData(v) {
			id++
			o.Data.Elements[i] = float64(id)
		}
	}
	return o
}

// FootprintMean computes, for every valid cell of ref, the mean of the
// valid cells of values that lie within the cell's footprint. The result
// has the geometry of ref; reference cells whose footprint holds no valid
// values are nodata. values must be nested within ref: its cell size must
// evenly divide the cell size of ref and its cells must snap to the cell
// edges of ref.
func FootprintMean(ref, values *Grid) (*Grid, error) {
	if err := checkNested(ref.Geometry, values.Geometry); err != nil {
		return nil, err
	}
	ids := UniqueCellIDs(ref)

	// Every fine cell inherits the id of the reference cell containing it.
	fineIDs, err := Align(values.Geometry, ids)
	if err != nil {
		return nil, err
	}
	means, _, err := Zonal(fineIDs, values, Statistic{Type: Mean, IgnoreNoData: true})
	if err != nil {
		return nil, err
	}
	return means.Broadcast(ids), nil
}

// checkNested returns a *MisalignedGridError if the cells of fine do not
// nest within the cells of coarse.
func checkNested(coarse, fine Geometry) error {
	if err := coarse.Validate(); err != nil {
		return err
	}
	if err := fine.Validate(); err != nil {
		return err
	}
	fail := func(reason string) error {
		return &MisalignedGridError{Op: "footprint mean", Want: coarse, Have: fine, Index: 1, Reason: reason}
	}
	if !isWhole(coarse.Dx/fine.Dx) || !isWhole(coarse.Dy/fine.Dy) {
		return fail(fmt.Sprintf("cell size %gx%g does not evenly divide %gx%g", fine.Dx, fine.Dy, coarse.Dx, coarse.Dy))
	}
	if !isInteger((fine.X0-coarse.X0)/fine.Dx) || !isInteger((fine.Y0-coarse.Y0)/fine.Dy) {
		return fail("origins are not snapped to a common cell edge")
	}
	if !overlaps(coarse, fine) {
		return fail("extents do not overlap")
	}
	return nil
}

func isInteger(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1.e-6
}

func isWhole(v float64) bool {
	return v >= 1-1.e-6 && isInteger(v)
}
