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

// Align returns a version of in that is co-registered to ref. Each output
// cell takes the value of the input cell containing its center
// (nearest-cell-center sampling); output cells whose centers fall outside
// of in are nodata. No averaging is performed, for either categorical or
// continuous inputs. A *MisalignedGridError is returned if the extents of
// ref and in do not overlap.
func Align(ref Geometry, in *Grid) (*Grid, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if in.Geometry.Equal(ref) {
		return in, nil
	}
	if !overlaps(ref, in.Geometry) {
		return nil, &MisalignedGridError{
			Op: "align", Want: ref, Have: in.Geometry, Index: 1,
			Reason: "extents do not overlap",
		}
	}
	o := NewGrid(ref, in.NoData, in.Categorical)
	for iy := 0; iy < ref.Ny; iy++ {
		for ix := 0; ix < ref.Nx; ix++ {
			sy, sx, ok := in.Locate(ref.CellCenter(iy, ix))
			if !ok {
				continue
			}
			o.Data.Elements[iy*ref.Nx+ix] = in.Get(sy, sx)
		}
	}
	return o, nil
}

// overlaps returns whether the extents of a and b share a region of
// positive area.
func overlaps(a, b Geometry) bool {
	ab, bb := a.Bounds(), b.Bounds()
	return ab.Min.X < bb.Max.X && bb.Min.X < ab.Max.X &&
		ab.Min.Y < bb.Max.Y && bb.Min.Y < ab.Max.Y
}
