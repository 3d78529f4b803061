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
	"github.com/ctessum/geom"
)

// Plus returns the cell-by-cell sum of two co-registered grids. Cells
// where either input is nodata are nodata.
func Plus(a, b *Grid) (*Grid, error) {
	if err := CheckAligned("plus", a, b); err != nil {
		return nil, err
	}
	o := a.like(false)
	for i, va := range a.Data.Elements {
		vb := b.Data.Elements[i]
		if a.isData(va) && b.isData(vb) {
			o.Data.Elements[i] = va + vb
		}
	}
	return o, nil
}

// Scale returns a copy of in with every valid cell multiplied by f.
func Scale(in *Grid, f float64) *Grid {
	o := in.like(false)
	for i, v := range in.Data.Elements {
		if in.isData(v) {
			o.Data.Elements[i] = v * f
		}
	}
	return o
}

// ExtractByMask returns a copy of values keeping only the cells whose
// centers fall on a valid cell of mask. mask may have a different
// geometry than values.
func ExtractByMask(values, mask *Grid) (*Grid, error) {
	m, err := Align(values.Geometry, mask)
	if err != nil {
		return nil, err
	}
	o := values.like(values.Categorical)
	for i, v := range values.Data.Elements {
		if values.isData(v) && m.isData(m.Data.Elements[i]) {
			o.Data.Elements[i] = v
		}
	}
	return o, nil
}

// ExtractByPolygon returns a copy of in keeping only the cells whose
// centers fall within p.
func ExtractByPolygon(in *Grid, p geom.Polygonal) *Grid {
	return MaskRegions(in, []Region{{Polygonal: p}})
}
