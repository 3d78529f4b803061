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

// SelectAbove returns a grid holding the cells of values that are strictly
// greater than the corresponding cell of thresholds. All other cells,
// including cells where either input is nodata, are nodata. The two grids
// must be co-registered.
func SelectAbove(values, thresholds *Grid) (*Grid, error) {
	if err := CheckAligned("select above threshold", values, thresholds); err != nil {
		return nil, err
	}
	o := values.like(values.Categorical)
	for i, v := range values.Data.Elements {
		t := thresholds.Data.Elements[i]
		if values.isData(v) && thresholds.isData(t) && v > t {
			o.Data.Elements[i] = v
		}
	}
	return o, nil
}

// SelectAboveZones is like SelectAbove, but the threshold for each cell is
// looked up in table using the cell's zone.
func SelectAboveZones(values *Grid, zones *ZoneGrid, table ZoneValues) (*Grid, error) {
	if err := CheckAligned("select above threshold", values, zones.Grid); err != nil {
		return nil, err
	}
	return SelectAbove(values, table.Broadcast(zones.Grid))
}
