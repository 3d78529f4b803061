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
	"encoding/binary"
	"fmt"
	"sort"
)

// ZoneTable maps each zone id to the tuple of input category values that
// produced it.
type ZoneTable map[int][]int

// IDs returns the zone ids in ascending order.
func (t ZoneTable) IDs() []int {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ZoneGrid is a categorical grid of zone ids together with the table
// describing each zone. Zone ids are only meaningful within a single
// Combine call.
type ZoneGrid struct {
	*Grid
	Table ZoneTable
}

// Lookup returns the input tuple that produced zone id.
func (z *ZoneGrid) Lookup(id int) ([]int, bool) {
	t, ok := z.Table[id]
	return t, ok
}

// Combine fuses two or more co-registered categorical grids into a single
// zone grid with one id for each unique tuple of input values. A cell is
// nodata if any input is nodata there. Ids are positive integers assigned
// in row-major order of first appearance.
func Combine(grids ...*Grid) (*ZoneGrid, error) {
	if len(grids) < 2 {
		return nil, fmt.Errorf("forestcarbon: combine requires at least two grids but got %d", len(grids))
	}
	return combine(grids, nil)
}

// combine does the work of Combine, visiting cells in the given order
// (row-major if order is nil).
func combine(grids []*Grid, order []int) (*ZoneGrid, error) {
	if err := CheckAligned("combine", grids...); err != nil {
		return nil, err
	}
	g0 := grids[0]
	o := &ZoneGrid{
		Grid:  NewGrid(g0.Geometry, DefaultNoData, true),
		Table: make(ZoneTable),
	}
	ids := make(map[string]int)
	tuple := make([]int, len(grids))
	key := make([]byte, 8*len(grids))

	visit := func(i int) error {
		for j, g := range grids {
			v := g.Data.Elements[i]
			if !g.isData(v) {
				return nil
			}
			c, ok := category(v)
			if !ok {
				return fmt.Errorf("forestcarbon: combine: grid %d has non-integer value %g at cell %d", j, v, i)
			}
			tuple[j] = c
			binary.LittleEndian.PutUint64(key[8*j:], uint64(int64(c)))
		}
		id, ok := ids[string(key)]
		if !ok {
			id = len(ids) + 1
			ids[string(key)] = id
			o.Table[id] = append([]int(nil), tuple...)
		}
		o.Data.Elements[i] = float64(id)
		return nil
	}

	if order == nil {
		for i := 0; i < g0.Len(); i++ {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	} else {
		for _, i := range order {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}
