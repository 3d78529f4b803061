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
	"github.com/ctessum/geom/index/rtree"
)

// Region is a named polygon, such as an ecoregion, together with the name
// of the biome it belongs to.
type Region struct {
	geom.Polygonal
	Name  string // ECO_NAME
	Biome string // BIOME_NAME
}

// regionEntry is a region stored in a spatial index.
type regionEntry struct {
	geom.Polygonal
	index int
}

// regionIndex finds the regions containing a point.
type regionIndex struct {
	tree *rtree.Rtree
}

func newRegionIndex(regions []Region) *regionIndex {
	tree := rtree.NewTree(25, 50)
	for i, r := range regions {
		if r.Polygonal == nil {
			continue
		}
		tree.Insert(&regionEntry{Polygonal: r.Polygonal, index: i})
	}
	return &regionIndex{tree: tree}
}

// first returns the lowest index of the regions containing p, or -1 if no
// region contains p. Points on a region edge are considered inside.
func (ri *regionIndex) first(p geom.Point) int {
	o := -1
	for _, c := range ri.tree.SearchIntersect(p.Bounds()) {
		e := c.(*regionEntry)
		if o >= 0 && e.index > o {
			continue
		}
		if p.Within(e.Polygonal) != geom.Outside {
			o = e.index
		}
	}
	return o
}

// RasterizeRegions converts regions to a categorical grid with geometry g,
// using the cell-center rule: a cell belongs to the first region (in input
// order) whose polygon contains the cell center. Regions sharing the same
// key form one zone. Cell value k (k ≥ 1) identifies keys[k-1]; cells not
// covered by any region are nodata.
func RasterizeRegions(regions []Region, g Geometry, key func(Region) string) (o *Grid, keys []string, err error) {
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	ids := make([]int, len(regions))
	keyIDs := make(map[string]int)
	for i, r := range regions {
		k := key(r)
		id, ok := keyIDs[k]
		if !ok {
			keys = append(keys, k)
			id = len(keys)
			keyIDs[k] = id
		}
		ids[i] = id
	}
	o = NewGrid(g, DefaultNoData, true)
	idx := newRegionIndex(regions)
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			if r := idx.first(g.CellCenter(iy, ix)); r >= 0 {
				o.Data.Elements[iy*g.Nx+ix] = float64(ids[r])
			}
		}
	}
	return o, keys, nil
}

// RegionName returns the name of a region, for use with RasterizeRegions.
func RegionName(r Region) string { return r.Name }

// RegionBiome returns the biome of a region, for use with RasterizeRegions.
func RegionBiome(r Region) string { return r.Biome }

// MaskRegions returns a copy of in where cells whose centers do not fall
// within any of the regions are nodata.
func MaskRegions(in *Grid, regions []Region) *Grid {
	o := in.like(in.Categorical)
	idx := newRegionIndex(regions)
	for iy := 0; iy < in.Ny; iy++ {
		for ix := 0; ix < in.Nx; ix++ {
			i := iy*in.Nx + ix
			v := in.Data.Elements[i]
			if !in.isData(v) {
				continue
			}
			if idx.first(in.CellCenter(iy, ix)) >= 0 {
				o.Data.Elements[i] = v
			}
		}
	}
	return o
}
