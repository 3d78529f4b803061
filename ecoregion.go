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
	"sort"
)

// FilterInput holds the inputs to FilterEcoregions.
type FilterInput struct {
	// HighPriority is the grid to be filtered.
	HighPriority *Grid

	// Totals holds absolute carbon quantities per cell (e.g., Mg C), as
	// opposed to densities, so that sums over regions are meaningful.
	Totals *Grid

	// Regions are the ecoregion polygons.
	Regions []Region

	// EcoregionsOfInterest are the names of the candidate ecoregions.
	EcoregionsOfInterest []string

	// BiomesToInclude are the names of biomes whose ecoregions are
	// always included.
	BiomesToInclude []string
}

// FilterResult is the output of FilterEcoregions.
type FilterResult struct {
	// Sums holds the total carbon in each matched ecoregion of interest.
	Sums map[string]float64

	// Median is the median of Sums.
	Median float64

	// Selected are the ecoregions of interest whose sum is greater than
	// Median, in the order they were listed.
	Selected []string

	// Mask holds the union of the selected ecoregions and the ecoregions
	// in the included biomes.
	Mask []Region

	// Grid is the filtered high priority grid.
	Grid *Grid

	// Warnings holds an *UnmatchedRegionNameWarning for each ecoregion of
	// interest that does not match a region.
	Warnings []error
}

// FilterEcoregions restricts a high priority grid to ecoregions that either
// belong to one of the included biomes or are ecoregions of interest
// holding more total carbon than the median ecoregion of interest.
// Ecoregions of interest that overlap no cells have a sum of zero. Names
// that match no region are reported as warnings and left out of the
// median. An *UndefinedMedianError is returned if no ecoregion of interest
// matches a region.
func FilterEcoregions(in FilterInput) (*FilterResult, error) {
	if len(in.EcoregionsOfInterest) == 0 {
		return nil, &UndefinedMedianError{Reason: "the list of ecoregions of interest is empty"}
	}
	o := &FilterResult{Sums: make(map[string]float64)}

	byName := make(map[string][]Region)
	for _, r := range in.Regions {
		byName[r.Name] = append(byName[r.Name], r)
	}

	var names []string
	var candidates []Region
	seen := make(map[string]bool)
	for _, name := range in.EcoregionsOfInterest {
		if seen[name] {
			continue
		}
		seen[name] = true
		rs, ok := byName[name]
		if !ok {
			o.Warnings = append(o.Warnings, &UnmatchedRegionNameWarning{Name: name})
			continue
		}
		names = append(names, name)
		candidates = append(candidates, rs...)
	}
	if len(names) == 0 {
		return nil, &UndefinedMedianError{Reason: "none of the ecoregions of interest match a region"}
	}

	zones, keys, err := RasterizeRegions(candidates, in.Totals.Geometry, RegionName)
	if err != nil {
		return nil, err
	}
	sums, _, err := Zonal(zones, in.Totals, Statistic{Type: Sum, IgnoreNoData: true})
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = sums[i+1] // Absent zones have a sum of zero.
		o.Sums[k] = values[i]
	}
	sort.Float64s(values)
	o.Median = percentile(values, 50, Linear)

	selected := make(map[string]bool)
	for _, name := range names {
		if o.Sums[name] > o.Median {
			o.Selected = append(o.Selected, name)
			selected[name] = true
		}
	}
	biomes := make(map[string]bool)
	for _, b := range in.BiomesToInclude {
		biomes[b] = true
	}
	for _, r := range in.Regions {
		if selected[r.Name] || biomes[r.Biome] {
			o.Mask = append(o.Mask, r)
		}
	}
	o.Grid = MaskRegions(in.HighPriority, o.Mask)
	return o, nil
}
