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

// Package forestcarbon identifies high priority forest carbon: forest cells
// whose carbon density is greater than a chosen percentile of the carbon
// density of similar forest, where similar forest is forest of the same
// structural class within the same ecoregion.
//
// The analysis is made of raster operations on co-registered grids:
// reclassification, combination of zone grids, zonal statistics, footprint
// aggregation and threshold selection, optionally followed by a filter that
// keeps only ecoregions of interest holding more total carbon than the
// median ecoregion of interest. The operations are exposed individually and
// are chained together by Pipeline.
package forestcarbon

// Version gives the version number.
const Version = "0.1.0"
