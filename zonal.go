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
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// StatType is the type of a zonal statistic.
type StatType int

// These are the available zonal statistics.
const (
	Mean StatType = iota
	Percentile
	Median
	Sum
)

func (s StatType) String() string {
	switch s {
	case Mean:
		return "mean"
	case Percentile:
		return "percentile"
	case Median:
		return "median"
	case Sum:
		return "sum"
	default:
		return fmt.Sprintf("StatType(%d)", int(s))
	}
}

// Interpolation specifies how percentiles falling between two order
// statistics are resolved.
type Interpolation int

const (
	// AutoDetect uses Nearest for categorical value grids and Linear
	// otherwise.
	AutoDetect Interpolation = iota
	// Nearest takes the value at rank round(p/100·(n-1)).
	Nearest
	// Linear interpolates between the two values bracketing rank p/100·(n-1).
	Linear
)

// ParseInterpolation parses "auto", "nearest" or "linear".
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "auto", "AUTO_DETECT":
		return AutoDetect, nil
	case "nearest", "NEAREST":
		return Nearest, nil
	case "linear", "LINEAR":
		return Linear, nil
	}
	return AutoDetect, fmt.Errorf("forestcarbon: invalid percentile interpolation %q; valid options are auto, nearest and linear", s)
}

func (i Interpolation) String() string {
	switch i {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	default:
		return "auto"
	}
}

// Statistic configures a zonal statistic.
type Statistic struct {
	Type StatType

	// Percentile is the percentile in [0, 100] to compute when Type is
	// Percentile.
	Percentile float64

	Interpolation Interpolation

	// IgnoreNoData specifies whether nodata value cells are skipped. If it
	// is false, any zone containing a nodata value cell has a nodata result.
	IgnoreNoData bool
}

// Validate checks that s is a usable configuration.
func (s Statistic) Validate() error {
	if s.Type == Percentile && (s.Percentile < 0 || s.Percentile > 100 || math.IsNaN(s.Percentile)) {
		return fmt.Errorf("forestcarbon: percentile must be in [0, 100] but is %g", s.Percentile)
	}
	if s.Type < Mean || s.Type > Sum {
		return fmt.Errorf("forestcarbon: invalid statistic %v", s.Type)
	}
	return nil
}

// ZoneValues maps zone ids to a scalar value. Zones without a defined value
// are absent.
type ZoneValues map[int]float64

// Broadcast returns a grid with the geometry of zones where each cell holds
// the value of its zone. Cells of absent zones are nodata.
func (zv ZoneValues) Broadcast(zones *Grid) *Grid {
	o := NewGrid(zones.Geometry, DefaultNoData, false)
	for i, z := range zones.Data.Elements {
		if !zones.isData(z) {
			continue
		}
		if v, ok := zv[int(z)]; ok {
			o.Data.Elements[i] = v
		}
	}
	return o
}

// zoneSample holds the values collected for one zone.
type zoneSample struct {
	values    []float64
	hasNoData bool
}

// Zonal computes statistic s of the values grid within each zone of the
// zones grid. The two grids must be co-registered. The returned warnings
// contain an *EmptyZoneError for each zone without any valid values.
func Zonal(zones, values *Grid, s Statistic) (ZoneValues, []error, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	if err := CheckAligned("zonal statistics", zones, values); err != nil {
		return nil, nil, err
	}
	samples, err := collect(zones, values)
	if err != nil {
		return nil, nil, err
	}
	interp := s.Interpolation
	if interp == AutoDetect {
		interp = Linear
		if values.Categorical {
			interp = Nearest
		}
	}

	ids := make([]int, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	o := make(ZoneValues, len(ids))
	var warnings []error
	for _, id := range ids {
		smp := samples[id]
		if !s.IgnoreNoData && smp.hasNoData {
			continue
		}
		if len(smp.values) == 0 {
			warnings = append(warnings, &EmptyZoneError{Zone: id})
			continue
		}
		sort.Float64s(smp.values)
		switch s.Type {
		case Mean:
			o[id] = floats.Sum(smp.values) / float64(len(smp.values))
		case Sum:
			o[id] = floats.Sum(smp.values)
		case Median:
			o[id] = percentile(smp.values, 50, interp)
		case Percentile:
			o[id] = percentile(smp.values, s.Percentile, interp)
		}
	}
	return o, warnings, nil
}

// ZonalGrid is like Zonal but broadcasts the result onto the geometry of
// zones.
func ZonalGrid(zones, values *Grid, s Statistic) (*Grid, []error, error) {
	zv, warnings, err := Zonal(zones, values, s)
	if err != nil {
		return nil, nil, err
	}
	return zv.Broadcast(zones), warnings, nil
}

// percentile returns percentile p of the ascending-sorted values x.
func percentile(x []float64, p float64, interp Interpolation) float64 {
	r := p / 100 * float64(len(x)-1)
	if interp == Nearest {
		return x[int(math.Round(r))]
	}
	lo := math.Floor(r)
	hi := math.Ceil(r)
	if lo == hi {
		return x[int(lo)]
	}
	return x[int(lo)] + (r-lo)*(x[int(hi)]-x[int(lo)])
}

// collect gathers the values of each zone. Rows are split into tiles that
// are processed concurrently; the per-tile results are merged in tile
// order.
func collect(zones, values *Grid) (map[int]*zoneSample, error) {
	nprocs := runtime.GOMAXPROCS(-1)
	if nprocs > zones.Ny {
		nprocs = zones.Ny
	}
	tiles := make([]map[int]*zoneSample, nprocs)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			tile := make(map[int]*zoneSample)
			for iy := p; iy < zones.Ny; iy += nprocs {
				for ix := 0; ix < zones.Nx; ix++ {
					i := iy*zones.Nx + ix
					z := zones.Data.Elements[i]
					if !zones.isData(z) {
						continue
					}
					id, ok := category(z)
					if !ok || id < 0 {
						errs[p] = fmt.Errorf("forestcarbon: zonal statistics: invalid zone id %g at row %d column %d", z, iy, ix)
						return
					}
					smp, ok := tile[id]
					if !ok {
						smp = new(zoneSample)
						tile[id] = smp
					}
					v := values.Data.Elements[i]
					if values.isData(v) {
						smp.values = append(smp.values, v)
					} else {
						smp.hasNoData = true
					}
				}
			}
			tiles[p] = tile
		}(p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	o := make(map[int]*zoneSample)
	for _, tile := range tiles {
		for id, smp := range tile {
			if all, ok := o[id]; ok {
				all.values = append(all.values, smp.values...)
				all.hasNoData = all.hasNoData || smp.hasNoData
			} else {
				o[id] = smp
			}
		}
	}
	return o, nil
}
