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
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestPercentile(t *testing.T) {
	x := []float64{10, 20, 30, 40}
	tests := []struct {
		p      float64
		interp Interpolation
		want   float64
	}{
		{p: 50, interp: Linear, want: 25},
		{p: 50, interp: Nearest, want: 30},
		{p: 0, interp: Linear, want: 10},
		{p: 100, interp: Linear, want: 40},
		{p: 90, interp: Linear, want: 37},
		{p: 90, interp: Nearest, want: 40},
		{p: 20, interp: Nearest, want: 20},
	}
	for _, test := range tests {
		have := percentile(x, test.p, test.interp)
		if !floats.EqualWithinAbsOrRel(have, test.want, 1.e-10, 1.e-10) {
			t.Errorf("p=%g %v: have %g, want %g", test.p, test.interp, have, test.want)
		}
	}
	if have := percentile([]float64{7}, 90, Linear); have != 7 {
		t.Errorf("single value: have %g, want 7", have)
	}
}

func TestZonal(t *testing.T) {
	zones := testGrid(t, unit, true, [][]float64{
		{1, 1, 1, 1},
		{2, 2, 3, nd},
	})
	values := testGrid(t, unit, false, [][]float64{
		{40, 10, 30, 20},
		{5, nd, nd, 100},
	})

	tests := []struct {
		name     string
		s        Statistic
		want     ZoneValues
		warnings []int
	}{
		{
			name:     "percentile linear",
			s:        Statistic{Type: Percentile, Percentile: 50, IgnoreNoData: true},
			want:     ZoneValues{1: 25, 2: 5},
			warnings: []int{3},
		},
		{
			name:     "percentile nearest",
			s:        Statistic{Type: Percentile, Percentile: 50, Interpolation: Nearest, IgnoreNoData: true},
			want:     ZoneValues{1: 30, 2: 5},
			warnings: []int{3},
		},
		{
			name:     "median",
			s:        Statistic{Type: Median, IgnoreNoData: true},
			want:     ZoneValues{1: 25, 2: 5},
			warnings: []int{3},
		},
		{
			name:     "mean",
			s:        Statistic{Type: Mean, IgnoreNoData: true},
			want:     ZoneValues{1: 25, 2: 5},
			warnings: []int{3},
		},
		{
			name:     "sum",
			s:        Statistic{Type: Sum, IgnoreNoData: true},
			want:     ZoneValues{1: 100, 2: 5},
			warnings: []int{3},
		},
		{
			name: "keep nodata",
			s:    Statistic{Type: Sum},
			want: ZoneValues{1: 100},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, warnings, err := Zonal(zones, values, test.s)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", have, test.want)
			}
			var empty []int
			for _, w := range warnings {
				var ez *EmptyZoneError
				if !errors.As(w, &ez) {
					t.Errorf("unexpected warning %v", w)
					continue
				}
				empty = append(empty, ez.Zone)
			}
			if !reflect.DeepEqual(empty, test.warnings) {
				t.Errorf("empty zones: have %v, want %v", empty, test.warnings)
			}
		})
	}
}

func TestZonalAutoDetect(t *testing.T) {
	zones := testGrid(t, unit, true, [][]float64{{1, 1, 1, 1}})
	s := Statistic{Type: Percentile, Percentile: 50, IgnoreNoData: true}

	continuous := testGrid(t, unit, false, [][]float64{{10, 20, 30, 40}})
	zv, _, err := Zonal(zones, continuous, s)
	if err != nil {
		t.Fatal(err)
	}
	if zv[1] != 25 {
		t.Errorf("continuous: have %g, want 25", zv[1])
	}

	categorical := testGrid(t, unit, true, [][]float64{{10, 20, 30, 40}})
	zv, _, err = Zonal(zones, categorical, s)
	if err != nil {
		t.Fatal(err)
	}
	if zv[1] != 30 {
		t.Errorf("categorical: have %g, want 30", zv[1])
	}
}

func TestZonalGrid(t *testing.T) {
	zones := testGrid(t, unit, true, [][]float64{
		{1, 2},
		{nd, 2},
	})
	values := testGrid(t, unit, false, [][]float64{
		{3, 4},
		{100, 6},
	})
	o, _, err := ZonalGrid(zones, values, Statistic{Type: Mean})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{
		{3, 5},
		{nd, 5},
	}
	if have := o.Rows(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestZonalErrors(t *testing.T) {
	zones := testGrid(t, unit, true, [][]float64{{1, 2}})
	values := testGrid(t, unit, false, [][]float64{{1, 2}})

	if _, _, err := Zonal(zones, values, Statistic{Type: Percentile, Percentile: 101}); err == nil {
		t.Error("percentile > 100 should fail")
	}
	if _, _, err := Zonal(zones, values, Statistic{Type: StatType(10)}); err == nil {
		t.Error("invalid statistic should fail")
	}
	other := testGrid(t, unit, false, [][]float64{{1, 2, 3}})
	var me *MisalignedGridError
	if _, _, err := Zonal(zones, other, Statistic{Type: Mean}); !errors.As(err, &me) {
		t.Errorf("have %v, want *MisalignedGridError", err)
	}
	bad := testGrid(t, unit, true, [][]float64{{1, 1.5}})
	if _, _, err := Zonal(bad, values, Statistic{Type: Mean}); err == nil {
		t.Error("non-integer zone ids should fail")
	}
}

func TestParseInterpolation(t *testing.T) {
	for s, want := range map[string]Interpolation{
		"":        AutoDetect,
		"auto":    AutoDetect,
		"nearest": Nearest,
		"LINEAR":  Linear,
	} {
		have, err := ParseInterpolation(s)
		if err != nil {
			t.Errorf("%q: %v", s, err)
		}
		if have != want {
			t.Errorf("%q: have %v, want %v", s, have, want)
		}
	}
	if _, err := ParseInterpolation("cubic"); err == nil {
		t.Error("cubic should fail")
	}
}
