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
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

const nd = DefaultNoData

// unit is a grid geometry with 1x1 cells anchored at the origin.
var unit = Geometry{Dx: 1, Dy: 1}

func testGrid(t *testing.T, g Geometry, categorical bool, rows [][]float64) *Grid {
	t.Helper()
	o, err := NewGridFromRows(g, DefaultNoData, categorical, rows)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestGeometryLocate(t *testing.T) {
	g := Geometry{X0: -2, Y0: 10, Dx: 2, Dy: 1, Nx: 3, Ny: 4}
	tests := []struct {
		p      geom.Point
		iy, ix int
		ok     bool
	}{
		{p: geom.Point{X: -2, Y: 10}, iy: 0, ix: 0, ok: true},
		{p: geom.Point{X: 3.9, Y: 13.9}, iy: 3, ix: 2, ok: true},
		{p: geom.Point{X: 1, Y: 11.5}, iy: 1, ix: 1, ok: true},
		{p: geom.Point{X: 4, Y: 11}, ok: false},
		{p: geom.Point{X: 0, Y: 9.99}, ok: false},
	}
	for _, test := range tests {
		iy, ix, ok := g.Locate(test.p)
		if ok != test.ok {
			t.Errorf("%v: have ok=%v, want %v", test.p, ok, test.ok)
			continue
		}
		if ok && (iy != test.iy || ix != test.ix) {
			t.Errorf("%v: have (%d,%d), want (%d,%d)", test.p, iy, ix, test.iy, test.ix)
		}
	}
	if c := g.CellCenter(1, 2); c.X != 3 || c.Y != 11.5 {
		t.Errorf("cell center: have %v", c)
	}
	b := g.Bounds()
	if b.Min.X != -2 || b.Min.Y != 10 || b.Max.X != 4 || b.Max.Y != 14 {
		t.Errorf("bounds: have %v", b)
	}
}

func TestGeometryValidate(t *testing.T) {
	for _, g := range []Geometry{
		{Dx: 0, Dy: 1, Nx: 1, Ny: 1},
		{Dx: 1, Dy: -1, Nx: 1, Ny: 1},
		{Dx: 1, Dy: 1, Nx: 0, Ny: 1},
		{Dx: math.NaN(), Dy: 1, Nx: 1, Ny: 1},
	} {
		if err := g.Validate(); err == nil {
			t.Errorf("%v should be invalid", g)
		}
	}
}

func TestNewGridFromRows(t *testing.T) {
	rows := [][]float64{{1, 2, 3}, {4, nd, math.NaN()}}
	g := testGrid(t, unit, false, rows)
	if g.Nx != 3 || g.Ny != 2 {
		t.Fatalf("have %dx%d, want 3x2", g.Nx, g.Ny)
	}
	if v := g.Get(1, 0); v != 4 {
		t.Errorf("have %g, want 4", v)
	}
	if g.Valid(1, 1) || g.Valid(1, 2) || !g.Valid(0, 2) {
		t.Error("nodata and NaN cells should be invalid")
	}
	if c := g.Count(); c != 4 {
		t.Errorf("count: have %d, want 4", c)
	}
	have := g.Rows()
	if !reflect.DeepEqual(have[0], rows[0]) {
		t.Errorf("rows: have %v, want %v", have[0], rows[0])
	}

	if _, err := NewGridFromRows(unit, nd, false, [][]float64{{1, 2}, {3}}); err == nil {
		t.Error("ragged rows should fail")
	}
	if _, err := NewGridFromRows(unit, nd, false, nil); err == nil {
		t.Error("no rows should fail")
	}
}

func TestCheckAligned(t *testing.T) {
	a := NewGrid(Geometry{Dx: 1, Dy: 1, Nx: 2, Ny: 2}, nd, false)
	b := NewGrid(Geometry{Dx: 1, Dy: 1, Nx: 2, Ny: 2}, nd, false)
	c := NewGrid(Geometry{X0: 0.5, Dx: 1, Dy: 1, Nx: 2, Ny: 2}, nd, false)

	if err := CheckAligned("test", a, b); err != nil {
		t.Error(err)
	}
	err := CheckAligned("test", a, b, c)
	var me *MisalignedGridError
	if !errors.As(err, &me) {
		t.Fatalf("have %v, want *MisalignedGridError", err)
	}
	if me.Index != 2 {
		t.Errorf("index: have %d, want 2", me.Index)
	}
}

func TestCategory(t *testing.T) {
	if c, ok := category(3); !ok || c != 3 {
		t.Errorf("have %d %v", c, ok)
	}
	if _, ok := category(2.5); ok {
		t.Error("2.5 is not a category")
	}
	if _, ok := category(math.Inf(1)); ok {
		t.Error("Inf is not a category")
	}
}
