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
	"reflect"
	"testing"
)

func TestReclassify(t *testing.T) {
	in := testGrid(t, unit, true, [][]float64{
		{1, 5, 9},
		{12, 13, nd},
	})
	o, err := Reclassify(in, DefaultForestRemap)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{
		{1, 2, 3},
		{4, nd, nd},
	}
	if have := o.Rows(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if !o.Geometry.Equal(in.Geometry) {
		t.Errorf("geometry changed: have %v, want %v", o.Geometry, in.Geometry)
	}

	if _, err := Reclassify(testGrid(t, unit, false, [][]float64{{1.5}}), DefaultForestRemap); err == nil {
		t.Error("non-integer values should fail")
	}
}

func TestParseRemap(t *testing.T) {
	have, err := ParseRemap("1 1; 2 1;4 2;")
	if err != nil {
		t.Fatal(err)
	}
	want := RemapTable{1: 1, 2: 1, 4: 2}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if s := have.String(); s != "1 1;2 1;4 2" {
		t.Errorf("string: have %q", s)
	}

	round, err := ParseRemap(DefaultForestRemap.String())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(round, DefaultForestRemap) {
		t.Errorf("have %v, want %v", round, DefaultForestRemap)
	}

	for _, bad := range []string{"", "1", "a 1", "1 b", "1 1;1 2", "1 2 3"} {
		if _, err := ParseRemap(bad); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
	if _, err := ParseRemap("1 1;1 1"); err != nil {
		t.Errorf("repeated identical entries should be allowed: %v", err)
	}
}
