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
	"sort"
	"strconv"
	"strings"
)

// RemapTable maps old category values to new ones. Many old values may map
// to the same new value.
type RemapTable map[int]int

// DefaultForestRemap collapses the twelve FAO structural forest forms into
// four classes.
var DefaultForestRemap = RemapTable{
	1: 1, 2: 1, 3: 1,
	4: 2, 5: 2, 6: 2,
	7: 3, 8: 3, 9: 3,
	10: 4, 11: 4, 12: 4,
}

// ParseRemap parses a remap table in the form "1 1;2 1;4 2", where each
// semicolon-separated entry is an old value followed by its new value.
func ParseRemap(s string) (RemapTable, error) {
	t := make(RemapTable)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		f := strings.Fields(entry)
		if len(f) != 2 {
			return nil, fmt.Errorf("forestcarbon: invalid remap entry %q", entry)
		}
		from, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("forestcarbon: invalid remap entry %q: %v", entry, err)
		}
		to, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, fmt.Errorf("forestcarbon: invalid remap entry %q: %v", entry, err)
		}
		if prev, ok := t[from]; ok && prev != to {
			return nil, fmt.Errorf("forestcarbon: value %d is remapped to both %d and %d", from, prev, to)
		}
		t[from] = to
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("forestcarbon: empty remap table")
	}
	return t, nil
}

// String returns t in the format accepted by ParseRemap.
func (t RemapTable) String() string {
	keys := make([]int, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	s := make([]string, len(keys))
	for i, k := range keys {
		s[i] = fmt.Sprintf("%d %d", k, t[k])
	}
	return strings.Join(s, ";")
}

// Reclassify remaps the categories of in according to table.
// Values that are not keys of table, including nodata, become nodata.
// The output shares the geometry of in.
func Reclassify(in *Grid, table RemapTable) (*Grid, error) {
	o := in.like(true)
	for i, v := range in.Data.Elements {
		if !in.isData(v) {
			continue
		}
		c, ok := category(v)
		if !ok {
			return nil, fmt.Errorf("forestcarbon: reclassify: non-integer value %g at cell %d", v, i)
		}
		if nv, ok := table[c]; ok {
			o.Data.Elements[i] = float64(nv)
		}
	}
	return o, nil
}
