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
	"strings"
)

// MisalignedGridError is returned when grids that must be co-registered
// are not, or when grids that must overlap do not. It is fatal.
type MisalignedGridError struct {
	Op         string
	Want, Have Geometry
	Index      int // position of the offending grid in the argument list
	Reason     string
}

func (e *MisalignedGridError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("forestcarbon: %s: misaligned grids: %s (reference %v; grid %d %v)",
			e.Op, e.Reason, e.Want, e.Index, e.Have)
	}
	return fmt.Sprintf("forestcarbon: %s: misaligned grids: grid %d has %v but reference has %v",
		e.Op, e.Index, e.Have, e.Want)
}

// EmptyZoneError is a soft error reporting that a zone has no valid cells
// for the requested statistic. The zone's result is nodata.
type EmptyZoneError struct {
	Zone int
}

func (e *EmptyZoneError) Error() string {
	return fmt.Sprintf("forestcarbon: zone %d has no valid values; its statistic is nodata", e.Zone)
}

// UndefinedMedianError is returned when there are no region sums to take
// the median of. It is fatal.
type UndefinedMedianError struct {
	Reason string
}

func (e *UndefinedMedianError) Error() string {
	return "forestcarbon: undefined median of region sums: " + e.Reason
}

// UnmatchedRegionNameWarning is a soft error reporting that a name in the
// ecoregions-of-interest list does not match any region.
type UnmatchedRegionNameWarning struct {
	Name string
}

func (e *UnmatchedRegionNameWarning) Error() string {
	return fmt.Sprintf("forestcarbon: ecoregion of interest %q does not match any region", e.Name)
}

// MissingInputError is returned when a required named grid, region set or
// list cannot be loaded. It is fatal.
type MissingInputError struct {
	Kind string // "grid", "regions" or "list"
	Name string
	Err  error
}

func (e *MissingInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forestcarbon: missing %s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("forestcarbon: missing %s %q", e.Kind, e.Name)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// Warnings is a list of soft errors collected during a run.
type Warnings []error

func (w Warnings) Error() string {
	s := make([]string, len(w))
	for i, e := range w {
		s[i] = e.Error()
	}
	return strings.Join(s, "; ")
}
