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
	"context"
	"errors"
)

// GridStore loads and saves named grids, region sets and name lists.
// The storage format is up to the implementation.
type GridStore interface {
	LoadGrid(ctx context.Context, name string) (*Grid, error)
	SaveGrid(ctx context.Context, name string, g *Grid) error
	LoadRegions(ctx context.Context, name string) ([]Region, error)
	LoadNameList(ctx context.Context, source string) ([]string, error)
}

// RegionSaver is implemented by stores that can also save region sets.
type RegionSaver interface {
	SaveRegions(ctx context.Context, name string, regions []Region) error
}

// missing wraps err as a *MissingInputError unless it already is one.
func missing(kind, name string, err error) error {
	var mi *MissingInputError
	if errors.As(err, &mi) {
		return err
	}
	return &MissingInputError{Kind: kind, Name: name, Err: err}
}
