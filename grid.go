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

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// DefaultNoData is the nodata sentinel used for grids created by this package
// when the caller does not supply one.
const DefaultNoData = -9999.

// geometryTolerance is the relative tolerance used when comparing grid
// origins and cell sizes.
const geometryTolerance = 1.e-9

// Geometry holds the georeferencing information of a grid.
// Grids are anchored at their lower-left corner: row iy spans
// [Y0+iy*Dy, Y0+(iy+1)*Dy) and column ix spans [X0+ix*Dx, X0+(ix+1)*Dx).
type Geometry struct {
	X0, Y0 float64 // lower left corner
	Dx, Dy float64 // cell edge lengths
	Nx, Ny int     // number of columns and rows
}

// Validate returns an error if g does not describe a usable grid.
func (g Geometry) Validate() error {
	if !(g.Dx > 0) || !(g.Dy > 0) {
		return fmt.Errorf("forestcarbon: grid cell size must be >0 but is %gx%g", g.Dx, g.Dy)
	}
	if g.Nx <= 0 || g.Ny <= 0 {
		return fmt.Errorf("forestcarbon: grid dimensions must be >0 but are %dx%d", g.Nx, g.Ny)
	}
	return nil
}

// Equal returns whether g and o have the same origin, cell size and
// dimensions.
func (g Geometry) Equal(o Geometry) bool {
	return g.Nx == o.Nx && g.Ny == o.Ny &&
		closeTo(g.X0, o.X0, g.Dx) && closeTo(g.Y0, o.Y0, g.Dy) &&
		closeTo(g.Dx, o.Dx, g.Dx) && closeTo(g.Dy, o.Dy, g.Dy)
}

func closeTo(a, b, scale float64) bool {
	return math.Abs(a-b) <= geometryTolerance*math.Max(math.Abs(scale), 1)
}

func (g Geometry) String() string {
	return fmt.Sprintf("origin=(%g,%g) cell=%gx%g size=%dx%d", g.X0, g.Y0, g.Dx, g.Dy, g.Nx, g.Ny)
}

// Bounds returns the extent of g.
func (g Geometry) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0},
		Max: geom.Point{X: g.X0 + g.Dx*float64(g.Nx), Y: g.Y0 + g.Dy*float64(g.Ny)},
	}
}

// CellBounds returns the extent of the cell at row iy and column ix.
func (g Geometry) CellBounds(iy, ix int) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0 + g.Dx*float64(ix), Y: g.Y0 + g.Dy*float64(iy)},
		Max: geom.Point{X: g.X0 + g.Dx*float64(ix+1), Y: g.Y0 + g.Dy*float64(iy+1)},
	}
}

// CellCenter returns the center point of the cell at row iy and column ix.
func (g Geometry) CellCenter(iy, ix int) geom.Point {
	return geom.Point{
		X: g.X0 + g.Dx*(float64(ix)+0.5),
		Y: g.Y0 + g.Dy*(float64(iy)+0.5),
	}
}

// Locate returns the row and column of the cell containing p, and false if p
// falls outside of g.
func (g Geometry) Locate(p geom.Point) (iy, ix int, ok bool) {
	fx := (p.X - g.X0) / g.Dx
	fy := (p.Y - g.Y0) / g.Dy
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	ix, iy = int(fx), int(fy)
	if ix >= g.Nx || iy >= g.Ny {
		return 0, 0, false
	}
	return iy, ix, true
}

// Len returns the number of cells in g.
func (g Geometry) Len() int { return g.Nx * g.Ny }

// Grid is a two-dimensional raster of cell values. Data has shape [Ny, Nx].
// A Grid must not be modified after it has been handed to another function;
// every operation in this package returns a new Grid.
type Grid struct {
	Geometry

	// NoData is the sentinel marking cells without a valid value.
	// NaN cell values are also treated as nodata.
	NoData float64

	// Categorical is true for grids holding integer class values.
	Categorical bool

	Data *sparse.DenseArray
}

// NewGrid returns a grid with geometry g where every cell is nodata.
func NewGrid(g Geometry, nodata float64, categorical bool) *Grid {
	o := &Grid{
		Geometry:    g,
		NoData:      nodata,
		Categorical: categorical,
		Data:        sparse.ZerosDense(g.Ny, g.Nx),
	}
	for i := range o.Data.Elements {
		o.Data.Elements[i] = nodata
	}
	return o
}

// NewGridFromRows creates a grid from a slice of rows, where rows[iy][ix]
// is the value of the cell at row iy and column ix. The dimensions of g are
// taken from rows.
func NewGridFromRows(g Geometry, nodata float64, categorical bool, rows [][]float64) (*Grid, error) {
	g.Ny = len(rows)
	if g.Ny == 0 {
		return nil, fmt.Errorf("forestcarbon: no rows")
	}
	g.Nx = len(rows[0])
	if err := g.Validate(); err != nil {
		return nil, err
	}
	o := NewGrid(g, nodata, categorical)
	for iy, row := range rows {
		if len(row) != g.Nx {
			return nil, fmt.Errorf("forestcarbon: row %d has %d columns; want %d", iy, len(row), g.Nx)
		}
		copy(o.Data.Elements[iy*g.Nx:(iy+1)*g.Nx], row)
	}
	return o, nil
}

// Rows returns the grid values as a slice of rows.
func (g *Grid) Rows() [][]float64 {
	o := make([][]float64, g.Ny)
	for iy := range o {
		o[iy] = make([]float64, g.Nx)
		copy(o[iy], g.Data.Elements[iy*g.Nx:(iy+1)*g.Nx])
	}
	return o
}

// Get returns the value of the cell at row iy and column ix.
func (g *Grid) Get(iy, ix int) float64 {
	return g.Data.Elements[iy*g.Nx+ix]
}

// Valid returns whether the cell at row iy and column ix holds data.
func (g *Grid) Valid(iy, ix int) bool {
	return g.isData(g.Data.Elements[iy*g.Nx+ix])
}

func (g *Grid) isData(v float64) bool {
	return v != g.NoData && !math.IsNaN(v)
}

// Count returns the number of valid cells in g.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.Data.Elements {
		if g.isData(v) {
			n++
		}
	}
	return n
}

// like returns an empty grid sharing the geometry and nodata value of g.
func (g *Grid) like(categorical bool) *Grid {
	return NewGrid(g.Geometry, g.NoData, categorical)
}

// CheckAligned returns a *MisalignedGridError if any of the given grids
// does not share the geometry of the first one.
func CheckAligned(op string, grids ...*Grid) error {
	for i := 1; i < len(grids); i++ {
		if !grids[0].Geometry.Equal(grids[i].Geometry) {
			return &MisalignedGridError{
				Op:    op,
				Want:  grids[0].Geometry,
				Have:  grids[i].Geometry,
				Index: i,
			}
		}
	}
	return nil
}

// category returns the integer class value of v and false if v is not
// integral.
func category(v float64) (int, bool) {
	c := math.Round(v)
	if c != v || math.IsInf(v, 0) {
		return 0, false
	}
	return int(c), true
}
