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

package gridstore

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/forestcarbon"
)

// readASCII reads a grid in Esri ASCII format. Rows in the file run from
// north to south. The grid is categorical if none of its values are written
// with a decimal point or exponent.
func readASCII(r io.Reader) (*forestcarbon.Grid, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 1024*1024), 1024*1024*1024)
	s.Split(bufio.ScanWords)

	header := make(map[string]float64)
	var first string
	for s.Scan() {
		key := strings.ToLower(s.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key // The header is over.
			break
		}
		if !s.Scan() {
			return nil, fmt.Errorf("gridstore: ascii header value missing for %s", key)
		}
		v, err := strconv.ParseFloat(s.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("gridstore: ascii header %s: %v", key, err)
		}
		header[key] = v
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("gridstore: reading ascii grid: %v", err)
	}
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := header[k]; !ok {
			return nil, fmt.Errorf("gridstore: ascii header is missing %s", k)
		}
	}
	g := forestcarbon.Geometry{
		Nx: int(header["ncols"]),
		Ny: int(header["nrows"]),
		Dx: header["cellsize"],
		Dy: header["cellsize"],
	}
	if x, ok := header["xllcorner"]; ok {
		g.X0, g.Y0 = x, header["yllcorner"]
	} else if x, ok := header["xllcenter"]; ok {
		g.X0, g.Y0 = x-g.Dx/2, header["yllcenter"]-g.Dy/2
	} else {
		return nil, fmt.Errorf("gridstore: ascii header is missing xllcorner or xllcenter")
	}
	nodata := forestcarbon.DefaultNoData
	if v, ok := header["nodata_value"]; ok {
		nodata = v
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	o := forestcarbon.NewGrid(g, nodata, true)
	n := g.Len()
	i := 0
	next := func(tok string) error {
		if i >= n {
			return fmt.Errorf("gridstore: ascii grid has more than %d values", n)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("gridstore: ascii grid value %d: %v", i, err)
		}
		if v != nodata && !math.IsNaN(v) && strings.ContainsAny(tok, ".eE") {
			o.Categorical = false
		}
		row, col := i/g.Nx, i%g.Nx
		o.Data.Elements[(g.Ny-1-row)*g.Nx+col] = v
		i++
		return nil
	}
	if first != "" {
		if err := next(first); err != nil {
			return nil, err
		}
	}
	for s.Scan() {
		if err := next(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("gridstore: reading ascii grid: %v", err)
	}
	if i != n {
		return nil, fmt.Errorf("gridstore: ascii grid has %d values; want %d", i, n)
	}
	return o, nil
}

// writeASCII writes g in Esri ASCII format. The cells of g must be square.
// Infinite values are written as nodata.
func writeASCII(w io.Writer, g *forestcarbon.Grid) error {
	if math.Abs(g.Dx-g.Dy) > 1e-9*math.Abs(g.Dx) {
		return fmt.Errorf("gridstore: ascii grids must have square cells; dx=%g, dy=%g", g.Dx, g.Dy)
	}
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "ncols         %d\n", g.Nx)
	fmt.Fprintf(b, "nrows         %d\n", g.Ny)
	fmt.Fprintf(b, "xllcorner     %s\n", ff(g.X0))
	fmt.Fprintf(b, "yllcorner     %s\n", ff(g.Y0))
	fmt.Fprintf(b, "cellsize      %s\n", ff(g.Dx))
	fmt.Fprintf(b, "NODATA_value  %s\n", ff(g.NoData))
	for iy := g.Ny - 1; iy >= 0; iy-- {
		for ix := 0; ix < g.Nx; ix++ {
			if ix > 0 {
				b.WriteByte(' ')
			}
			if !g.Valid(iy, ix) || math.IsInf(g.Get(iy, ix), 0) {
				b.WriteString(ff(g.NoData))
				continue
			}
			v := ff(g.Get(iy, ix))
			if !g.Categorical && !strings.ContainsAny(v, ".eEnN") {
				v += ".0"
			}
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
