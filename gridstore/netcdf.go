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
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/forestcarbon"
)

// ncVar is the name of the variable that holds the grid values in a
// netCDF file.
const ncVar = "values"

// readNetCDF reads a grid from the netCDF file at path. The geometry is
// stored in the global attributes x0, y0, dx, dy and the nodata value and
// data type in the attributes nodata and categorical.
func readNetCDF(path string) (*forestcarbon.Grid, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("gridstore: opening netcdf %s: %v", path, err)
	}
	dims := f.Header.Lengths(ncVar)
	if len(dims) != 2 {
		return nil, fmt.Errorf("gridstore: netcdf %s: variable %s must have dimensions [y, x]; has %v",
			path, ncVar, dims)
	}
	attr := func(name string) (float64, error) {
		switch v := f.Header.GetAttribute("", name).(type) {
		case []float64:
			return v[0], nil
		case []float32:
			return float64(v[0]), nil
		case []int32:
			return float64(v[0]), nil
		default:
			return 0, fmt.Errorf("gridstore: netcdf %s: missing attribute %s", path, name)
		}
	}
	g := forestcarbon.Geometry{Ny: dims[0], Nx: dims[1]}
	for _, a := range []struct {
		name string
		v    *float64
	}{{"x0", &g.X0}, {"y0", &g.Y0}, {"dx", &g.Dx}, {"dy", &g.Dy}} {
		if *a.v, err = attr(a.name); err != nil {
			return nil, err
		}
	}
	nodata, err := attr("nodata")
	if err != nil {
		nodata = forestcarbon.DefaultNoData
	}
	categorical, _ := attr("categorical")

	r := f.Reader(ncVar, []int{0, 0}, dims)
	buf := r.Zero(g.Len())
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("gridstore: netcdf %s: reading %s: %v", path, ncVar, err)
	}
	data := sparse.ZerosDense(g.Ny, g.Nx)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []uint8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("gridstore: netcdf %s: unsupported data type %T", path, buf)
	}
	o := &forestcarbon.Grid{
		Geometry:    g,
		NoData:      nodata,
		Categorical: categorical != 0,
		Data:        data,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// writeNetCDF writes g to a netCDF file at path.
func writeNetCDF(path string, g *forestcarbon.Grid) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Ny, g.Nx})
	h.AddAttribute("", "comment", "forestcarbon grid")
	h.AddAttribute("", "x0", []float64{g.X0})
	h.AddAttribute("", "y0", []float64{g.Y0})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddAttribute("", "dy", []float64{g.Dy})
	h.AddAttribute("", "nodata", []float64{g.NoData})
	var categorical int32
	if g.Categorical {
		categorical = 1
	}
	h.AddAttribute("", "categorical", []int32{categorical})
	h.AddVariable(ncVar, []string{"y", "x"}, []float64{0})
	h.AddAttribute(ncVar, "description", "Grid values; rows run from south to north")
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("gridstore: netcdf header: %v", errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("gridstore: creating netcdf %s: %v", path, err)
	}
	w := f.Writer(ncVar, []int{0, 0}, []int{g.Ny, g.Nx})
	if _, err = w.Write(g.Data.Elements); err != nil {
		ff.Close()
		return fmt.Errorf("gridstore: writing netcdf %s: %v", path, err)
	}
	if err = cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}
