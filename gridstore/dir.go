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

// Package gridstore holds implementations of forestcarbon.GridStore.
// Grids are stored as netCDF or Esri ASCII files, region sets as
// shapefiles, and name lists as CSV files.
package gridstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/forestcarbon"
)

// Grid and region file extensions, in the order they are searched.
var (
	GridExtensions   = []string{".nc", ".asc"}
	RegionExtensions = []string{".shp"}
	ListExtensions   = []string{".csv", ".txt"}
)

// Dir is a GridStore backed by a directory in the local file system.
type Dir struct {
	// Path is the directory holding the files.
	Path string

	// SR, if not nil, is the spatial reference that region sets are
	// projected to when they are loaded.
	SR *proj.SR

	// ListColumn is the CSV column that name lists are read from.
	ListColumn string

	// SaveFormat is the extension of the format that grids are saved in
	// when the grid name has no extension. The default is ".nc".
	SaveFormat string

	cache *requestcache.Cache
}

// NewDir returns a store for the files in directory path. Up to cacheSize
// loaded grids and region sets are kept in memory.
func NewDir(path string, sr *proj.SR, cacheSize int) *Dir {
	d := &Dir{Path: path, SR: sr, ListColumn: NameField, SaveFormat: ".nc"}
	d.cache = requestcache.NewCache(d.load, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	return d
}

type loadRequest struct {
	kind, path string
}

func (d *Dir) load(ctx context.Context, request interface{}) (interface{}, error) {
	r := request.(loadRequest)
	switch r.kind {
	case "grid":
		switch strings.ToLower(filepath.Ext(r.path)) {
		case ".nc":
			return readNetCDF(r.path)
		case ".asc":
			f, err := os.Open(r.path)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return readASCII(f)
		}
	case "regions":
		return readRegions(r.path, d.SR)
	}
	return nil, fmt.Errorf("gridstore: unsupported %s file %s", r.kind, r.path)
}

// resolve returns the path of the file for name. If name has one of the
// given extensions it is used directly; otherwise each extension is tried in
// turn.
func (d *Dir) resolve(name string, exts []string) (string, os.FileInfo, error) {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.Path, name)
	}
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			fi, err := os.Stat(p)
			return p, fi, err
		}
	}
	for _, e := range exts {
		if fi, err := os.Stat(p + e); err == nil {
			return p + e, fi, nil
		}
	}
	return "", nil, fmt.Errorf("gridstore: no file for %s with extension %s in %s: %w",
		name, strings.Join(exts, ", "), d.Path, os.ErrNotExist)
}

func (d *Dir) cached(ctx context.Context, kind, name string, exts []string) (interface{}, error) {
	p, fi, err := d.resolve(name, exts)
	if err != nil {
		return nil, &forestcarbon.MissingInputError{Kind: kind, Name: name, Err: err}
	}
	if d.cache == nil {
		return d.load(ctx, loadRequest{kind: kind, path: p})
	}
	key := fmt.Sprintf("%s_%s_%d", kind, p, fi.ModTime().UnixNano())
	return d.cache.NewRequest(ctx, loadRequest{kind: kind, path: p}, key).Result()
}

// LoadGrid loads the grid with the given name.
func (d *Dir) LoadGrid(ctx context.Context, name string) (*forestcarbon.Grid, error) {
	g, err := d.cached(ctx, "grid", name, GridExtensions)
	if err != nil {
		return nil, err
	}
	return g.(*forestcarbon.Grid), nil
}

// SaveGrid saves g, overwriting any existing grid with the same name.
func (d *Dir) SaveGrid(ctx context.Context, name string, g *forestcarbon.Grid) error {
	p := d.outputPath(name, GridExtensions, d.SaveFormat)
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".asc":
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		if err := writeASCII(f, g); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return writeNetCDF(p, g)
	}
}

func (d *Dir) outputPath(name string, exts []string, def string) string {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.Path, name)
	}
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return p
		}
	}
	if def == "" {
		def = exts[0]
	}
	return p + def
}

// LoadRegions loads the region set with the given name.
func (d *Dir) LoadRegions(ctx context.Context, name string) ([]forestcarbon.Region, error) {
	r, err := d.cached(ctx, "regions", name, RegionExtensions)
	if err != nil {
		return nil, err
	}
	return r.([]forestcarbon.Region), nil
}

// SaveRegions saves regions as a shapefile.
func (d *Dir) SaveRegions(ctx context.Context, name string, regions []forestcarbon.Region) error {
	p := d.outputPath(name, RegionExtensions, "")
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}
	removeShapefile(p)
	return writeRegions(p, regions)
}

// LoadNameList loads the list of names with the given name.
func (d *Dir) LoadNameList(ctx context.Context, name string) ([]string, error) {
	p, _, err := d.resolve(name, ListExtensions)
	if err != nil {
		return nil, &forestcarbon.MissingInputError{Kind: "list", Name: name, Err: err}
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readNameList(f, d.ListColumn)
}
