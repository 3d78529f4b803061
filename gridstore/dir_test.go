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
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/forestcarbon"
	"gocloud.dev/blob/memblob"
)

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

var testRegions = []forestcarbon.Region{
	{Polygonal: rect(0, 0, 2, 2), Name: "Alps conifer and mixed forests", Biome: "Temperate Conifer Forests"},
	{Polygonal: geom.MultiPolygon{rect(2, 0, 3, 1), rect(3, 1, 4, 2)}, Name: "Rock and Ice", Biome: "Rock and Ice"},
}

// testStoreOps saves and loads a grid and a region set with s.
func testStoreOps(ctx context.Context, t *testing.T, s interface {
	forestcarbon.GridStore
	forestcarbon.RegionSaver
}) {
	g := testGrid(t, forestcarbon.Geometry{Dx: 1, Dy: 1}, false, [][]float64{
		{1.5, nd},
		{3, 4},
	})
	if err := s.SaveGrid(ctx, "out/carbon", g); err != nil {
		t.Fatal(err)
	}
	have, err := s.LoadGrid(ctx, "out/carbon")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(have.Rows(), g.Rows()) {
		t.Errorf("grid: have %v, want %v", have.Rows(), g.Rows())
	}

	if err := s.SaveRegions(ctx, "mask", testRegions); err != nil {
		t.Fatal(err)
	}
	regions, err := s.LoadRegions(ctx, "mask")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != len(testRegions) {
		t.Fatalf("have %d regions, want %d", len(regions), len(testRegions))
	}
	for i, r := range regions {
		if r.Name != testRegions[i].Name || r.Biome != testRegions[i].Biome {
			t.Errorf("region %d: have %s/%s, want %s/%s", i, r.Name, r.Biome, testRegions[i].Name, testRegions[i].Biome)
		}
		if p := (geom.Point{X: 3.5, Y: 1.5}); (p.Within(r) != geom.Outside) != (i == 1) {
			t.Errorf("region %d: wrong geometry", i)
		}
	}

	var mi *forestcarbon.MissingInputError
	if _, err := s.LoadGrid(ctx, "nothing"); !errors.As(err, &mi) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("grid: have %v, want *MissingInputError", err)
	}
	if _, err := s.LoadRegions(ctx, "nothing"); !errors.As(err, &mi) {
		t.Errorf("regions: have %v, want *MissingInputError", err)
	}
	if _, err := s.LoadNameList(ctx, "nothing"); !errors.As(err, &mi) {
		t.Errorf("list: have %v, want *MissingInputError", err)
	}
}

func TestDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := NewDir(dir, nil, 10)
	testStoreOps(ctx, t, d)

	if _, err := os.Stat(filepath.Join(dir, "out", "carbon.nc")); err != nil {
		t.Errorf("grid should be saved as netcdf: %v", err)
	}

	d.SaveFormat = ".asc"
	g := testGrid(t, forestcarbon.Geometry{Dx: 1, Dy: 1}, true, [][]float64{{1, 2}})
	if err := d.SaveGrid(ctx, "classes", g); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "classes.asc")); err != nil {
		t.Errorf("grid should be saved as ascii: %v", err)
	}
	have, err := d.LoadGrid(ctx, "classes.asc")
	if err != nil {
		t.Fatal(err)
	}
	if !have.Categorical {
		t.Error("grid should be categorical")
	}

	// Saving again with new values replaces the cached grid.
	g2 := testGrid(t, forestcarbon.Geometry{Dx: 1, Dy: 1}, true, [][]float64{{3, 4}})
	if err := d.SaveGrid(ctx, "classes", g2); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "classes.asc"), later, later); err != nil {
		t.Fatal(err)
	}
	have, err = d.LoadGrid(ctx, "classes")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(have.Rows(), g2.Rows()) {
		t.Errorf("have %v, want %v", have.Rows(), g2.Rows())
	}

	list := "ECO_NAME\nAlps conifer and mixed forests\n"
	if err := ioutil.WriteFile(filepath.Join(dir, "eoi.csv"), []byte(list), 0644); err != nil {
		t.Fatal(err)
	}
	names, err := d.LoadNameList(ctx, "eoi")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"Alps conifer and mixed forests"}) {
		t.Errorf("have %q", names)
	}
}

func TestMemory(t *testing.T) {
	testStoreOps(context.Background(), t, NewMemory())
}

func TestBucket(t *testing.T) {
	ctx := context.Background()
	b, err := NewBucket(memblob.OpenBucket(nil), "data/v1", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	testStoreOps(ctx, t, b)

	if ok, err := b.bucket.Exists(ctx, "data/v1/out/carbon.nc"); err != nil || !ok {
		t.Errorf("grid blob should exist: %v %v", ok, err)
	}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		if ok, err := b.bucket.Exists(ctx, "data/v1/mask"+ext); err != nil || !ok {
			t.Errorf("mask%s blob should exist: %v %v", ext, ok, err)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Dir); !ok {
		t.Errorf("have %T, want *Dir", s)
	}
	s, err = Open(ctx, "mem://bucket/prefix", nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := s.(*Bucket)
	if !ok {
		t.Fatalf("have %T, want *Bucket", s)
	}
	if b.prefix != "prefix" {
		t.Errorf("prefix: have %q", b.prefix)
	}
	b.Close()
}
