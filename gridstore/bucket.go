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
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/forestcarbon"
	"github.com/spatialmodel/forestcarbon/cloud"
	"gocloud.dev/blob"
)

// Bucket is a GridStore backed by a blob storage bucket. Files are copied
// to a local directory and read and written with a Dir.
type Bucket struct {
	bucket *blob.Bucket
	prefix string
	local  *Dir
}

// NewBucket returns a store for the blobs under prefix in b. Local copies
// are kept in a temporary directory until Close is called.
func NewBucket(b *blob.Bucket, prefix string, sr *proj.SR, cacheSize int) (*Bucket, error) {
	dir, err := ioutil.TempDir("", "forestcarbon")
	if err != nil {
		return nil, err
	}
	return &Bucket{
		bucket: b,
		prefix: strings.Trim(prefix, "/"),
		local:  NewDir(dir, sr, cacheSize),
	}, nil
}

// Open returns a store for location, which is either a local directory or
// a blob storage URL (e.g., "gs://bucket/path/to/data").
func Open(ctx context.Context, location string, sr *proj.SR, cacheSize int) (forestcarbon.GridStore, error) {
	if !cloud.IsBlob(location) {
		return NewDir(location, sr, cacheSize), nil
	}
	bucketName, prefix, err := cloud.SplitURL(location)
	if err != nil {
		return nil, err
	}
	b, err := cloud.OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	return NewBucket(b, prefix, sr, cacheSize)
}

// Close removes the local copies and closes the bucket.
func (b *Bucket) Close() error {
	os.RemoveAll(b.local.Path)
	return b.bucket.Close()
}

func (b *Bucket) key(name string) string {
	return path.Join(b.prefix, filepath.ToSlash(name))
}

// fetch copies the first blob that exists for name to the local directory
// and returns the local name.
func (b *Bucket) fetch(ctx context.Context, kind, name string, exts []string) (string, error) {
	candidates := []string{name}
	ext := strings.ToLower(path.Ext(name))
	known := false
	for _, e := range exts {
		if ext == e {
			known = true
		}
	}
	if !known {
		candidates = candidates[:0]
		for _, e := range exts {
			candidates = append(candidates, name+e)
		}
	}
	for _, c := range candidates {
		ok, err := b.bucket.Exists(ctx, b.key(c))
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		dir := filepath.Join(b.local.Path, filepath.Dir(c))
		if _, err := cloud.Download(ctx, b.bucket, b.key(c), dir); err != nil {
			return "", err
		}
		return c, nil
	}
	return "", &forestcarbon.MissingInputError{
		Kind: kind,
		Name: name,
		Err:  fmt.Errorf("gridstore: no blob for %s under %s: %w", name, b.prefix, os.ErrNotExist),
	}
}

// LoadGrid implements forestcarbon.GridStore.
func (b *Bucket) LoadGrid(ctx context.Context, name string) (*forestcarbon.Grid, error) {
	local, err := b.fetch(ctx, "grid", name, GridExtensions)
	if err != nil {
		return nil, err
	}
	return b.local.LoadGrid(ctx, local)
}

// SaveGrid implements forestcarbon.GridStore.
func (b *Bucket) SaveGrid(ctx context.Context, name string, g *forestcarbon.Grid) error {
	p := b.local.outputPath(name, GridExtensions, b.local.SaveFormat)
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}
	if err := b.local.SaveGrid(ctx, p, g); err != nil {
		return err
	}
	return b.upload(ctx, p)
}

func (b *Bucket) upload(ctx context.Context, p string) error {
	rel, err := filepath.Rel(b.local.Path, p)
	if err != nil {
		return err
	}
	return cloud.Upload(ctx, b.bucket, p, b.key(rel))
}

// LoadRegions implements forestcarbon.GridStore.
func (b *Bucket) LoadRegions(ctx context.Context, name string) ([]forestcarbon.Region, error) {
	local, err := b.fetch(ctx, "regions", name, RegionExtensions)
	if err != nil {
		return nil, err
	}
	return b.local.LoadRegions(ctx, local)
}

// SaveRegions implements forestcarbon.RegionSaver.
func (b *Bucket) SaveRegions(ctx context.Context, name string, regions []forestcarbon.Region) error {
	p := b.local.outputPath(name, RegionExtensions, "")
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}
	if err := b.local.SaveRegions(ctx, p, regions); err != nil {
		return err
	}
	return b.upload(ctx, p)
}

// LoadNameList implements forestcarbon.GridStore.
func (b *Bucket) LoadNameList(ctx context.Context, name string) ([]string, error) {
	local, err := b.fetch(ctx, "list", name, ListExtensions)
	if err != nil {
		return nil, err
	}
	return b.local.LoadNameList(ctx, local)
}

// SetSaveFormat sets the extension of the format that grids are saved in
// when the grid name has no extension.
func (b *Bucket) SetSaveFormat(ext string) { b.local.SaveFormat = ext }
