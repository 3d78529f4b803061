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

package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
)

// readBlob reads the given blob from the given bucket.
func readBlob(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
	var b bytes.Buffer
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	_, err = io.Copy(&b, r)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	return b.Bytes(), nil
}

// writeBlob writes the given data to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, data []byte) error {
	b := bytes.NewBuffer(data)
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	_, err = io.Copy(w, b)
	if err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

// Download copies the blob with the given key, plus the associated
// [.dbf, .shx, .prj] blobs if key is a shapefile, into directory dir. It
// returns the local path of the main file.
func Download(ctx context.Context, bucket *blob.Bucket, key, dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	for _, k := range ExpandShp(key) {
		if filepath.Ext(k) == ".prj" {
			if ok, err := bucket.Exists(ctx, k); err != nil || !ok {
				continue // Projection files are optional.
			}
		}
		b, err := readBlob(ctx, bucket, k)
		if err != nil {
			return "", err
		}
		if err = ioutil.WriteFile(filepath.Join(dir, filepath.Base(k)), b, 0644); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, filepath.Base(key)), nil
}

// Upload copies the local file at path, plus the associated
// [.dbf, .shx, .prj] files if path is a shapefile, to the bucket under the
// given key. Missing .prj files are skipped.
func Upload(ctx context.Context, bucket *blob.Bucket, path, key string) error {
	keys := ExpandShp(key)
	for i, p := range ExpandShp(path) {
		b, err := ioutil.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) && filepath.Ext(p) == ".prj" {
				continue
			}
			return err
		}
		if err = writeBlob(ctx, bucket, keys[i], b); err != nil {
			return err
		}
	}
	return nil
}

// ExpandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise
func ExpandShp(filename string) []string {
	o := []string{filename}
	ext := filepath.Ext(filename)
	if ext != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
