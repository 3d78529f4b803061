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

package forestcarbonutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/forestcarbon/cloud"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL.
// If it's a URL, it downloads the file and
// returns the path to the downloaded file.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	if path == "" {
		return path, nil
	}
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	// If the path starts with one of these prefixes, download the file and
	// return the location it was downloaded to.
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		log.WithField("url", path).Info("downloading file")
		return downloadHTTP(path)
	}
	if cloud.IsBlob(path) {
		log.WithField("url", path).Info("downloading blob")
		return downloadBlob(ctx, path)
	}
	return path, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(path string) (string, error) {
	// Prepare a temporary directory for the downloads.
	dir, err := ioutil.TempDir("", "forestcarbon")
	if err != nil {
		return path, fmt.Errorf("forestcarbonutil: failed creating temporary download directory: %v", err)
	}

	fnames := cloud.ExpandShp(path)
	for _, fname := range fnames {
		if err := downloadHTTPFile(fname, filepath.Join(dir, filepath.Base(fname))); err != nil {
			return path, err
		}
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

func downloadHTTPFile(url, dst string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("forestcarbonutil: downloading %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("forestcarbonutil: downloading %s: %s", url, resp.Status)
	}
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("forestcarbonutil: failed creating file for download: %v", err)
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return fmt.Errorf("forestcarbonutil: downloading %s: %v", url, err)
	}
	return w.Close()
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string) (string, error) {
	bucketName, key, err := cloud.SplitURL(path)
	if err != nil {
		return path, err
	}
	bucket, err := cloud.OpenBucket(ctx, bucketName)
	if err != nil {
		return path, err
	}
	defer bucket.Close()
	dir, err := ioutil.TempDir("", "forestcarbon")
	if err != nil {
		return path, fmt.Errorf("forestcarbonutil: failed creating temporary download directory: %v", err)
	}
	return cloud.Download(ctx, bucket, key, dir)
}
