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
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/forestcarbon"
)

// Shapefile attribute names for region names and biomes.
const (
	NameField  = "ECO_NAME"
	BiomeField = "BIOME_NAME"
)

// readRegions reads the polygons in the shapefile at path. If sr is not
// nil, the polygons are projected to it. Rows without polygonal geometry
// are skipped.
func readRegions(path string, sr *proj.SR) ([]forestcarbon.Region, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	var trans proj.Transformer
	if sr != nil {
		shpSR, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("gridstore: reading projection for %s: %v", path, err)
		}
		if trans, err = shpSR.NewTransform(sr); err != nil {
			return nil, fmt.Errorf("gridstore: projecting %s: %v", path, err)
		}
	}

	var o []forestcarbon.Region
	for {
		g, fields, more := d.DecodeRowFields(NameField, BiomeField)
		if !more {
			break
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("gridstore: projecting %s: %v", path, err)
			}
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		o = append(o, forestcarbon.Region{
			Polygonal: p,
			Name:      trimAttribute(fields[NameField]),
			Biome:     trimAttribute(fields[BiomeField]),
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("gridstore: decoding %s: %v", path, err)
	}
	return o, nil
}

// trimAttribute removes the padding from a dBASE attribute value.
func trimAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// writeRegions writes regions to a polygon shapefile at path.
func writeRegions(path string, regions []forestcarbon.Region) error {
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON,
		goshp.StringField(NameField, 100), goshp.StringField(BiomeField, 100))
	if err != nil {
		return fmt.Errorf("gridstore: creating %s: %v", path, err)
	}
	for _, r := range regions {
		var p geom.Polygon
		for _, pp := range r.Polygons() {
			p = append(p, pp...)
		}
		if err := e.EncodeFields(p, r.Name, r.Biome); err != nil {
			e.Close()
			return fmt.Errorf("gridstore: writing %s: %v", path, err)
		}
	}
	e.Close()
	return nil
}

// removeShapefile removes the files that make up the shapefile at path.
func removeShapefile(path string) {
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		os.Remove(base + ext)
	}
}
