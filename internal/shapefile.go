package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	spatialindex "region-index/spatial-index"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

type shapeReader interface {
	Next() bool
	Shape() (int, shp.Shape)
	Fields() []shp.Field
	Err() error
	Close() error
}

// LoadShapefile reads polygon shapes and their DBF attributes. Coordinates
// must already be lon/lat; no reprojection happens here.
func LoadShapefile(filename string, opts LoadOptions) ([]spatialindex.Region, error) {
	r, err := shp.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", filename, err)
	}

	dbf := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".dbf"
	if _, err := os.Stat(dbf); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("shapefile %s has no attribute table: %w", filename, err)
	}
	return readShapes(filename, r, r.ReadAttribute, opts)
}

// LoadZippedShapefile reads a zip bundle holding a single shapefile with its
// .dbf alongside, the usual way shapefiles are published for download.
func LoadZippedShapefile(filename string, opts LoadOptions) ([]spatialindex.Region, error) {
	zr, err := shp.OpenZip(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open zipped shapefile %s: %w", filename, err)
	}
	return readShapes(filename, zr, func(_ int, field int) string {
		return zr.Attribute(field)
	}, opts)
}

func readShapes(filename string, r shapeReader, readAttribute func(row, field int) string, opts LoadOptions) ([]spatialindex.Region, error) {
	opts = opts.withDefaults()
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("error closing shapefile %s: %v", filename, err)
		}
	}()

	fields := r.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("shapefile %s has no attribute table", filename)
	}

	idCol, nameCol := -1, -1
	for i, f := range fields {
		switch strings.TrimRight(f.String(), "\x00 ") {
		case opts.IDField:
			idCol = i
		case opts.NameField:
			nameCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("shapefile %s has no '%s' field", filename, opts.IDField)
	}

	var regions []spatialindex.Region
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			log.Printf("skipping shape %d in %s: %T is not a polygon", n, filename, shape)
			continue
		}

		name := ""
		if nameCol >= 0 {
			name = attribute(readAttribute(n, nameCol))
		}
		if !opts.keep(name) {
			continue
		}

		regions = append(regions, spatialindex.Region{
			ID:      opts.normaliseID(attribute(readAttribute(n, idCol))),
			Name:    name,
			Polygon: polygonFromParts(poly.Parts, poly.Points),
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile %s: %w", filename, err)
	}
	return regions, nil
}

func attribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// polygonFromParts follows the ESRI ring convention: clockwise rings are
// outer boundaries, counter-clockwise rings are holes in the preceding one.
func polygonFromParts(parts []int32, points []shp.Point) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}

		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}
