package internal

import (
	"fmt"
	"strconv"
	"strings"

	spatialindex "region-index/spatial-index"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadOptions names the attributes that carry a region's id and display name.
type LoadOptions struct {
	IDField   string
	NameField string
	// NamePrefix keeps only regions whose name starts with it, e.g. the
	// "Chicago City" PUMAs of a statewide file.
	NamePrefix string
	// ZeroPad left-pads ids with zeros to this width.
	ZeroPad int
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.IDField == "" {
		o.IDField = "id"
	}
	if o.NameField == "" {
		o.NameField = "name"
	}
	return o
}

func (o LoadOptions) keep(name string) bool {
	return o.NamePrefix == "" || strings.HasPrefix(name, o.NamePrefix)
}

func (o LoadOptions) normaliseID(id string) string {
	id = strings.TrimSpace(id)
	if pad := o.ZeroPad - len(id); pad > 0 {
		id = strings.Repeat("0", pad) + id
	}
	return id
}

// LoadRegions reads a region catalog from a local path or URL. The format is
// chosen by extension: .geojson/.json, .geojson.bz2/.json.bz2, .shp or a .zip
// shapefile bundle. A bare .shp cannot be fetched by URL because its .dbf
// would be left behind.
func LoadRegions(uri string, opts LoadOptions) ([]spatialindex.Region, error) {
	opts = opts.withDefaults()
	if isValidUrl(uri) && strings.HasSuffix(strings.ToLower(fileSuffix(uri)), ".shp") {
		return nil, fmt.Errorf("shapefile URLs must point at a .zip bundle holding the .shp and .dbf: %s", uri)
	}
	return TransientDownload(uri, func(filename string) ([]spatialindex.Region, error) {
		lower := strings.ToLower(filename)
		switch {
		case strings.HasSuffix(lower, ".geojson.bz2"), strings.HasSuffix(lower, ".json.bz2"):
			fc, err := DecompressFeatureCollection(filename)
			if err != nil {
				return nil, fmt.Errorf("failed to load regions from %s: %w", filename, err)
			}
			return RegionsFromFeatureCollection(fc, opts)
		case strings.HasSuffix(lower, ".geojson"), strings.HasSuffix(lower, ".json"):
			fc, err := ReadFeatureCollection(filename)
			if err != nil {
				return nil, fmt.Errorf("failed to load regions from %s: %w", filename, err)
			}
			return RegionsFromFeatureCollection(fc, opts)
		case strings.HasSuffix(lower, ".shp"):
			return LoadShapefile(filename, opts)
		case strings.HasSuffix(lower, ".zip"):
			return LoadZippedShapefile(filename, opts)
		default:
			return nil, fmt.Errorf("unsupported region catalog format: %s", filename)
		}
	})
}

func RegionsFromFeatureCollection(fc *geojson.FeatureCollection, opts LoadOptions) ([]spatialindex.Region, error) {
	opts = opts.withDefaults()
	regions := make([]spatialindex.Region, 0, len(fc.Features))

	for i, feature := range fc.Features {
		name := propertyString(feature.Properties[opts.NameField])
		if !opts.keep(name) {
			continue
		}

		id := propertyString(feature.Properties[opts.IDField])
		if id == "" {
			id = propertyString(feature.ID)
		}
		if id == "" {
			return nil, fmt.Errorf("feature %d: missing or invalid '%s' property", i, opts.IDField)
		}

		var polygon orb.MultiPolygon
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			polygon = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			polygon = g
		default:
			return nil, fmt.Errorf("feature %q: geometry %T is not a polygon", id, feature.Geometry)
		}

		regions = append(regions, spatialindex.Region{
			ID:      opts.normaliseID(id),
			Name:    name,
			Polygon: polygon,
		})
	}
	return regions, nil
}

func FeatureCollectionFromRegions(regions []spatialindex.Region) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(regions))
	for _, r := range regions {
		fc.Append(RegionFeature(r))
	}
	return fc
}

func RegionFeature(r spatialindex.Region) *geojson.Feature {
	var g orb.Geometry = r.Polygon
	if len(r.Polygon) == 1 {
		g = r.Polygon[0]
	}
	feature := geojson.NewFeature(g)
	feature.ID = r.ID
	feature.Properties["id"] = r.ID
	feature.Properties["name"] = r.Name
	return feature
}

func propertyString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}
