package internal

import (
	"errors"

	spatialindex "region-index/spatial-index"

	"github.com/kofalt/go-memoize"
	"github.com/paulmach/orb/geojson"
)

var ErrRegionNotFound = errors.New("region not found")

type RegionsRepo interface {
	RetrieveFeature(id string) (*geojson.Feature, error)
}

// CachedRegionsRepo renders catalog regions as GeoJSON features, memoised per id.
type CachedRegionsRepo struct {
	cache *memoize.Memoizer
	index *spatialindex.Index
}

func NewRegionsRepo(index *spatialindex.Index, cache *memoize.Memoizer) RegionsRepo {
	return &CachedRegionsRepo{cache: cache, index: index}
}

func (cr *CachedRegionsRepo) RetrieveFeature(id string) (*geojson.Feature, error) {
	feature, err, _ := memoize.Call(cr.cache, id, func() (*geojson.Feature, error) {
		region, ok := cr.index.Region(id)
		if !ok {
			return nil, ErrRegionNotFound
		}
		return RegionFeature(region), nil
	})
	return feature, err
}
