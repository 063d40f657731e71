package spatialindex

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// PointIndex is an R-tree over already assigned point records, used to answer
// bounding box searches.
type PointIndex[T any] struct {
	tree *rtree.RTreeG[T]
}

func NewPointIndex[T any]() *PointIndex[T] {
	return &PointIndex[T]{tree: &rtree.RTreeG[T]{}}
}

func (idx *PointIndex[T]) Insert(p orb.Point, data T) {
	pt := [2]float64{p.X(), p.Y()}
	idx.tree.Insert(pt, pt, data)
}

func (idx *PointIndex[T]) Len() int {
	return idx.tree.Len()
}

func (idx *PointIndex[T]) SearchIter(bounds []float64, iter func(orb.Point, T) bool) error {
	if len(bounds) != 4 {
		return fmt.Errorf("search bounds must contain exactly 4 values: min_lon, min_lat, max_lon, max_lat")
	}

	sw := [2]float64{bounds[0], bounds[1]}
	ne := [2]float64{bounds[2], bounds[3]}

	idx.tree.Search(sw, ne, func(min, _ [2]float64, data T) bool {
		return iter(orb.Point{min[0], min[1]}, data)
	})
	return nil
}

func (idx *PointIndex[T]) Search(bounds []float64) ([]T, error) {
	results := make([]T, 0, 100)
	err := idx.SearchIter(bounds, func(_ orb.Point, data T) bool {
		results = append(results, data)
		return true
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
