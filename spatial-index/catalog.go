package spatialindex

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// DefaultCapacity suits catalogs of tens to low hundreds of regions.
const DefaultCapacity = 5

var (
	ErrEmptyCatalog    = errors.New("region catalog is empty")
	ErrDuplicateRegion = errors.New("duplicate region id")
)

// Region is a named statistical area, such as a PUMA or a community area.
type Region struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Polygon orb.MultiPolygon `json:"-"`
}

// NewRegion wraps a single outer ring.
func NewRegion(id, name string, ring orb.Ring) Region {
	return Region{ID: id, Name: name, Polygon: orb.MultiPolygon{orb.Polygon{ring}}}
}

// Index is a quadtree over a region catalog, plus id lookups into it.
type Index struct {
	tree    *Quadtree
	regions []Region
	byID    map[string]int
}

type indexConfig struct {
	capacity int
}

type IndexOption func(*indexConfig)

func WithCapacity(capacity int) IndexOption {
	return func(c *indexConfig) {
		c.capacity = capacity
	}
}

// BuildIndex validates the catalog and inserts every region keyed by id.
// Any error means no index: a partial index would silently misassign points.
func BuildIndex(regions []Region, opts ...IndexOption) (*Index, error) {
	cfg := indexConfig{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(regions) == 0 {
		return nil, ErrEmptyCatalog
	}

	byID := make(map[string]int, len(regions))
	polygons := make([]orb.MultiPolygon, len(regions))
	for i, r := range regions {
		if _, exists := byID[r.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRegion, r.ID)
		}
		if err := ValidatePolygon(r.Polygon); err != nil {
			return nil, fmt.Errorf("region %q (%s): %w", r.ID, r.Name, err)
		}
		byID[r.ID] = i
		polygons[i] = r.Polygon
	}

	bbox, err := BBoxOf(polygons)
	if err != nil {
		return nil, fmt.Errorf("failed to compute catalog bbox: %w", err)
	}

	tree, err := New(bbox, cfg.capacity)
	if err != nil {
		return nil, err
	}
	for _, r := range regions {
		tree.Insert(r.ID, r.Polygon)
	}

	return &Index{tree: tree, regions: regions, byID: byID}, nil
}

func (idx *Index) Query(p orb.Point) []string {
	return idx.tree.Query(p)
}

func (idx *Index) Region(id string) (Region, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Region{}, false
	}
	return idx.regions[i], true
}

func (idx *Index) Regions() []Region {
	return idx.regions
}

func (idx *Index) Len() int {
	return len(idx.regions)
}

func (idx *Index) BBox() BBox {
	return idx.tree.BBox()
}

func (idx *Index) Stats() Stats {
	return idx.tree.Stats()
}

func (idx *Index) Tree() *Quadtree {
	return idx.tree
}
