package spatialindex

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

var ErrEmptyInput = errors.New("no polygons to bound")

// BBox is an axis-aligned rectangle in (longitude, latitude) space.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func NewBBox(minX, minY, maxX, maxY float64) (BBox, error) {
	if minX > maxX || minY > maxY {
		return BBox{}, fmt.Errorf("invalid bbox: min values must be less than or equal to max values")
	}
	return BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

func FromBound(b orb.Bound) BBox {
	return BBox{MinX: b.Min.X(), MinY: b.Min.Y(), MaxX: b.Max.X(), MaxY: b.Max.Y()}
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

func (b BBox) Mid() orb.Point {
	return orb.Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// ContainsPoint is the closed containment test: points on any edge are inside.
func (b BBox) ContainsPoint(p orb.Point) bool {
	return p.X() >= b.MinX && p.X() <= b.MaxX && p.Y() >= b.MinY && p.Y() <= b.MaxY
}

// Intersects reports whether the polygon touches the box at all. Shared edges
// and corners count.
func (b BBox) Intersects(polygon orb.MultiPolygon) bool {
	if !b.Bound().Intersects(polygon.Bound()) {
		return false
	}

	for _, poly := range polygon {
		if len(poly) == 0 {
			continue
		}
		for _, pt := range poly[0] {
			if b.ContainsPoint(pt) {
				return true
			}
		}
	}

	corners := b.corners()
	for _, c := range corners {
		if PolygonContains(polygon, c) {
			return true
		}
	}

	for _, poly := range polygon {
		for _, ring := range poly {
			for i := range ring {
				a, z := ring[i], ring[(i+1)%len(ring)]
				for j := range corners {
					if segmentsIntersect(a, z, corners[j], corners[(j+1)%4]) {
						return true
					}
				}
			}
		}
	}
	return false
}

func (b BBox) corners() [4]orb.Point {
	return [4]orb.Point{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
	}
}

// quadrants splits the box at its midpoint, in SW, NW, SE, NE order.
func (b BBox) quadrants() [4]BBox {
	mid := b.Mid()
	mx, my := mid.X(), mid.Y()
	return [4]BBox{
		{MinX: b.MinX, MinY: b.MinY, MaxX: mx, MaxY: my},
		{MinX: b.MinX, MinY: my, MaxX: mx, MaxY: b.MaxY},
		{MinX: mx, MinY: b.MinY, MaxX: b.MaxX, MaxY: my},
		{MinX: mx, MinY: my, MaxX: b.MaxX, MaxY: b.MaxY},
	}
}

// BBoxOf returns the tightest box covering every vertex of every polygon.
func BBoxOf(polygons []orb.MultiPolygon) (BBox, error) {
	if len(polygons) == 0 {
		return BBox{}, ErrEmptyInput
	}

	out := BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	seen := false
	for _, mp := range polygons {
		for _, poly := range mp {
			for _, ring := range poly {
				for _, pt := range ring {
					seen = true
					out.MinX = math.Min(out.MinX, pt.X())
					out.MinY = math.Min(out.MinY, pt.Y())
					out.MaxX = math.Max(out.MaxX, pt.X())
					out.MaxY = math.Max(out.MaxY, pt.Y())
				}
			}
		}
	}
	if !seen {
		return BBox{}, ErrEmptyInput
	}
	return out, nil
}
