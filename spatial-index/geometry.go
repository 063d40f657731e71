package spatialindex

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var ErrDegeneratePolygon = errors.New("degenerate polygon")

// PolygonContains is a ray casting point-in-polygon test. Holes are excluded,
// points on a ring boundary are inside.
func PolygonContains(polygon orb.MultiPolygon, p orb.Point) bool {
	return planar.MultiPolygonContains(polygon, p)
}

// Area is the planar area in square degrees; only used to rank overlapping matches.
func Area(polygon orb.MultiPolygon) float64 {
	return planar.Area(polygon)
}

// ValidatePolygon rejects geometry that could never match a point.
func ValidatePolygon(polygon orb.MultiPolygon) error {
	if len(polygon) == 0 {
		return fmt.Errorf("%w: no polygons", ErrDegeneratePolygon)
	}
	for i, poly := range polygon {
		if len(poly) == 0 {
			return fmt.Errorf("%w: polygon %d has no rings", ErrDegeneratePolygon, i)
		}
		for j, ring := range poly {
			if n := distinctVertices(ring); n < 3 {
				return fmt.Errorf("%w: polygon %d ring %d has %d distinct vertices", ErrDegeneratePolygon, i, j, n)
			}
			if planar.Area(ring) == 0 {
				return fmt.Errorf("%w: polygon %d ring %d has zero area", ErrDegeneratePolygon, i, j)
			}
		}
	}
	return nil
}

func distinctVertices(ring orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(ring))
	for _, pt := range ring {
		seen[pt] = struct{}{}
	}
	return len(seen)
}

// segmentsIntersect includes collinear overlaps and shared endpoints.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross(a, b, c orb.Point) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func onSegment(a, b, p orb.Point) bool {
	return min(a.X(), b.X()) <= p.X() && p.X() <= max(a.X(), b.X()) &&
		min(a.Y(), b.Y()) <= p.Y() && p.Y() <= max(a.Y(), b.Y())
}
