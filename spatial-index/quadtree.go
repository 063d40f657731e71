package spatialindex

import (
	"errors"

	"github.com/paulmach/orb"
)

// MaxDepth bounds subdivision. A leaf at this depth keeps accepting polygons
// past its capacity, so inserts always terminate.
const MaxDepth = 8

var ErrInvalidCapacity = errors.New("capacity must be at least 1")

type entry struct {
	id      string
	polygon orb.MultiPolygon
}

// node is either a leaf holding entries or a split node with exactly four
// children, never both.
type node struct {
	bbox     BBox
	depth    int
	entries  []entry
	children []*node

	// closedX/closedY are set when the node's max edge lies on the root's max
	// edge, so points there still have an owner.
	closedX bool
	closedY bool
}

// Quadtree indexes polygons by id over a fixed bounding box. It is built once
// and is safe for concurrent queries once no more inserts happen.
type Quadtree struct {
	root     *node
	capacity int
}

func New(bbox BBox, capacity int) (*Quadtree, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Quadtree{
		root:     &node{bbox: bbox, closedX: true, closedY: true},
		capacity: capacity,
	}, nil
}

func (qt *Quadtree) BBox() BBox {
	return qt.root.bbox
}

func (qt *Quadtree) Capacity() int {
	return qt.capacity
}

// Insert stores the polygon in every leaf it touches. It returns false when
// the polygon lies entirely outside the tree's bbox.
func (qt *Quadtree) Insert(id string, polygon orb.MultiPolygon) bool {
	return qt.insert(qt.root, id, polygon)
}

func (qt *Quadtree) insert(n *node, id string, polygon orb.MultiPolygon) bool {
	if !n.bbox.Intersects(polygon) {
		return false
	}

	if n.isSplit() {
		qt.addToChildren(n, id, polygon)
		return true
	}

	for i := range n.entries {
		if n.entries[i].id == id {
			n.entries[i].polygon = polygon
			return true
		}
	}

	if len(n.entries) < qt.capacity || n.depth >= MaxDepth {
		n.entries = append(n.entries, entry{id: id, polygon: polygon})
		return true
	}

	n.split()
	pending := append(n.entries, entry{id: id, polygon: polygon})
	n.entries = nil
	for _, e := range pending {
		qt.addToChildren(n, e.id, e.polygon)
	}
	return true
}

func (qt *Quadtree) addToChildren(n *node, id string, polygon orb.MultiPolygon) {
	for _, child := range n.children {
		if child.bbox.Intersects(polygon) {
			qt.insert(child, id, polygon)
		}
	}
}

func (n *node) isSplit() bool {
	return n.children != nil
}

func (n *node) split() {
	quads := n.bbox.quadrants()
	n.children = make([]*node, 4)
	for i, q := range quads {
		// quadrants 2 and 3 are the east half, 1 and 3 the north half
		n.children[i] = &node{
			bbox:    q,
			depth:   n.depth + 1,
			closedX: n.closedX && i >= 2,
			closedY: n.closedY && i%2 == 1,
		}
	}
}

// owns is half-open on the max edges, except along the root's own max edges.
// Sibling quadrants therefore never both own a point.
func (n *node) owns(p orb.Point) bool {
	x, y := p.X(), p.Y()
	if !(x >= n.bbox.MinX && x <= n.bbox.MaxX && y >= n.bbox.MinY && y <= n.bbox.MaxY) {
		return false
	}
	if x == n.bbox.MaxX && !n.closedX {
		return false
	}
	if y == n.bbox.MaxY && !n.closedY {
		return false
	}
	return true
}

// Query returns the ids of every stored polygon that contains p, in traversal
// order and without duplicates.
func (qt *Quadtree) Query(p orb.Point) []string {
	ids := make([]string, 0, 1)
	seen := make(map[string]struct{}, 1)
	qt.root.query(p, func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids
}

func (n *node) query(p orb.Point, emit func(string)) {
	if !n.owns(p) {
		return
	}

	if n.isSplit() {
		for _, child := range n.children {
			if child.owns(p) {
				child.query(p, emit)
			}
		}
		return
	}

	for _, e := range n.entries {
		if PolygonContains(e.polygon, p) {
			emit(e.id)
		}
	}
}

// Node is a read-only view of one tree node handed to Walk.
type Node struct {
	BBox  BBox
	Depth int
	Split bool
	IDs   []string
}

// Walk visits nodes in pre-order. Returning false skips the node's children.
func (qt *Quadtree) Walk(fn func(Node) bool) {
	qt.root.walk(fn)
}

func (n *node) walk(fn func(Node) bool) {
	view := Node{BBox: n.bbox, Depth: n.depth, Split: n.isSplit()}
	if !view.Split {
		view.IDs = make([]string, len(n.entries))
		for i, e := range n.entries {
			view.IDs[i] = e.id
		}
	}
	if !fn(view) {
		return
	}
	for _, child := range n.children {
		child.walk(fn)
	}
}

type Stats struct {
	Nodes    int `json:"nodes"`
	Leaves   int `json:"leaves"`
	Entries  int `json:"entries"`
	MaxDepth int `json:"max_depth"`
}

func (qt *Quadtree) Stats() Stats {
	var s Stats
	qt.Walk(func(n Node) bool {
		s.Nodes++
		s.MaxDepth = max(s.MaxDepth, n.Depth)
		if !n.Split {
			s.Leaves++
			s.Entries += len(n.IDs)
		}
		return true
	})
	return s
}
