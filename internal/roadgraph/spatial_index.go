package roadgraph

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// pointTolerance is the half-size of the box each node occupies in the tree.
const pointTolerance = 1e-6

// nodeEntry wraps a node for R-tree storage
type nodeEntry struct {
	ID   int
	BBox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *nodeEntry) Bounds() rtreego.Rect {
	return e.BBox
}

// SpatialIndex answers nearest-node queries over a fixed node set.
type SpatialIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewSpatialIndex creates a new spatial index
func NewSpatialIndex(nodes []Node) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for _, n := range nodes {
		tree.Insert(&nodeEntry{
			ID:   n.ID,
			BBox: rtreego.Point{n.Point.X(), n.Point.Y()}.ToRect(pointTolerance),
		})
	}

	return &SpatialIndex{tree: tree, size: len(nodes)}
}

// Nearest returns the ID of the node closest to p.
func (si *SpatialIndex) Nearest(p orb.Point) (int, bool) {
	if si.size == 0 {
		return -1, false
	}
	hit := si.tree.NearestNeighbor(rtreego.Point{p.X(), p.Y()})
	if hit == nil {
		return -1, false
	}
	return hit.(*nodeEntry).ID, true
}

// Within returns the IDs of nodes inside the box [minX,maxX] x [minY,maxY].
func (si *SpatialIndex) Within(minX, minY, maxX, maxY float64) []int {
	if maxX <= minX || maxY <= minY {
		return []int{}
	}
	bbox, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	if err != nil {
		return []int{}
	}

	results := si.tree.SearchIntersect(bbox)
	ids := make([]int, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.(*nodeEntry).ID)
	}
	return ids
}
