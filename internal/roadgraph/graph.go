package roadgraph

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultArrivalTolerance is how close a position must be to a node to count
// as being at it.
const DefaultArrivalTolerance = 10.0

// ErrNoNodes is returned when a graph has no nodes to work with.
var ErrNoNodes = errors.New("road graph has no nodes")

// Node is one waypoint of the road network. Edges are directed: a car at
// this node may drive to any node listed in Edges.
type Node struct {
	ID       int       `json:"id"`
	Point    orb.Point `json:"point"`
	Terminal bool      `json:"terminal,omitempty"`
	Edges    []int     `json:"edges"` // IDs of successor nodes
}

// RoadGraph is an immutable directed road network. Node IDs equal their
// index in Nodes.
type RoadGraph struct {
	Nodes            []Node  `json:"nodes"`
	ArrivalTolerance float64 `json:"arrivalTolerance,omitempty"`

	index *SpatialIndex
}

// New validates nodes and builds the nearest-node index.
func New(nodes []Node, arrivalTolerance float64) (*RoadGraph, error) {
	g := &RoadGraph{Nodes: nodes, ArrivalTolerance: arrivalTolerance}
	if err := g.init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *RoadGraph) init() error {
	if len(g.Nodes) == 0 {
		return ErrNoNodes
	}
	var errs []error
	for i, n := range g.Nodes {
		if n.ID != i {
			errs = append(errs, fmt.Errorf("node %d stored at index %d", n.ID, i))
		}
		for _, to := range n.Edges {
			if to < 0 || to >= len(g.Nodes) {
				errs = append(errs, fmt.Errorf("node %d: edge to unknown node %d", n.ID, to))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if g.ArrivalTolerance <= 0 {
		g.ArrivalTolerance = DefaultArrivalTolerance
	}
	g.index = NewSpatialIndex(g.Nodes)
	return nil
}

func (g *RoadGraph) has(id int) bool {
	return id >= 0 && id < len(g.Nodes)
}

// NodeIDs returns every node ID in ascending order.
func (g *RoadGraph) NodeIDs() []int {
	ids := make([]int, len(g.Nodes))
	for i := range g.Nodes {
		ids[i] = i
	}
	return ids
}

// Node returns the node with the given ID.
func (g *RoadGraph) Node(id int) (Node, bool) {
	if !g.has(id) {
		return Node{}, false
	}
	return g.Nodes[id], true
}

// Position returns a node's location; unknown IDs yield the origin.
func (g *RoadGraph) Position(id int) orb.Point {
	if !g.has(id) {
		return orb.Point{}
	}
	return g.Nodes[id].Point
}

// IsTerminal reports whether id is the goal node.
func (g *RoadGraph) IsTerminal(id int) bool {
	return g.has(id) && g.Nodes[id].Terminal
}

// Successors returns the IDs reachable from id over one edge.
func (g *RoadGraph) Successors(id int) []int {
	if !g.has(id) {
		return nil
	}
	return g.Nodes[id].Edges
}

// Terminal returns the first node flagged as the goal.
func (g *RoadGraph) Terminal() (int, bool) {
	for _, n := range g.Nodes {
		if n.Terminal {
			return n.ID, true
		}
	}
	return -1, false
}

// NearestNode returns the node closest to p.
func (g *RoadGraph) NearestNode(p orb.Point) (int, bool) {
	if g.index == nil {
		return -1, false
	}
	return g.index.Nearest(p)
}

// AtNode reports whether p is within the arrival tolerance of node id.
func (g *RoadGraph) AtNode(id int, p orb.Point) bool {
	if !g.has(id) {
		return false
	}
	return planar.Distance(g.Nodes[id].Point, p) <= g.ArrivalTolerance
}

// LineStrings returns one segment per directed edge for visualization.
func (g *RoadGraph) LineStrings() []orb.LineString {
	lines := make([]orb.LineString, 0)
	for _, node := range g.Nodes {
		for _, to := range node.Edges {
			lines = append(lines, orb.LineString{node.Point, g.Nodes[to].Point})
		}
	}
	return lines
}

// EdgeCount returns the number of directed edges.
func (g *RoadGraph) EdgeCount() int {
	n := 0
	for _, node := range g.Nodes {
		n += len(node.Edges)
	}
	return n
}
