package roadgraph

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"belief-driver/internal/monitoring"
)

// GeoJSONOptions controls how a road network is read from GeoJSON.
type GeoJSONOptions struct {
	// SimplifyTolerance drops polyline vertices closer than this to the
	// simplified line (Douglas-Peucker). Zero keeps every vertex.
	SimplifyTolerance float64
	ArrivalTolerance  float64
}

// LoadGeoJSON reads a road network from a GeoJSON file.
func LoadGeoJSON(filename string, opts GeoJSONOptions) (*RoadGraph, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	graph, err := FromFeatureCollection(fc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	monitoring.Logf("   ✅ Loaded %d nodes and %d edges from %s", len(graph.Nodes), graph.EdgeCount(), filename)
	return graph, nil
}

// FromFeatureCollection converts road features into a graph.
//
// Every LineString (or MultiLineString) vertex becomes a node, vertices shared
// between features are merged, and consecutive vertices are joined by a
// directed edge in drawing order. A feature with "bidirectional": true also
// gets the reverse edges. A Point feature with "terminal": true marks the
// goal: the node at that coordinate, or the nearest one.
func FromFeatureCollection(fc *geojson.FeatureCollection, opts GeoJSONOptions) (*RoadGraph, error) {
	b := newBuilder()
	var terminals []orb.Point

	for _, feature := range fc.Features {
		bidirectional := feature.Properties.MustBool("bidirectional", false)

		switch geom := feature.Geometry.(type) {
		case nil:
			continue
		case orb.LineString:
			b.addLine(simplifyLine(geom, opts.SimplifyTolerance), bidirectional)
		case orb.MultiLineString:
			for _, ls := range geom {
				b.addLine(simplifyLine(ls, opts.SimplifyTolerance), bidirectional)
			}
		case orb.Point:
			if feature.Properties.MustBool("terminal", false) {
				terminals = append(terminals, geom)
			}
		default:
			monitoring.Warnf("⚠️  Ignoring %s feature in road network", feature.Geometry.GeoJSONType())
		}
	}

	graph, err := New(b.nodes, opts.ArrivalTolerance)
	if err != nil {
		return nil, err
	}
	for _, p := range terminals {
		id, ok := b.ids[p]
		if !ok {
			id, ok = graph.NearestNode(p)
		}
		if ok {
			graph.Nodes[id].Terminal = true
		}
	}
	return graph, nil
}

func simplifyLine(ls orb.LineString, tolerance float64) orb.LineString {
	if tolerance <= 0 || len(ls) <= 2 {
		return ls
	}
	return simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
}

type builder struct {
	nodes []Node
	ids   map[orb.Point]int
	edges map[[2]int]bool
}

func newBuilder() *builder {
	return &builder{
		ids:   make(map[orb.Point]int),
		edges: make(map[[2]int]bool),
	}
}

func (b *builder) node(p orb.Point) int {
	if id, ok := b.ids[p]; ok {
		return id
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{ID: id, Point: p, Edges: []int{}})
	b.ids[p] = id
	return id
}

func (b *builder) edge(from, to int) {
	if from == to || b.edges[[2]int{from, to}] {
		return
	}
	b.edges[[2]int{from, to}] = true
	b.nodes[from].Edges = append(b.nodes[from].Edges, to)
}

func (b *builder) addLine(ls orb.LineString, bidirectional bool) {
	if len(ls) == 0 {
		return
	}
	prev := b.node(ls[0])
	for _, p := range ls[1:] {
		cur := b.node(p)
		b.edge(prev, cur)
		if bidirectional {
			b.edge(cur, prev)
		}
		prev = cur
	}
}
