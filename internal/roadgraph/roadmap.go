package roadgraph

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"belief-driver/internal/monitoring"
)

// RoadmapConfig describes a probabilistic roadmap over a rectangular area.
type RoadmapConfig struct {
	Bounds           orb.Bound
	NumSamples       int
	ConnectionRadius float64
	Start            orb.Point
	Goal             orb.Point
	ArrivalTolerance float64
}

// BuildRoadmap samples random waypoints inside the bounds and connects every
// pair closer than the connection radius in both directions. The start and
// goal points are always included as nodes 0 and 1; node 1 is the terminal.
func BuildRoadmap(cfg RoadmapConfig, rng *rand.Rand) (*RoadGraph, error) {
	if cfg.NumSamples < 0 {
		return nil, fmt.Errorf("invalid sample count %d", cfg.NumSamples)
	}
	if cfg.ConnectionRadius <= 0 {
		return nil, fmt.Errorf("invalid connection radius %v", cfg.ConnectionRadius)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	startTime := time.Now()
	monitoring.Logf("🗺️  Building roadmap with %d samples...", cfg.NumSamples)

	nodes := make([]Node, 0, cfg.NumSamples+2)
	nodes = append(nodes,
		Node{ID: 0, Point: cfg.Start, Edges: []int{}},
		Node{ID: 1, Point: cfg.Goal, Terminal: true, Edges: []int{}},
	)

	// Step 1: Random sampling within the bounds
	width := cfg.Bounds.Max.X() - cfg.Bounds.Min.X()
	height := cfg.Bounds.Max.Y() - cfg.Bounds.Min.Y()
	for i := 0; i < cfg.NumSamples; i++ {
		p := orb.Point{
			cfg.Bounds.Min.X() + rng.Float64()*width,
			cfg.Bounds.Min.Y() + rng.Float64()*height,
		}
		nodes = append(nodes, Node{ID: len(nodes), Point: p, Edges: []int{}})
	}

	// Step 2: Connect nearby nodes
	index := NewSpatialIndex(nodes)
	r := cfg.ConnectionRadius
	for i := range nodes {
		p := nodes[i].Point
		for _, j := range index.Within(p.X()-r, p.Y()-r, p.X()+r, p.Y()+r) {
			if j <= i {
				continue
			}
			if planar.Distance(p, nodes[j].Point) <= r {
				nodes[i].Edges = append(nodes[i].Edges, j)
				nodes[j].Edges = append(nodes[j].Edges, i)
			}
		}
	}
	for i := range nodes {
		slices.Sort(nodes[i].Edges)
	}

	graph, err := New(nodes, cfg.ArrivalTolerance)
	if err != nil {
		return nil, err
	}

	monitoring.Logf("   ✅ Roadmap built: %d nodes, %d edges in %.2fs", len(nodes), graph.EdgeCount(), time.Since(startTime).Seconds())
	return graph, nil
}
