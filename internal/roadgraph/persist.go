package roadgraph

import (
	"encoding/json"
	"fmt"
	"os"

	"belief-driver/internal/monitoring"
)

// Save serializes and saves the graph to a JSON file
func Save(graph *RoadGraph, filename string) error {
	monitoring.Logf("💾 Saving road graph to %s...", filename)

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	monitoring.Logf("   ✅ Graph saved (%d bytes)", len(data))
	return nil
}

// Load deserializes a graph from a JSON file and rebuilds its index.
func Load(filename string) (*RoadGraph, error) {
	monitoring.Logf("📂 Loading road graph from %s...", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var graph RoadGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	if err := graph.init(); err != nil {
		return nil, fmt.Errorf("invalid graph in %s: %w", filename, err)
	}

	monitoring.Logf("   ✅ Graph loaded: %d nodes, %d edges", len(graph.Nodes), graph.EdgeCount())
	return &graph, nil
}
