package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"belief-driver/internal/config"
	"belief-driver/internal/drive"
	"belief-driver/internal/episode"
	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
	"belief-driver/internal/monitoring"
	"belief-driver/internal/planner"
	"belief-driver/internal/roadgraph"
	"belief-driver/internal/transdb"
)

// episodeConfig maps the tuning file onto the per-component settings.
func episodeConfig(cfg *config.TuningConfig) (episode.Config, error) {
	strategy, err := planner.ParseStrategy(cfg.GetStrategy())
	if err != nil {
		return episode.Config{}, err
	}
	geometry := grid.Geometry{TileSize: cfg.GetTileSize()}

	return episode.Config{
		Rows:       cfg.GetGridRows(),
		Cols:       cfg.GetGridCols(),
		Population: cfg.GetPopulationSize(),
		Filter: inference.FilterConfig{
			SensorStd: cfg.GetSensorStd(),
			Geometry:  geometry,
		},
		Planner: planner.Config{
			Strategy:            strategy,
			RiskThreshold:       cfg.GetRiskThreshold(),
			SearchRiskThreshold: cfg.GetSearchRiskThreshold(),
			RiskPenalty:         cfg.GetRiskPenalty(),
			Geometry:            geometry,
		},
		Adapter: drive.AdapterConfig{
			CarLength:       cfg.GetCarLength(),
			LookaheadFactor: cfg.GetLookaheadFactor(),
			CloseThreshold:  cfg.GetCloseThreshold(),
		},
		Seed: cfg.GetSeed(),
	}, nil
}

// loadTransitions reads the configured transition table. JSON and CSV files go
// through the inference loader, .db/.sqlite files through transdb. Without a
// path the tracker falls back to a random walk over the grid.
func loadTransitions(cfg *config.TuningConfig) (*inference.TransitionModel, error) {
	path := cfg.GetTransitionsPath()
	if path == "" {
		monitoring.Logf("ℹ️  No transitions configured, using a %dx%d random walk", cfg.GetGridRows(), cfg.GetGridCols())
		return inference.NewTransitionModel(inference.RandomWalk(cfg.GetGridRows(), cfg.GetGridCols())), nil
	}

	var transitions []inference.Transition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		store, err := transdb.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if transitions, err = store.Load(); err != nil {
			return nil, err
		}
		monitoring.Logf("📂 Loaded %d transitions from %s", len(transitions), path)
	default:
		var err error
		if transitions, err = inference.LoadTransitions(path); err != nil {
			return nil, err
		}
	}

	model := inference.NewTransitionModel(transitions)
	if err := model.Validate(1e-6); err != nil {
		monitoring.Warnf("⚠️  Transition table is not closed: %v", err)
	}
	return model, nil
}

// loadGraph reads the configured road network, or samples a roadmap over the
// grid from its top-left to its bottom-right tile when none is configured.
func loadGraph(cfg *config.TuningConfig) (*roadgraph.RoadGraph, error) {
	path := cfg.GetGraphPath()
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
	case ".geojson":
		return roadgraph.LoadGeoJSON(path, roadgraph.GeoJSONOptions{ArrivalTolerance: cfg.GetArrivalTolerance()})
	case ".json":
		g, err := roadgraph.Load(path)
		if err != nil {
			return nil, err
		}
		if cfg.ArrivalTolerance != nil {
			g.ArrivalTolerance = *cfg.ArrivalTolerance
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported road graph file %q", path)
	}

	geometry := grid.Geometry{TileSize: cfg.GetTileSize()}
	rows, cols := cfg.GetGridRows(), cfg.GetGridCols()
	bounds := orb.Bound{
		Min: orb.Point{0, 0},
		Max: orb.Point{float64(cols) * geometry.TileSize, float64(rows) * geometry.TileSize},
	}
	seed := cfg.GetSeed()
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}
	monitoring.Logf("ℹ️  No road graph configured, sampling a roadmap")
	return roadgraph.BuildRoadmap(roadgraph.RoadmapConfig{
		Bounds:           bounds,
		NumSamples:       rows * cols / 2,
		ConnectionRadius: 3 * geometry.TileSize,
		Start:            geometry.Center(grid.Tile{Row: 0, Col: 0}),
		Goal:             geometry.Center(grid.Tile{Row: rows - 1, Col: cols - 1}),
		ArrivalTolerance: cfg.GetArrivalTolerance(),
	}, rng)
}
