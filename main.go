package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"sync"

	"github.com/paulmach/orb"

	"belief-driver/internal/config"
	"belief-driver/internal/episode"
	"belief-driver/internal/inference"
	"belief-driver/internal/monitoring"
	"belief-driver/internal/roadgraph"
)

// service holds what /reset needs to start a fresh episode.
type service struct {
	config episode.Config
	model  *inference.TransitionModel
	graph  *roadgraph.RoadGraph
}

var (
	globalService *service
	globalEpisode *episode.Episode
	episodeMutex  sync.Mutex
)

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Warnf("❌ Failed to encode response: %v", err)
	}
}

func notReady(w http.ResponseWriter) {
	http.Error(w, "No episode running. Call /reset first", http.StatusServiceUnavailable)
}

// POST /tick - Feed one sensor reading and get the next drive command
func tickHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		monitoring.Logf("❌ Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var reading episode.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		monitoring.Logf("❌ Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	episodeMutex.Lock()
	defer episodeMutex.Unlock()
	if globalEpisode == nil {
		notReady(w)
		return
	}

	result, err := globalEpisode.Tick(reading)
	if err != nil {
		monitoring.Warnf("❌ Tick %d failed: %v", result.Tick, err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /belief - Current occupancy belief of the other car
func beliefHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodeMutex.Lock()
	defer episodeMutex.Unlock()
	if globalEpisode == nil {
		notReady(w)
		return
	}

	belief := globalEpisode.Belief()
	response := map[string]interface{}{
		"rows":  belief.Rows(),
		"cols":  belief.Cols(),
		"probs": belief.Values(),
		"tick":  globalEpisode.Ticks(),
	}
	if tile, ok := belief.MostLikely(); ok {
		response["mostLikely"] = tile
	}
	writeJSON(w, http.StatusOK, response)
}

// GET /route - Safe route from the current node to the goal under the current belief
func routeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodeMutex.Lock()
	defer episodeMutex.Unlock()
	if globalEpisode == nil {
		notReady(w)
		return
	}

	route, ok := globalEpisode.Route()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "No safe route from the current node",
		})
		return
	}

	g := globalEpisode.Graph()
	points := make([]orb.Point, len(route))
	for i, id := range route {
		points[i] = g.Position(id)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"nodes":   route,
		"path":    points,
	})
}

// GET /getRoadGraphLines - Get graph edges as line strings for visualization
func getRoadGraphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodeMutex.Lock()
	svc := globalService
	episodeMutex.Unlock()
	if svc == nil {
		notReady(w)
		return
	}

	lines := svc.graph.LineStrings()
	monitoring.Logf("📊 Returning %d line segments", len(lines))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": len(svc.graph.Nodes),
		"numEdges": len(lines),
	})
}

// POST /reset - Start a new episode with freshly seeded particles
func resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodeMutex.Lock()
	defer episodeMutex.Unlock()
	if globalService == nil {
		notReady(w)
		return
	}

	e, err := episode.New(globalService.config, globalService.model, globalService.graph)
	if err != nil {
		monitoring.Warnf("❌ Failed to start episode: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	globalEpisode = e
	monitoring.Logf("🔄 Episode %s started", e.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"episode": e.ID,
	})
}

// GET /health - Health check endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	episodeMutex.Lock()
	defer episodeMutex.Unlock()

	status := "ready"
	response := map[string]interface{}{}
	if globalEpisode == nil {
		status = "no episode"
	} else {
		response["episode"] = globalEpisode.ID
		response["ticks"] = globalEpisode.Ticks()
	}
	if globalService != nil {
		response["numNodes"] = len(globalService.graph.Nodes)
		response["numSources"] = globalService.model.Len()
	}
	response["status"] = status
	writeJSON(w, http.StatusOK, response)
}

// newService loads the transition model and road graph and starts the first
// episode.
func newService(cfg *config.TuningConfig) (*service, *episode.Episode, error) {
	ecfg, err := episodeConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	model, err := loadTransitions(cfg)
	if err != nil {
		return nil, nil, err
	}
	graph, err := loadGraph(cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := graph.Terminal(); !ok {
		monitoring.Warnf("⚠️  Road graph has no terminal node; ticks will fail until one is added")
	}
	e, err := episode.New(ecfg, model, graph)
	if err != nil {
		return nil, nil, err
	}
	return &service{config: ecfg, model: model, graph: graph}, e, nil
}

func routes(mux *http.ServeMux) {
	mux.HandleFunc("/tick", corsMiddleware(tickHandler))
	mux.HandleFunc("/belief", corsMiddleware(beliefHandler))
	mux.HandleFunc("/route", corsMiddleware(routeHandler))
	mux.HandleFunc("/getRoadGraphLines", corsMiddleware(getRoadGraphLinesHandler))
	mux.HandleFunc("/reset", corsMiddleware(resetHandler))
	mux.HandleFunc("/health", corsMiddleware(healthHandler))
}

func main() {
	configPath := flag.String("config", "", "path to a JSON tuning file")
	envFile := flag.String("env", ".env", "optional .env file with BELIEF_DRIVER_* overrides")
	flag.Parse()

	log := monitoring.Logger()
	log.Println("========================================")
	log.Println("🚀 Belief Driver Server")
	log.Println("========================================")

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("✅ Loaded tuning config from %s", *configPath)
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := monitoring.SetLevel(cfg.GetLogLevel()); err != nil {
		log.Fatalf("❌ %v", err)
	}

	svc, e, err := newService(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	globalService, globalEpisode = svc, e

	rows, cols := svc.config.Rows, svc.config.Cols
	log.Printf("   Grid: %dx%d tiles of %.0f units", rows, cols, svc.config.Planner.Geometry.TileSize)
	log.Printf("   Transition sources: %d", svc.model.Len())
	log.Printf("   Road graph: %d nodes, %d edges", len(svc.graph.Nodes), svc.graph.EdgeCount())
	log.Printf("   Strategy: %s", svc.config.Planner.Strategy)
	log.Printf("   Episode: %s", e.ID)
	if tile, ok := e.Belief().MostLikely(); ok {
		log.Printf("   Initial most likely tile: %v (%.3f)", tile, e.Belief().ProbAt(tile))
	}

	mux := http.NewServeMux()
	routes(mux)

	addr := cfg.GetListenAddr()
	log.Printf("Server starting on %s", addr)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /tick               - Feed a sensor reading, get a drive command")
	log.Println("  GET  /belief             - Current occupancy belief")
	log.Println("  GET  /route              - Safe route to the goal")
	log.Println("  GET  /getRoadGraphLines  - Road graph edges for visualization")
	log.Println("  POST /reset              - Start a new episode")
	log.Println("  GET  /health             - Check server status")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
