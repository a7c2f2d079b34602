// Package episode runs one driving episode: it feeds sensor readings to the
// tracker, asks the planner for a waypoint and turns it into a command.
package episode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"belief-driver/internal/drive"
	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
	"belief-driver/internal/monitoring"
	"belief-driver/internal/planner"
	"belief-driver/internal/roadgraph"
)

// Config assembles the per-component settings of an episode.
type Config struct {
	Rows       int
	Cols       int
	Population int
	Filter     inference.FilterConfig
	Planner    planner.Config
	Adapter    drive.AdapterConfig
	Seed       uint64 // zero seeds from the clock
}

// Reading is one tick of sensor input.
type Reading struct {
	Pose         drive.Pose `json:"pose"`
	ObservedDist float64    `json:"observedDist"`
}

// TickResult is what one tick produced.
type TickResult struct {
	Tick     int              `json:"tick"`
	Command  drive.Command    `json:"command"`
	Decision planner.Decision `json:"decision"`
	Target   *orb.Point       `json:"target,omitempty"`
}

// Episode owns the tracker and planner state of one drive. It is not safe
// for concurrent use.
type Episode struct {
	ID string

	graph   planner.NavGraph
	filter  *inference.ParticleFilter
	planner *planner.PathPlanner
	adapter *drive.Adapter
	ticks   int
	log     *logrus.Entry
}

// New creates an episode and seeds its particle filter. graph must be
// non-nil, including a nil *roadgraph.RoadGraph behind the interface.
func New(cfg Config, model *inference.TransitionModel, graph planner.NavGraph) (*Episode, error) {
	if rg, ok := graph.(*roadgraph.RoadGraph); graph == nil || (ok && rg == nil) {
		return nil, errors.New("episode needs a road graph")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	cfg.Filter.Geometry = cfg.Planner.Geometry
	filter := inference.NewParticleFilter(model, cfg.Filter, rng)
	if err := filter.Initialize(cfg.Rows, cfg.Cols, cfg.Population); err != nil {
		return nil, fmt.Errorf("failed to initialize particle filter: %w", err)
	}

	id := uuid.NewString()
	e := &Episode{
		ID:      id,
		graph:   graph,
		filter:  filter,
		planner: planner.New(cfg.Planner, rng),
		adapter: drive.NewAdapter(cfg.Adapter, cfg.Planner.Geometry),
		log:     monitoring.Component("episode").WithField("episode", id),
	}
	e.log.WithFields(logrus.Fields{
		"rows":       cfg.Rows,
		"cols":       cfg.Cols,
		"population": cfg.Population,
		"strategy":   string(cfg.Planner.Strategy),
	}).Info("episode started")
	return e, nil
}

// Tick runs observe, elapseTime and updateBelief, then plans against the
// predicted belief and produces a command. A planner that cannot move
// yields a hold command; the next tick plans again.
func (e *Episode) Tick(r Reading) (TickResult, error) {
	e.ticks++
	pos := r.Pose.Pos

	e.filter.Observe(pos.X(), pos.Y(), r.ObservedDist)
	e.filter.ElapseTime()
	e.filter.UpdateBelief()
	belief := e.filter.Belief()

	result := TickResult{Tick: e.ticks}
	decision, err := e.planner.Step(belief, e.graph, pos)
	result.Decision = decision
	if err != nil {
		result.Command = e.adapter.Hold()
		return result, err
	}

	// Stall and no-route name the current node; the car holds there.
	if decision.Moving() {
		target := e.graph.Position(decision.Next)
		result.Target = &target
		result.Command = e.adapter.Command(r.Pose, target, belief)
	} else {
		result.Command = e.adapter.Hold()
	}

	e.log.WithFields(logrus.Fields{
		"tick":     e.ticks,
		"next":     decision.Next,
		"status":   decision.Status.String(),
		"throttle": result.Command.Throttle,
	}).Debug("tick")
	return result, nil
}

// Belief returns the current belief snapshot.
func (e *Episode) Belief() *grid.Belief {
	return e.filter.Belief()
}

// Route returns the current safe route from the planner's current node, or
// false when none exists yet.
func (e *Episode) Route() ([]int, bool) {
	current, ok := e.planner.Current()
	if !ok {
		return nil, false
	}
	return e.planner.FindPath(e.filter.Belief(), e.graph, current)
}

// Ticks returns the number of completed ticks.
func (e *Episode) Ticks() int { return e.ticks }

// Planner exposes the planner state for inspection.
func (e *Episode) Planner() *planner.PathPlanner { return e.planner }

// Graph returns the road network.
func (e *Episode) Graph() planner.NavGraph { return e.graph }
