// Package planner chooses the next road-graph waypoint for a car that must
// reach the terminal node while staying off tiles that another car probably
// occupies.
package planner

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"

	"belief-driver/internal/grid"
	"belief-driver/internal/monitoring"
)

// Strategy selects how the next waypoint is chosen.
type Strategy string

const (
	// StrategyGreedy picks the successor closest to the goal among those
	// below the risk threshold.
	StrategyGreedy Strategy = "greedy"
	// StrategyWeightedGreedy adds an occupancy penalty to the distance score.
	StrategyWeightedGreedy Strategy = "weighted-greedy"
	// StrategyAStar searches the whole graph for a safe route to the goal.
	StrategyAStar Strategy = "astar"
)

// ParseStrategy accepts the strategy names used in configuration files.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyGreedy:
		return StrategyGreedy, nil
	case StrategyWeightedGreedy, "weighted":
		return StrategyWeightedGreedy, nil
	case StrategyAStar, "a*", "search":
		return StrategyAStar, nil
	}
	return "", fmt.Errorf("unknown planner strategy %q", s)
}

var (
	// ErrTerminalNotFound means the graph has no node flagged as the goal.
	// Callers must not plan until one exists.
	ErrTerminalNotFound = errors.New("road graph has no terminal node")
	// ErrNoNearestNode means the car's position could not be snapped to a node.
	ErrNoNearestNode = errors.New("no road graph node near position")
)

// Graph is the read-only view of the road network the planner needs.
type Graph interface {
	NodeIDs() []int
	Position(id int) orb.Point
	IsTerminal(id int) bool
	Successors(id int) []int
}

// NavGraph adds the position queries used while driving.
type NavGraph interface {
	Graph
	NearestNode(p orb.Point) (int, bool)
	AtNode(id int, p orb.Point) bool
}

// Status describes how a Decision was reached.
type Status int

const (
	StatusOK Status = iota
	// StatusFallback: every successor was too risky, a random one was taken.
	StatusFallback
	// StatusStall: the next waypoint is the current node.
	StatusStall
	// StatusNoWaypoint: the current node has no successors.
	StatusNoWaypoint
	// StatusNoRoute: the search exhausted the frontier without reaching the goal.
	StatusNoRoute
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusStall:
		return "stall"
	case StatusNoWaypoint:
		return "no-waypoint"
	case StatusNoRoute:
		return "no-route"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText renders the status name in JSON responses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decision is the outcome of one planning query. Next is -1 when there is no
// waypoint; Path is only set by the search strategy.
type Decision struct {
	Next   int    `json:"next"`
	Status Status `json:"status"`
	Path   []int  `json:"path,omitempty"`
}

// Moving reports whether the decision names a waypoint other than the
// current node.
func (d Decision) Moving() bool {
	return d.Status == StatusOK || d.Status == StatusFallback
}

// Config tunes the planner.
type Config struct {
	Strategy Strategy
	// RiskThreshold: successors with a higher occupancy are skipped by the
	// greedy strategy.
	RiskThreshold float64
	// SearchRiskThreshold: nodes at or above this occupancy never enter the
	// search frontier.
	SearchRiskThreshold float64
	// RiskPenalty multiplies occupancy in the weighted-greedy score.
	RiskPenalty float64
	Geometry    grid.Geometry
}

// DefaultConfig returns the production planner settings.
func DefaultConfig() Config {
	return Config{
		Strategy:            StrategyGreedy,
		RiskThreshold:       0.01,
		SearchRiskThreshold: 0.02,
		RiskPenalty:         1e7,
		Geometry:            grid.DefaultGeometry(),
	}
}

// PathPlanner holds the state of one driving episode. It is not safe for
// concurrent use.
type PathPlanner struct {
	config Config
	rng    *rand.Rand

	goal      int
	goalKnown bool

	start      int
	startKnown bool

	current      int
	currentKnown bool

	next    int
	hasNext bool
}

// New creates a planner. A nil rng is replaced by a randomly seeded source.
func New(config Config, rng *rand.Rand) *PathPlanner {
	if config.Strategy == "" {
		config.Strategy = StrategyGreedy
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PathPlanner{config: config, rng: rng, goal: -1, start: -1, current: -1, next: -1}
}

// Config returns the planner settings.
func (p *PathPlanner) Config() Config { return p.config }

// Goal returns the cached terminal node.
func (p *PathPlanner) Goal() (int, bool) { return p.goal, p.goalKnown }

// Start returns the node the episode started from.
func (p *PathPlanner) Start() (int, bool) { return p.start, p.startKnown }

// Current returns the node the car last arrived at.
func (p *PathPlanner) Current() (int, bool) { return p.current, p.currentKnown }

// Next returns the cached waypoint.
func (p *PathPlanner) Next() (int, bool) { return p.next, p.hasNext }

// resolve finds and caches the terminal node, and records the first node the
// planner is asked about as the start.
func (p *PathPlanner) resolve(g Graph, current int) error {
	if !p.goalKnown {
		for _, id := range g.NodeIDs() {
			if g.IsTerminal(id) {
				p.goal, p.goalKnown = id, true
				monitoring.Component("planner").WithField("node", id).Debug("terminal node resolved")
				break
			}
		}
		if !p.goalKnown {
			return ErrTerminalNotFound
		}
	}
	if !p.startKnown {
		p.start, p.startKnown = current, true
	}
	return nil
}

// Heuristic returns the squared Euclidean distance from id to the goal, or
// -1 while the goal is unresolved.
func (p *PathPlanner) Heuristic(g Graph, id int) float64 {
	if !p.goalKnown {
		return -1
	}
	return planar.DistanceSquared(g.Position(id), g.Position(p.goal))
}

// occupancy returns the belief probability of the tile under node id.
func (p *PathPlanner) occupancy(belief *grid.Belief, g Graph, id int) float64 {
	return belief.ProbAt(p.config.Geometry.TileAt(g.Position(id)))
}

// GetNextWaypoint picks the node to drive to from currentID using the
// configured strategy. Planning failures are reported through the Decision
// status; an error is returned only when the graph has no terminal node.
func (p *PathPlanner) GetNextWaypoint(belief *grid.Belief, g Graph, currentID int) (Decision, error) {
	if err := p.resolve(g, currentID); err != nil {
		return Decision{Next: -1, Status: StatusNoWaypoint}, err
	}

	var d Decision
	switch p.config.Strategy {
	case StrategyWeightedGreedy:
		d = p.weightedGreedy(belief, g, currentID)
	case StrategyAStar:
		d = p.search(belief, g, currentID)
	default:
		d = p.greedy(belief, g, currentID)
	}

	monitoring.Component("planner").WithFields(logrus.Fields{
		"strategy": string(p.config.Strategy),
		"node":     currentID,
		"next":     d.Next,
		"status":   d.Status.String(),
	}).Debug("waypoint chosen")
	return d, nil
}

// Step advances the planner state for a car at pos: the first call snaps the
// car to its nearest node, a waypoint is chosen whenever none is cached, and
// arriving at the cached waypoint makes it the current node and triggers a
// new choice. Waypoints are only cached while the car is moving, so stalls
// are re-planned on every call with the caller's latest belief.
func (p *PathPlanner) Step(belief *grid.Belief, g NavGraph, pos orb.Point) (Decision, error) {
	if !p.currentKnown {
		id, ok := g.NearestNode(pos)
		if !ok {
			return Decision{Next: -1, Status: StatusNoWaypoint}, ErrNoNearestNode
		}
		p.current, p.currentKnown = id, true
	}

	if p.hasNext {
		if !g.AtNode(p.next, pos) {
			return Decision{Next: p.next, Status: StatusOK}, nil
		}
		p.current = p.next
		p.hasNext = false
	}

	d, err := p.GetNextWaypoint(belief, g, p.current)
	if err != nil {
		return d, err
	}
	p.next, p.hasNext = d.Next, d.Moving()
	return d, nil
}

// Reset forgets the episode state, keeping the configuration.
func (p *PathPlanner) Reset() {
	*p = PathPlanner{config: p.config, rng: p.rng, goal: -1, start: -1, current: -1, next: -1}
}
