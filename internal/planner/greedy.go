package planner

import (
	"math"

	"belief-driver/internal/grid"
)

// greedy moves to the successor nearest the goal whose occupancy does not
// exceed RiskThreshold. When every successor is too risky it takes a random
// one rather than waiting forever.
func (p *PathPlanner) greedy(belief *grid.Belief, g Graph, current int) Decision {
	successors := g.Successors(current)
	if len(successors) == 0 {
		return Decision{Next: -1, Status: StatusNoWaypoint}
	}

	best := -1
	bestDist := math.Inf(1)
	for _, id := range successors {
		if p.occupancy(belief, g, id) > p.config.RiskThreshold {
			continue
		}
		if d := p.Heuristic(g, id); d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == -1 {
		return Decision{Next: successors[p.rng.IntN(len(successors))], Status: StatusFallback}
	}
	return Decision{Next: best, Status: StatusOK}
}
