package planner

import (
	"container/heap"

	"belief-driver/internal/grid"
)

// candidate is a successor scored by the weighted-greedy strategy.
type candidate struct {
	NodeID int
	Score  float64
	Seq    int // insertion order, breaks ties
}

// candidateQueue implements heap.Interface ordered by score, then insertion.
type candidateQueue []candidate

func (q candidateQueue) Len() int { return len(q) }

func (q candidateQueue) Less(i, j int) bool {
	if q[i].Score != q[j].Score {
		return q[i].Score < q[j].Score
	}
	return q[i].Seq < q[j].Seq
}

func (q candidateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x interface{}) {
	*q = append(*q, x.(candidate))
}

func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// weightedGreedy scores each successor by its squared distance to the goal
// plus RiskPenalty times its occupancy and takes the lowest score. Risky
// moves are allowed when nothing safe is competitive.
func (p *PathPlanner) weightedGreedy(belief *grid.Belief, g Graph, current int) Decision {
	successors := g.Successors(current)
	if len(successors) == 0 {
		return Decision{Next: -1, Status: StatusNoWaypoint}
	}

	q := make(candidateQueue, 0, len(successors))
	for seq, id := range successors {
		heap.Push(&q, candidate{
			NodeID: id,
			Score:  p.Heuristic(g, id) + p.config.RiskPenalty*p.occupancy(belief, g, id),
			Seq:    seq,
		})
	}
	best := heap.Pop(&q).(candidate)
	return Decision{Next: best.NodeID, Status: StatusOK}
}
