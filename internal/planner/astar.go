package planner

import (
	"container/heap"

	"github.com/paulmach/orb/planar"

	"belief-driver/internal/grid"
)

// searchNode represents a node in the A* search over the road graph
type searchNode struct {
	NodeID int         // ID of the node in the graph
	G      float64     // Cost from start to this node
	H      float64     // Heuristic cost from this node to the goal
	F      float64     // Total cost (G + H)
	Parent *searchNode // Parent links replace per-branch path copies
	Index  int         // Index in the heap
}

// priorityQueue implements heap.Interface for A* algorithm
type priorityQueue []*searchNode

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].F < pq[j].F
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// search plans a full route and returns its first step.
func (p *PathPlanner) search(belief *grid.Belief, g Graph, current int) Decision {
	path, ok := p.FindPath(belief, g, current)
	if !ok {
		return Decision{Next: current, Status: StatusNoRoute}
	}
	if len(path) < 2 {
		return Decision{Next: current, Status: StatusStall, Path: path}
	}
	return Decision{Next: path[1], Status: StatusOK, Path: path}
}

// FindPath runs A* from the given node to the goal over successor edges.
// Edge cost is Euclidean length and the heuristic is the straight-line
// distance to the goal. Nodes whose occupancy reaches SearchRiskThreshold are
// never added to the frontier; the start node is always expanded. The goal
// must already be resolved.
func (p *PathPlanner) FindPath(belief *grid.Belief, g Graph, from int) ([]int, bool) {
	if !p.goalKnown {
		return nil, false
	}
	goalPoint := g.Position(p.goal)

	openSet := &priorityQueue{}
	heap.Init(openSet)

	h := planar.Distance(g.Position(from), goalPoint)
	startNode := &searchNode{NodeID: from, G: 0, H: h, F: h}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := map[int]*searchNode{from: startNode}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.NodeID)

		if current.NodeID == p.goal {
			return reconstruct(current), true
		}
		closedSet[current.NodeID] = true

		currentPoint := g.Position(current.NodeID)
		for _, neighborID := range g.Successors(current.NodeID) {
			if closedSet[neighborID] {
				continue
			}
			if p.occupancy(belief, g, neighborID) >= p.config.SearchRiskThreshold {
				continue
			}

			neighborPoint := g.Position(neighborID)
			tentativeG := current.G + planar.Distance(currentPoint, neighborPoint)

			neighbor, exists := openSetMap[neighborID]
			if !exists {
				neighbor = &searchNode{
					NodeID: neighborID,
					G:      tentativeG,
					H:      planar.Distance(neighborPoint, goalPoint),
					Parent: current,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[neighborID] = neighbor
			} else if tentativeG < neighbor.G {
				// Found a better path to this neighbor
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	return nil, false
}

func reconstruct(end *searchNode) []int {
	n := 0
	for node := end; node != nil; node = node.Parent {
		n++
	}
	path := make([]int, n)
	for node := end; node != nil; node = node.Parent {
		n--
		path[n] = node.NodeID
	}
	return path
}
