package inference

import (
	"errors"
	"fmt"
	"math"

	"belief-driver/internal/grid"
)

// Transition is one entry of the transition table: the probability that an
// agent in From moves to To during one timestep.
type Transition struct {
	From grid.Tile `json:"from"`
	To   grid.Tile `json:"to"`
	Prob float64   `json:"prob"`
}

// Outcome is a destination tile and its probability.
type Outcome struct {
	Tile grid.Tile
	Prob float64
}

// TransitionModel maps a source tile to its outgoing distribution. It is
// read-only after construction and may be shared between goroutines.
type TransitionModel struct {
	out     map[grid.Tile][]Outcome
	support []grid.Tile
}

// NewTransitionModel groups triples by source tile. A repeated (from, to)
// pair overwrites the earlier entry. Destinations are kept in row-major order.
func NewTransitionModel(transitions []Transition) *TransitionModel {
	grouped := make(map[grid.Tile]map[grid.Tile]float64)
	for _, tr := range transitions {
		dests, ok := grouped[tr.From]
		if !ok {
			dests = make(map[grid.Tile]float64)
			grouped[tr.From] = dests
		}
		dests[tr.To] = tr.Prob
	}

	m := &TransitionModel{
		out:     make(map[grid.Tile][]Outcome, len(grouped)),
		support: make([]grid.Tile, 0, len(grouped)),
	}
	for from, dests := range grouped {
		tiles := make([]grid.Tile, 0, len(dests))
		for to := range dests {
			tiles = append(tiles, to)
		}
		grid.SortTiles(tiles)

		outcomes := make([]Outcome, len(tiles))
		for i, to := range tiles {
			outcomes[i] = Outcome{Tile: to, Prob: dests[to]}
		}
		m.out[from] = outcomes
		m.support = append(m.support, from)
	}
	grid.SortTiles(m.support)
	return m
}

// Outgoing returns the distribution for a source tile. Unknown tiles have no
// modeled movement and yield nil.
func (m *TransitionModel) Outgoing(from grid.Tile) []Outcome {
	return m.out[from]
}

// Prob returns P(to | from), zero when the pair is not in the model.
func (m *TransitionModel) Prob(from, to grid.Tile) float64 {
	for _, o := range m.out[from] {
		if o.Tile == to {
			return o.Prob
		}
	}
	return 0
}

// Has reports whether a tile has outgoing transitions.
func (m *TransitionModel) Has(from grid.Tile) bool {
	_, ok := m.out[from]
	return ok
}

// Support returns the tiles with outgoing transitions in row-major order.
func (m *TransitionModel) Support() []grid.Tile {
	out := make([]grid.Tile, len(m.support))
	copy(out, m.support)
	return out
}

// Len returns the number of source tiles.
func (m *TransitionModel) Len() int {
	return len(m.support)
}

// Validate checks that every source distribution sums to 1 within tol and
// that no probability is negative.
func (m *TransitionModel) Validate(tol float64) error {
	var errs []error
	for _, from := range m.support {
		sum := 0.0
		for _, o := range m.out[from] {
			if o.Prob < 0 || math.IsNaN(o.Prob) {
				errs = append(errs, fmt.Errorf("transition %v->%v: invalid probability %v", from, o.Tile, o.Prob))
			}
			sum += o.Prob
		}
		if math.Abs(sum-1) > tol {
			errs = append(errs, fmt.Errorf("tile %v: outgoing probabilities sum to %.12f", from, sum))
		}
	}
	return errors.Join(errs...)
}
