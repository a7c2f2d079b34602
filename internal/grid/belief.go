package grid

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Belief is a probability distribution over the tiles of a rows x cols grid.
// It sums to 1 when it carries any mass and is all zero otherwise. A Belief
// is never modified after construction; a new one is built every tick.
type Belief struct {
	rows  int
	cols  int
	probs []float64
}

// BeliefFromCounts builds a belief by normalizing per-tile counts.
// Tiles outside the grid are ignored.
func BeliefFromCounts(rows, cols int, counts map[Tile]int) *Belief {
	b := newBelief(rows, cols)
	for tile, n := range counts {
		if idx, ok := b.index(tile); ok {
			b.probs[idx] = float64(n)
		}
	}
	b.normalize()
	return b
}

// BeliefFromProbs builds a belief from unnormalized per-tile weights.
func BeliefFromProbs(rows, cols int, probs map[Tile]float64) *Belief {
	b := newBelief(rows, cols)
	for tile, p := range probs {
		if idx, ok := b.index(tile); ok {
			b.probs[idx] = p
		}
	}
	b.normalize()
	return b
}

func newBelief(rows, cols int) *Belief {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Belief{rows: rows, cols: cols, probs: make([]float64, rows*cols)}
}

func (b *Belief) index(t Tile) (int, bool) {
	if t.Row < 0 || t.Row >= b.rows || t.Col < 0 || t.Col >= b.cols {
		return 0, false
	}
	return t.Row*b.cols + t.Col, true
}

// normalize divides by the total mass; a zero total leaves the grid all zero.
func (b *Belief) normalize() {
	total := floats.Sum(b.probs)
	if total <= 0 {
		return
	}
	floats.Scale(1/total, b.probs)
}

func (b *Belief) Rows() int { return b.rows }
func (b *Belief) Cols() int { return b.cols }

// Prob returns the probability of the tile at (row, col). Indices outside the
// grid are clamped to the nearest edge tile, so positions just past the map
// border still read the border's occupancy.
func (b *Belief) Prob(row, col int) float64 {
	if b == nil || b.rows == 0 || b.cols == 0 {
		return 0
	}
	row = clamp(row, 0, b.rows-1)
	col = clamp(col, 0, b.cols-1)
	return b.probs[row*b.cols+col]
}

// ProbAt is Prob for a Tile.
func (b *Belief) ProbAt(t Tile) float64 {
	return b.Prob(t.Row, t.Col)
}

// Sum returns the total probability mass.
func (b *Belief) Sum() float64 {
	if b == nil {
		return 0
	}
	return floats.Sum(b.probs)
}

// Tiles returns the tiles with non-zero probability in row-major order.
func (b *Belief) Tiles() []Tile {
	var tiles []Tile
	for idx, p := range b.probs {
		if p > 0 {
			tiles = append(tiles, Tile{Row: idx / b.cols, Col: idx % b.cols})
		}
	}
	return tiles
}

// Values returns a row-major copy of the probabilities.
func (b *Belief) Values() []float64 {
	out := make([]float64, len(b.probs))
	copy(out, b.probs)
	return out
}

// MostLikely returns the tile with the highest probability. ok is false when
// the belief carries no mass.
func (b *Belief) MostLikely() (Tile, bool) {
	if b.Sum() <= 0 {
		return Tile{}, false
	}
	idx := floats.MaxIdx(b.probs)
	return Tile{Row: idx / b.cols, Col: idx % b.cols}, true
}

// SortTiles sorts tiles row-major in place.
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Less(tiles[j]) })
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
