package inference

import "belief-driver/internal/grid"

// RandomWalk returns a closed transition table in which a car on any tile of
// a rows x cols grid stays put or moves to one of its in-grid 4-neighbours
// with equal probability. It stands in when no learned table is configured.
func RandomWalk(rows, cols int) []Transition {
	var transitions []Transition
	moves := []grid.Tile{{Row: 0, Col: 0}, {Row: -1, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: 0, Col: 1}}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			from := grid.Tile{Row: r, Col: c}
			var dests []grid.Tile
			for _, m := range moves {
				to := grid.Tile{Row: r + m.Row, Col: c + m.Col}
				if to.Row < 0 || to.Row >= rows || to.Col < 0 || to.Col >= cols {
					continue
				}
				dests = append(dests, to)
			}
			p := 1 / float64(len(dests))
			for _, to := range dests {
				transitions = append(transitions, Transition{From: from, To: to, Prob: p})
			}
		}
	}
	return transitions
}
