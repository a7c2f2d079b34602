package inference

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"belief-driver/internal/grid"
	"belief-driver/internal/monitoring"
)

const (
	// DefaultPopulation is the number of particles a filter tracks.
	DefaultPopulation = 500
	// DefaultSensorStd is the standard deviation of the distance sensor noise.
	DefaultSensorStd = 15.0
)

// ErrEmptySupport is returned when the transition model has no source tiles
// to seed particles on.
var ErrEmptySupport = errors.New("transition model has no source tiles")

// FilterConfig holds the sensor model of a ParticleFilter.
type FilterConfig struct {
	SensorStd float64
	Geometry  grid.Geometry
}

// DefaultFilterConfig returns the production sensor model.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		SensorStd: DefaultSensorStd,
		Geometry:  grid.DefaultGeometry(),
	}
}

// ParticleFilter tracks one hidden agent as a multiset of tile hypotheses.
// It is not safe for concurrent use; the belief it hands out is immutable.
type ParticleFilter struct {
	model  *TransitionModel
	config FilterConfig
	rng    *rand.Rand

	rows       int
	cols       int
	population int
	particles  map[grid.Tile]int
	belief     *grid.Belief
}

// NewParticleFilter creates a filter over model. A nil rng is replaced by a
// randomly seeded source; pass a seeded one for reproducible runs.
func NewParticleFilter(model *TransitionModel, config FilterConfig, rng *rand.Rand) *ParticleFilter {
	if config.SensorStd <= 0 {
		config.SensorStd = DefaultSensorStd
	}
	if model == nil {
		model = NewTransitionModel(nil)
	}
	return &ParticleFilter{
		model:     model,
		config:    config,
		rng:       newRand(rng),
		particles: make(map[grid.Tile]int),
		belief:    grid.BeliefFromCounts(0, 0, nil),
	}
}

// Initialize seeds populationSize particles uniformly over the tiles that have
// outgoing transitions and derives the initial belief.
func (pf *ParticleFilter) Initialize(numRows, numCols, populationSize int) error {
	if numRows <= 0 || numCols <= 0 {
		return fmt.Errorf("invalid grid %dx%d", numRows, numCols)
	}
	if populationSize <= 0 {
		return fmt.Errorf("invalid population size %d", populationSize)
	}
	support := pf.model.Support()
	if len(support) == 0 {
		return ErrEmptySupport
	}

	pf.rows, pf.cols = numRows, numCols
	pf.population = populationSize
	pf.particles = pf.uniform(support)
	pf.UpdateBelief()
	return nil
}

func (pf *ParticleFilter) uniform(tiles []grid.Tile) map[grid.Tile]int {
	particles := make(map[grid.Tile]int)
	for i := 0; i < pf.population; i++ {
		particles[tiles[pf.rng.IntN(len(tiles))]]++
	}
	return particles
}

// ElapseTime advances every particle one timestep through the transition
// model. Particles on tiles without outgoing transitions are dropped; the
// population is conserved whenever the model covers every occupied tile.
func (pf *ParticleFilter) ElapseTime() {
	next := make(map[grid.Tile]int, len(pf.particles))
	for _, tile := range pf.occupied() {
		count := pf.particles[tile]
		outcomes := pf.model.Outgoing(tile)
		if len(outcomes) == 0 {
			continue
		}

		weights := make([]float64, len(outcomes))
		for i, o := range outcomes {
			weights[i] = o.Prob
		}
		s, ok := newSampler(weights, pf.rng)
		if !ok {
			continue
		}
		for i := 0; i < count; i++ {
			next[outcomes[s.draw()].Tile]++
		}
	}
	pf.particles = next
}

// Observe reweights the particles by the likelihood of a distance reading
// taken at (agentX, agentY) and resamples the population. If no particle is
// consistent with the reading the population is reseeded uniformly over the
// model support.
func (pf *ParticleFilter) Observe(agentX, agentY, observedDist float64) {
	tiles := pf.occupied()
	weights := make([]float64, len(tiles))
	for i, tile := range tiles {
		center := pf.config.Geometry.Center(tile)
		d := math.Hypot(center.X()-agentX, center.Y()-agentY)
		prior := float64(pf.particles[tile]) / float64(pf.population)
		weights[i] = prior * emissionProb(d, pf.config.SensorStd, observedDist)
	}

	s, ok := newSampler(weights, pf.rng)
	if !ok {
		pf.reseed(tiles)
		pf.UpdateBelief()
		return
	}

	next := make(map[grid.Tile]int, len(tiles))
	for i := 0; i < pf.population; i++ {
		next[tiles[s.draw()]]++
	}
	pf.particles = next
	pf.UpdateBelief()
}

// reseed handles a reading that every particle rules out.
func (pf *ParticleFilter) reseed(previous []grid.Tile) {
	support := pf.model.Support()
	if len(support) == 0 {
		support = previous
	}
	if len(support) == 0 {
		monitoring.Warnf("particle filter: degenerate weights and nothing to reseed on")
		pf.particles = make(map[grid.Tile]int)
		return
	}
	monitoring.Warnf("particle filter: degenerate weights, reseeding %d particles over %d tiles", pf.population, len(support))
	pf.particles = pf.uniform(support)
}

// UpdateBelief rebuilds the belief from the current particle counts.
func (pf *ParticleFilter) UpdateBelief() {
	pf.belief = grid.BeliefFromCounts(pf.rows, pf.cols, pf.particles)
}

// Belief returns the current belief. Callers must treat it as read-only; it
// stays valid until the next update replaces it.
func (pf *ParticleFilter) Belief() *grid.Belief {
	return pf.belief
}

// Particles returns a copy of the particle counts.
func (pf *ParticleFilter) Particles() map[grid.Tile]int {
	out := make(map[grid.Tile]int, len(pf.particles))
	for tile, n := range pf.particles {
		out[tile] = n
	}
	return out
}

// Population returns N, the number of particles per generation.
func (pf *ParticleFilter) Population() int {
	return pf.population
}

// Total returns the number of particles currently alive.
func (pf *ParticleFilter) Total() int {
	total := 0
	for _, n := range pf.particles {
		total += n
	}
	return total
}

// Dimensions returns the grid size the filter was initialized with.
func (pf *ParticleFilter) Dimensions() (rows, cols int) {
	return pf.rows, pf.cols
}

// occupied returns the tiles holding particles in row-major order so that a
// seeded source reproduces the same run.
func (pf *ParticleFilter) occupied() []grid.Tile {
	tiles := make([]grid.Tile, 0, len(pf.particles))
	for tile, n := range pf.particles {
		if n > 0 {
			tiles = append(tiles, tile)
		}
	}
	grid.SortTiles(tiles)
	return tiles
}
