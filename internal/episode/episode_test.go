package episode

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belief-driver/internal/drive"
	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
	"belief-driver/internal/monitoring"
	"belief-driver/internal/planner"
	"belief-driver/internal/roadgraph"
)

func init() {
	monitoring.SetLogger(nil)
}

// road: 0 -> 1 -> 2 (goal) along y=15, with a detour 0 -> 3 -> 2.
func road(t *testing.T) *roadgraph.RoadGraph {
	t.Helper()
	g, err := roadgraph.New([]roadgraph.Node{
		{ID: 0, Point: orb.Point{15, 15}, Edges: []int{1, 3}},
		{ID: 1, Point: orb.Point{75, 15}, Edges: []int{2}},
		{ID: 2, Point: orb.Point{135, 15}, Terminal: true, Edges: []int{}},
		{ID: 3, Point: orb.Point{75, 105}, Edges: []int{2}},
	}, 5)
	require.NoError(t, err)
	return g
}

// parkedAt models a car that never leaves tile.
func parkedAt(tile grid.Tile) *inference.TransitionModel {
	return inference.NewTransitionModel([]inference.Transition{{From: tile, To: tile, Prob: 1}})
}

func config(strategy planner.Strategy) Config {
	pc := planner.DefaultConfig()
	pc.Strategy = strategy
	return Config{
		Rows:       6,
		Cols:       6,
		Population: 200,
		Filter:     inference.DefaultFilterConfig(),
		Planner:    pc,
		Adapter:    drive.DefaultAdapterConfig(),
		Seed:       3,
	}
}

func TestTickDrivesTowardsGoal(t *testing.T) {
	t.Parallel()

	e, err := New(config(planner.StrategyAStar), parkedAt(grid.Tile{Row: 5, Col: 5}), road(t))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)

	res, err := e.Tick(Reading{
		Pose:         drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}},
		ObservedDist: 212,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tick)
	assert.Equal(t, 1, res.Decision.Next)
	assert.Equal(t, planner.StatusOK, res.Decision.Status)
	require.NotNil(t, res.Target)
	assert.Equal(t, orb.Point{75, 15}, *res.Target)
	assert.Equal(t, 1.0, res.Command.Throttle)
	assert.InDelta(t, 0, res.Command.Steering, 1e-9)

	route, ok := e.Route()
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2}, route)
	assert.InDelta(t, 1.0, e.Belief().ProbAt(grid.Tile{Row: 5, Col: 5}), 1e-12)
}

func TestTickAvoidsTrackedCar(t *testing.T) {
	t.Parallel()

	// The other car sits on node 1's tile.
	blocked := grid.Tile{Row: 0, Col: 2}
	for _, strategy := range []planner.Strategy{planner.StrategyGreedy, planner.StrategyWeightedGreedy, planner.StrategyAStar} {
		e, err := New(config(strategy), parkedAt(blocked), road(t))
		require.NoError(t, err)

		res, err := e.Tick(Reading{
			Pose:         drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}},
			ObservedDist: 60,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Decision.Next, string(strategy))
		assert.Equal(t, 1, e.Ticks())
	}
}

func TestTickHoldsWithoutWaypoint(t *testing.T) {
	t.Parallel()

	g, err := roadgraph.New([]roadgraph.Node{
		{ID: 0, Point: orb.Point{15, 15}, Edges: []int{}},
		{ID: 1, Point: orb.Point{135, 15}, Terminal: true, Edges: []int{}},
	}, 5)
	require.NoError(t, err)

	e, err := New(config(planner.StrategyGreedy), parkedAt(grid.Tile{Row: 5, Col: 5}), g)
	require.NoError(t, err)
	res, err := e.Tick(Reading{Pose: drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}}, ObservedDist: 200})
	require.NoError(t, err)
	assert.Equal(t, planner.StatusNoWaypoint, res.Decision.Status)
	assert.Nil(t, res.Target)
	assert.Equal(t, drive.Command{}, res.Command)
}

func TestTickReportsMissingTerminal(t *testing.T) {
	t.Parallel()

	g, err := roadgraph.New([]roadgraph.Node{
		{ID: 0, Point: orb.Point{15, 15}, Edges: []int{1}},
		{ID: 1, Point: orb.Point{135, 15}, Edges: []int{}},
	}, 5)
	require.NoError(t, err)

	e, err := New(config(planner.StrategyGreedy), parkedAt(grid.Tile{Row: 5, Col: 5}), g)
	require.NoError(t, err)
	res, err := e.Tick(Reading{Pose: drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}}, ObservedDist: 200})
	assert.ErrorIs(t, err, planner.ErrTerminalNotFound)
	assert.Zero(t, res.Command.Throttle)
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := New(config(planner.StrategyGreedy), parkedAt(grid.Tile{}), nil)
	assert.Error(t, err)

	_, err = New(config(planner.StrategyGreedy), inference.NewTransitionModel(nil), road(t))
	assert.ErrorIs(t, err, inference.ErrEmptySupport)
}

func TestTickHoldsAtGoal(t *testing.T) {
	t.Parallel()

	g, err := roadgraph.New([]roadgraph.Node{
		{ID: 0, Point: orb.Point{15, 15}, Terminal: true, Edges: []int{1}},
		{ID: 1, Point: orb.Point{75, 15}, Edges: []int{0}},
	}, 5)
	require.NoError(t, err)

	e, err := New(config(planner.StrategyAStar), parkedAt(grid.Tile{Row: 5, Col: 5}), g)
	require.NoError(t, err)
	res, err := e.Tick(Reading{Pose: drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}}, ObservedDist: 212})
	require.NoError(t, err)
	assert.Equal(t, planner.StatusStall, res.Decision.Status)
	assert.Equal(t, 0, res.Decision.Next)
	assert.Nil(t, res.Target)
	assert.Equal(t, drive.Command{}, res.Command)
}

func TestTickHoldsWithoutSafeRoute(t *testing.T) {
	t.Parallel()

	// The only road to the goal runs through the other car's tile.
	g, err := roadgraph.New([]roadgraph.Node{
		{ID: 0, Point: orb.Point{15, 15}, Edges: []int{1}},
		{ID: 1, Point: orb.Point{75, 15}, Terminal: true, Edges: []int{}},
	}, 5)
	require.NoError(t, err)

	e, err := New(config(planner.StrategyAStar), parkedAt(grid.Tile{Row: 0, Col: 2}), g)
	require.NoError(t, err)
	res, err := e.Tick(Reading{Pose: drive.Pose{Pos: orb.Point{15, 15}, Dir: orb.Point{1, 0}}, ObservedDist: 60})
	require.NoError(t, err)
	assert.Equal(t, planner.StatusNoRoute, res.Decision.Status)
	assert.Equal(t, 0, res.Decision.Next)
	assert.Nil(t, res.Target)
	assert.Equal(t, drive.Command{}, res.Command)
}

func TestNewRejectsNilRoadGraph(t *testing.T) {
	t.Parallel()

	var g *roadgraph.RoadGraph
	_, err := New(config(planner.StrategyGreedy), parkedAt(grid.Tile{}), g)
	assert.Error(t, err)
}
