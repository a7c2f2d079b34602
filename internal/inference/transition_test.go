package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belief-driver/internal/grid"
)

func loadFixtureModel(t *testing.T) *TransitionModel {
	t.Helper()
	transitions, err := LoadTransitions("testdata/transitions.json")
	require.NoError(t, err)
	return NewTransitionModel(transitions)
}

func TestTransitionClosureOnFixture(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"testdata/transitions.json", "testdata/transitions.csv"} {
		path := path
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			transitions, err := LoadTransitions(path)
			require.NoError(t, err)
			require.Len(t, transitions, 10)

			model := NewTransitionModel(transitions)
			require.NoError(t, model.Validate(1e-9))
			for _, from := range model.Support() {
				sum := 0.0
				for _, o := range model.Outgoing(from) {
					sum += o.Prob
				}
				assert.InDelta(t, 1.0, sum, 1e-9, "tile %v", from)
			}
		})
	}
}

func TestTransitionModelLookup(t *testing.T) {
	t.Parallel()

	model := loadFixtureModel(t)
	assert.Equal(t, 4, model.Len())
	assert.Equal(t, []grid.Tile{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, model.Support())
	assert.InDelta(t, 0.7, model.Prob(grid.Tile{Row: 0, Col: 0}, grid.Tile{Row: 0, Col: 1}), 1e-12)
	assert.Zero(t, model.Prob(grid.Tile{Row: 0, Col: 0}, grid.Tile{Row: 1, Col: 1}))

	assert.Nil(t, model.Outgoing(grid.Tile{Row: 9, Col: 9}))
	assert.False(t, model.Has(grid.Tile{Row: 9, Col: 9}))

	// Destinations are ordered row-major.
	out := model.Outgoing(grid.Tile{Row: 0, Col: 0})
	require.Len(t, out, 3)
	assert.Equal(t, grid.Tile{Row: 0, Col: 0}, out[0].Tile)
	assert.Equal(t, grid.Tile{Row: 0, Col: 1}, out[1].Tile)
	assert.Equal(t, grid.Tile{Row: 1, Col: 0}, out[2].Tile)
}

func TestTransitionModelDuplicatesOverwrite(t *testing.T) {
	t.Parallel()

	model := NewTransitionModel([]Transition{
		{From: grid.Tile{Row: 0, Col: 0}, To: grid.Tile{Row: 0, Col: 1}, Prob: 0.3},
		{From: grid.Tile{Row: 0, Col: 0}, To: grid.Tile{Row: 0, Col: 1}, Prob: 1.0},
	})
	assert.InDelta(t, 1.0, model.Prob(grid.Tile{Row: 0, Col: 0}, grid.Tile{Row: 0, Col: 1}), 1e-12)
	assert.NoError(t, model.Validate(1e-9))
}

func TestTransitionModelValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	model := NewTransitionModel([]Transition{
		{From: grid.Tile{Row: 0, Col: 0}, To: grid.Tile{Row: 0, Col: 1}, Prob: 0.5},
		{From: grid.Tile{Row: 1, Col: 1}, To: grid.Tile{Row: 0, Col: 1}, Prob: -0.5},
		{From: grid.Tile{Row: 1, Col: 1}, To: grid.Tile{Row: 1, Col: 0}, Prob: 1.5},
	})
	err := model.Validate(1e-9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tile (0,0)")
	assert.Contains(t, err.Error(), "invalid probability -0.5")
}

func TestDecodeTransitionsCSVErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeTransitionsCSV(strings.NewReader("0,0,0,1,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = DecodeTransitionsCSV(strings.NewReader("0,0,0\n"))
	assert.Error(t, err)
}

func TestLoadTransitionsRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := LoadTransitions("testdata/missing.json")
	assert.Error(t, err)

	path := t.TempDir() + "/table.txt"
	require.NoError(t, SaveTransitions(nil, path))
	_, err = LoadTransitions(path)
	assert.ErrorContains(t, err, "unsupported")
}

func TestSaveTransitionsRoundTrip(t *testing.T) {
	t.Parallel()

	model := loadFixtureModel(t)
	var transitions []Transition
	for _, from := range model.Support() {
		for _, o := range model.Outgoing(from) {
			transitions = append(transitions, Transition{From: from, To: o.Tile, Prob: o.Prob})
		}
	}

	path := t.TempDir() + "/table.json"
	require.NoError(t, SaveTransitions(transitions, path))
	loaded, err := LoadTransitions(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, transitions, loaded)
}
