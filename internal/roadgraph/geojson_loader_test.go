package roadgraph

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGeoJSON(t *testing.T) {
	t.Parallel()

	g, err := LoadGeoJSON("testdata/roads.geojson", GeoJSONOptions{})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 4)
	assert.Equal(t, orb.Point{0, 0}, g.Position(0))
	assert.Equal(t, orb.Point{100, 100}, g.Position(3))

	assert.Equal(t, []int{1}, g.Successors(0))
	assert.ElementsMatch(t, []int{2, 3}, g.Successors(1))
	assert.Empty(t, g.Successors(2))
	assert.Equal(t, []int{1}, g.Successors(3))

	id, ok := g.Terminal()
	require.True(t, ok)
	assert.Equal(t, 2, id, "terminal snaps to the nearest road vertex")
}

func TestFromFeatureCollectionSimplifies(t *testing.T) {
	t.Parallel()

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {50, 0.1}, {100, 0}}))
	terminal := geojson.NewFeature(orb.Point{100, 0})
	terminal.Properties["terminal"] = true
	fc.Append(terminal)

	g, err := FromFeatureCollection(fc, GeoJSONOptions{SimplifyTolerance: 1})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, []int{1}, g.Successors(0))
	assert.True(t, g.IsTerminal(1))

	full, err := FromFeatureCollection(fc, GeoJSONOptions{})
	require.NoError(t, err)
	assert.Len(t, full.Nodes, 3)
}

func TestFromFeatureCollectionEmpty(t *testing.T) {
	t.Parallel()

	_, err := FromFeatureCollection(geojson.NewFeatureCollection(), GeoJSONOptions{})
	assert.ErrorIs(t, err, ErrNoNodes)
}
