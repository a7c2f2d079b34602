package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belief-driver/internal/drive"
	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
	"belief-driver/internal/planner"
	"belief-driver/internal/roadgraph"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	c := EmptyTuningConfig()
	assert.Equal(t, 500, c.GetPopulationSize())
	assert.Equal(t, 15.0, c.GetSensorStd())
	assert.Equal(t, 30.0, c.GetTileSize())
	assert.Equal(t, "greedy", c.GetStrategy())
	assert.Equal(t, 0.01, c.GetRiskThreshold())
	assert.Equal(t, 0.02, c.GetSearchRiskThreshold())
	assert.Equal(t, 1e7, c.GetRiskPenalty())
	assert.Equal(t, 25.0, c.GetCarLength())
	assert.Equal(t, 1.5, c.GetLookaheadFactor())
	assert.Equal(t, ":8080", c.GetListenAddr())
	assert.Zero(t, c.GetSeed())
	assert.Empty(t, c.GetGraphPath())
	assert.NoError(t, c.Validate())
}

func TestDefaultsMatchComponents(t *testing.T) {
	t.Parallel()

	c := EmptyTuningConfig()
	pc := planner.DefaultConfig()
	ac := drive.DefaultAdapterConfig()

	assert.Equal(t, inference.DefaultPopulation, c.GetPopulationSize())
	assert.Equal(t, inference.DefaultFilterConfig().SensorStd, c.GetSensorStd())
	assert.Equal(t, grid.DefaultGeometry().TileSize, c.GetTileSize())
	assert.Equal(t, string(pc.Strategy), c.GetStrategy())
	assert.Equal(t, pc.RiskThreshold, c.GetRiskThreshold())
	assert.Equal(t, pc.SearchRiskThreshold, c.GetSearchRiskThreshold())
	assert.Equal(t, pc.RiskPenalty, c.GetRiskPenalty())
	assert.Equal(t, roadgraph.DefaultArrivalTolerance, c.GetArrivalTolerance())
	assert.Equal(t, ac, drive.AdapterConfig{
		CarLength:       c.GetCarLength(),
		LookaheadFactor: c.GetLookaheadFactor(),
		CloseThreshold:  c.GetCloseThreshold(),
	})
}

func TestLoadTuningConfigPartial(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tuning.json", `{"population_size": 1000, "strategy": "astar", "seed": 9}`)
	c, err := LoadTuningConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, c.GetPopulationSize())
	assert.Equal(t, "astar", c.GetStrategy())
	assert.Equal(t, uint64(9), c.GetSeed())
	assert.Equal(t, 15.0, c.GetSensorStd(), "omitted fields keep defaults")
}

func TestLoadTuningConfigRejects(t *testing.T) {
	t.Parallel()

	_, err := LoadTuningConfig(writeFile(t, "tuning.yaml", `{}`))
	assert.ErrorContains(t, err, ".json")

	_, err = LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadTuningConfig(writeFile(t, "bad.json", `{"population_size": "many"}`))
	assert.ErrorContains(t, err, "parse")

	_, err = LoadTuningConfig(writeFile(t, "invalid.json", `{"risk_threshold": 2, "strategy": "teleport"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk_threshold")
	assert.Contains(t, err.Error(), "teleport")
}

func TestApplyEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "BELIEF_DRIVER_STRATEGY=weighted-greedy\nBELIEF_DRIVER_SEED=77\n")
	t.Setenv("BELIEF_DRIVER_POPULATION_SIZE", "250")
	t.Setenv("BELIEF_DRIVER_RISK_PENALTY", "5000")
	t.Cleanup(func() {
		os.Unsetenv("BELIEF_DRIVER_STRATEGY")
		os.Unsetenv("BELIEF_DRIVER_SEED")
	})

	c := EmptyTuningConfig()
	require.NoError(t, c.ApplyEnv(envFile))
	assert.Equal(t, 250, c.GetPopulationSize())
	assert.Equal(t, 5000.0, c.GetRiskPenalty())
	assert.Equal(t, "weighted-greedy", c.GetStrategy())
	assert.Equal(t, uint64(77), c.GetSeed())
}

func TestApplyEnvMissingFileAndBadValues(t *testing.T) {
	t.Setenv("BELIEF_DRIVER_GRID_ROWS", "lots")

	c := EmptyTuningConfig()
	err := c.ApplyEnv(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BELIEF_DRIVER_GRID_ROWS")
}
