package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"belief-driver/internal/drive"
	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
	"belief-driver/internal/planner"
	"belief-driver/internal/roadgraph"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BELIEF_DRIVER_"

// TuningConfig is the service configuration. Every field is optional; the
// Get* accessors fall back to the defaults below.
type TuningConfig struct {
	// Tracker params
	PopulationSize *int     `json:"population_size,omitempty"`
	SensorStd      *float64 `json:"sensor_std,omitempty"`
	TileSize       *float64 `json:"tile_size,omitempty"`
	GridRows       *int     `json:"grid_rows,omitempty"`
	GridCols       *int     `json:"grid_cols,omitempty"`

	// Planner params
	Strategy            *string  `json:"strategy,omitempty"` // greedy, weighted-greedy or astar
	RiskThreshold       *float64 `json:"risk_threshold,omitempty"`
	SearchRiskThreshold *float64 `json:"search_risk_threshold,omitempty"`
	RiskPenalty         *float64 `json:"risk_penalty,omitempty"`
	ArrivalTolerance    *float64 `json:"arrival_tolerance,omitempty"`

	// Actuation params
	CarLength       *float64 `json:"car_length,omitempty"`
	LookaheadFactor *float64 `json:"lookahead_factor,omitempty"`
	CloseThreshold  *float64 `json:"close_threshold,omitempty"`

	// Runtime
	Seed            *uint64 `json:"seed,omitempty"` // zero or unset seeds from the clock
	TransitionsPath *string `json:"transitions_path,omitempty"`
	GraphPath       *string `json:"graph_path,omitempty"`
	ListenAddr      *string `json:"listen_addr,omitempty"`
	LogLevel        *string `json:"log_level,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv loads envFile (when it exists) into the process environment with
// godotenv and then overrides fields from BELIEF_DRIVER_* variables.
func (c *TuningConfig) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var errs []error
	setInt := func(key string, dst **int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = &n
		}
	}
	setFloat := func(key string, dst **float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = &f
		}
	}
	setString := func(key string, dst **string) {
		if v, ok := lookup(key); ok {
			*dst = &v
		}
	}

	setInt("POPULATION_SIZE", &c.PopulationSize)
	setFloat("SENSOR_STD", &c.SensorStd)
	setFloat("TILE_SIZE", &c.TileSize)
	setInt("GRID_ROWS", &c.GridRows)
	setInt("GRID_COLS", &c.GridCols)
	setString("STRATEGY", &c.Strategy)
	setFloat("RISK_THRESHOLD", &c.RiskThreshold)
	setFloat("SEARCH_RISK_THRESHOLD", &c.SearchRiskThreshold)
	setFloat("RISK_PENALTY", &c.RiskPenalty)
	setFloat("ARRIVAL_TOLERANCE", &c.ArrivalTolerance)
	setFloat("CAR_LENGTH", &c.CarLength)
	setFloat("LOOKAHEAD_FACTOR", &c.LookaheadFactor)
	setFloat("CLOSE_THRESHOLD", &c.CloseThreshold)
	setString("TRANSITIONS_PATH", &c.TransitionsPath)
	setString("GRAPH_PATH", &c.GraphPath)
	setString("LISTEN_ADDR", &c.ListenAddr)
	setString("LOG_LEVEL", &c.LogLevel)
	if v, ok := lookup("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Seed = &seed
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate rejects values no component can work with.
func (c *TuningConfig) Validate() error {
	var errs []error
	positiveInt := func(name string, v *int) {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, *v))
		}
	}
	positive := func(name string, v *float64) {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, *v))
		}
	}
	probability := func(name string, v *float64) {
		if v != nil && (*v < 0 || *v > 1) {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, *v))
		}
	}

	positiveInt("population_size", c.PopulationSize)
	positiveInt("grid_rows", c.GridRows)
	positiveInt("grid_cols", c.GridCols)
	positive("sensor_std", c.SensorStd)
	positive("tile_size", c.TileSize)
	positive("arrival_tolerance", c.ArrivalTolerance)
	positive("car_length", c.CarLength)
	probability("risk_threshold", c.RiskThreshold)
	probability("search_risk_threshold", c.SearchRiskThreshold)
	probability("close_threshold", c.CloseThreshold)
	if c.RiskPenalty != nil && *c.RiskPenalty < 0 {
		errs = append(errs, fmt.Errorf("risk_penalty must not be negative, got %v", *c.RiskPenalty))
	}
	if c.Strategy != nil {
		if _, err := planner.ParseStrategy(*c.Strategy); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *TuningConfig) GetPopulationSize() int {
	if c.PopulationSize == nil {
		return inference.DefaultPopulation
	}
	return *c.PopulationSize
}

func (c *TuningConfig) GetSensorStd() float64 {
	if c.SensorStd == nil {
		return inference.DefaultSensorStd
	}
	return *c.SensorStd
}

func (c *TuningConfig) GetTileSize() float64 {
	if c.TileSize == nil {
		return grid.DefaultTileSize
	}
	return *c.TileSize
}

func (c *TuningConfig) GetGridRows() int {
	if c.GridRows == nil {
		return 20
	}
	return *c.GridRows
}

func (c *TuningConfig) GetGridCols() int {
	if c.GridCols == nil {
		return 20
	}
	return *c.GridCols
}

func (c *TuningConfig) GetStrategy() string {
	if c.Strategy == nil {
		return string(planner.DefaultConfig().Strategy)
	}
	return *c.Strategy
}

func (c *TuningConfig) GetRiskThreshold() float64 {
	if c.RiskThreshold == nil {
		return planner.DefaultConfig().RiskThreshold
	}
	return *c.RiskThreshold
}

func (c *TuningConfig) GetSearchRiskThreshold() float64 {
	if c.SearchRiskThreshold == nil {
		return planner.DefaultConfig().SearchRiskThreshold
	}
	return *c.SearchRiskThreshold
}

func (c *TuningConfig) GetRiskPenalty() float64 {
	if c.RiskPenalty == nil {
		return planner.DefaultConfig().RiskPenalty
	}
	return *c.RiskPenalty
}

func (c *TuningConfig) GetArrivalTolerance() float64 {
	if c.ArrivalTolerance == nil {
		return roadgraph.DefaultArrivalTolerance
	}
	return *c.ArrivalTolerance
}

func (c *TuningConfig) GetCarLength() float64 {
	if c.CarLength == nil {
		return drive.DefaultAdapterConfig().CarLength
	}
	return *c.CarLength
}

func (c *TuningConfig) GetLookaheadFactor() float64 {
	if c.LookaheadFactor == nil {
		return drive.DefaultAdapterConfig().LookaheadFactor
	}
	return *c.LookaheadFactor
}

func (c *TuningConfig) GetCloseThreshold() float64 {
	if c.CloseThreshold == nil {
		return drive.DefaultAdapterConfig().CloseThreshold
	}
	return *c.CloseThreshold
}

func (c *TuningConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

func (c *TuningConfig) GetTransitionsPath() string {
	if c.TransitionsPath == nil {
		return ""
	}
	return *c.TransitionsPath
}

func (c *TuningConfig) GetGraphPath() string {
	if c.GraphPath == nil {
		return ""
	}
	return *c.GraphPath
}

func (c *TuningConfig) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":8080"
	}
	return *c.ListenAddr
}

func (c *TuningConfig) GetLogLevel() string {
	if c.LogLevel == nil {
		return "info"
	}
	return *c.LogLevel
}
