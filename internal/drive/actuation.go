// Package drive turns a chosen waypoint into steering and throttle commands.
package drive

import (
	"github.com/paulmach/orb"

	"belief-driver/internal/grid"
)

// Pose is the controlled car's position and heading.
type Pose struct {
	Pos orb.Point `json:"pos"`
	Dir orb.Point `json:"dir"`
}

// Command is sent to the vehicle once per tick.
type Command struct {
	Steering float64 `json:"steering"` // wheel angle in degrees
	Throttle float64 `json:"throttle"` // 1 drives forward, 0 holds
}

// AdapterConfig tunes the collision check.
type AdapterConfig struct {
	CarLength       float64
	LookaheadFactor float64
	CloseThreshold  float64
}

// DefaultAdapterConfig looks 1.5 car lengths ahead and stops for any tile
// above 1% occupancy.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		CarLength:       25,
		LookaheadFactor: 1.5,
		CloseThreshold:  0.01,
	}
}

// Adapter converts waypoints into vehicle commands.
type Adapter struct {
	config   AdapterConfig
	geometry grid.Geometry
}

// NewAdapter creates an adapter that reads beliefs laid out by geometry.
func NewAdapter(config AdapterConfig, geometry grid.Geometry) *Adapter {
	return &Adapter{config: config, geometry: geometry}
}

// Command steers from pose towards target and drives forward unless another
// car is probably right ahead.
func (a *Adapter) Command(pose Pose, target orb.Point, belief *grid.Belief) Command {
	toTarget := sub(target, pose.Pos)
	cmd := Command{Steering: -angleBetween(toTarget, pose.Dir)}
	if !a.IsCloseToOtherCar(pose, belief) {
		cmd.Throttle = 1
	}
	return cmd
}

// Hold keeps the wheels straight and the car still.
func (a *Adapter) Hold() Command {
	return Command{}
}

// IsCloseToOtherCar checks the tile a short distance ahead of the car.
func (a *Adapter) IsCloseToOtherCar(pose Pose, belief *grid.Belief) bool {
	offset := scale(normalized(pose.Dir), a.config.LookaheadFactor*a.config.CarLength)
	ahead := a.geometry.TileAt(add(pose.Pos, offset))
	return belief.ProbAt(ahead) > a.config.CloseThreshold
}
