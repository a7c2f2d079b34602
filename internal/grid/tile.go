package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// DefaultTileSize is the width of one belief tile in world units.
const DefaultTileSize = 30.0

// Tile identifies a discrete grid cell.
type Tile struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.Row, t.Col)
}

// Less orders tiles row-major.
func (t Tile) Less(other Tile) bool {
	if t.Row != other.Row {
		return t.Row < other.Row
	}
	return t.Col < other.Col
}

// Geometry converts between tiles and continuous world coordinates.
type Geometry struct {
	TileSize float64
}

// DefaultGeometry uses DefaultTileSize.
func DefaultGeometry() Geometry {
	return Geometry{TileSize: DefaultTileSize}
}

func (g Geometry) size() float64 {
	if g.TileSize <= 0 {
		return DefaultTileSize
	}
	return g.TileSize
}

// ColToX returns the x coordinate of the centre of a column.
func (g Geometry) ColToX(col int) float64 {
	return (float64(col) + 0.5) * g.size()
}

// RowToY returns the y coordinate of the centre of a row.
func (g Geometry) RowToY(row int) float64 {
	return (float64(row) + 0.5) * g.size()
}

// XToCol returns the column containing x.
func (g Geometry) XToCol(x float64) int {
	return int(math.Floor(x / g.size()))
}

// YToRow returns the row containing y.
func (g Geometry) YToRow(y float64) int {
	return int(math.Floor(y / g.size()))
}

// TileAt returns the tile containing p.
func (g Geometry) TileAt(p orb.Point) Tile {
	return Tile{Row: g.YToRow(p.Y()), Col: g.XToCol(p.X())}
}

// Center returns the world position of a tile's centre.
func (g Geometry) Center(t Tile) orb.Point {
	return orb.Point{g.ColToX(t.Col), g.RowToY(t.Row)}
}
