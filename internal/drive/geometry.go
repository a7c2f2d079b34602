package drive

import (
	"math"

	"github.com/paulmach/orb"
)

// sub returns a - b as a vector.
func sub(a, b orb.Point) orb.Point {
	return orb.Point{a.X() - b.X(), a.Y() - b.Y()}
}

// add returns p + v.
func add(p, v orb.Point) orb.Point {
	return orb.Point{p.X() + v.X(), p.Y() + v.Y()}
}

// scale returns v * k.
func scale(v orb.Point, k float64) orb.Point {
	return orb.Point{v.X() * k, v.Y() * k}
}

// normalized returns v scaled to unit length; the zero vector stays zero.
func normalized(v orb.Point) orb.Point {
	l := math.Hypot(v.X(), v.Y())
	if l == 0 {
		return orb.Point{}
	}
	return scale(v, 1/l)
}

// cross calculates the z component of the cross product a x b
func cross(a, b orb.Point) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// dot calculates the dot product a . b
func dot(a, b orb.Point) float64 {
	return a.X()*b.X() + a.Y()*b.Y()
}

// angleBetween returns the signed angle in degrees from a to b, positive
// counter-clockwise.
func angleBetween(a, b orb.Point) float64 {
	return math.Atan2(cross(a, b), dot(a, b)) * 180 / math.Pi
}
