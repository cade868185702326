// Package geom holds the 2D math shared by the store simulation.
// This package is PURE and must NOT import any other project package.
package geom

import "math"

// Vec is a point or a velocity in store units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*k.
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Distance is the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Heading returns the angle from a toward b, in radians.
func Heading(from, to Vec) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// FromAngle returns a vector of the given length pointing at angle.
func FromAngle(angle, length float64) Vec {
	return Vec{math.Cos(angle) * length, math.Sin(angle) * length}
}

// AngleDiff returns the absolute difference between two angles folded
// into [0, pi].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// InCone reports whether target lies inside the cone that starts at origin,
// points along facing and opens halfAngle to each side. A target on the
// origin counts as inside.
func InCone(origin Vec, facing, halfAngle float64, target Vec) bool {
	if Distance(origin, target) == 0 {
		return true
	}
	return AngleDiff(Heading(origin, target), facing) <= halfAngle
}

// Clamp bounds x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
