package geom

// Arena is the rectangular store floor.
type Arena struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DefaultArena is the 800x600 store used by every variant of the game.
var DefaultArena = Arena{Width: 800, Height: 600}

// Clamp keeps p inside the arena shrunk by insetX/insetY on each side.
func (a Arena) Clamp(p Vec, insetX, insetY float64) Vec {
	return Vec{
		X: Clamp(p.X, insetX, a.Width-insetX),
		Y: Clamp(p.Y, insetY, a.Height-insetY),
	}
}

// Contains reports whether p lies inside the arena bounds.
func (a Arena) Contains(p Vec) bool {
	return p.X >= 0 && p.X <= a.Width && p.Y >= 0 && p.Y <= a.Height
}

// Center returns the middle of the floor.
func (a Arena) Center() Vec {
	return Vec{a.Width / 2, a.Height / 2}
}
