// Package meter defines the bounded resource gauges used for sanity,
// store integrity and flashlight battery.
// This package is PURE and must NOT import any infrastructure packages.
package meter

import "math"

const (
	DefaultMin = 0.0
	DefaultMax = 100.0
)

// Meter is a scalar that always stays inside [Min, Max].
type Meter struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// New returns a 0..100 meter holding value (clamped).
func New(value float64) Meter {
	m := Meter{Min: DefaultMin, Max: DefaultMax}
	m.Set(value)
	return m
}

// Set overwrites the value, clamping it. NaN is ignored.
func (m *Meter) Set(value float64) {
	if math.IsNaN(value) {
		return
	}
	m.Value = math.Max(m.Min, math.Min(m.Max, value))
}

// Drain lowers the meter by amount and returns how much was actually removed.
// A negative amount restores.
func (m *Meter) Drain(amount float64) float64 {
	before := m.Value
	m.Set(m.Value - amount)
	return before - m.Value
}

// Restore raises the meter by amount and returns how much was actually added.
func (m *Meter) Restore(amount float64) float64 {
	before := m.Value
	m.Set(m.Value + amount)
	return m.Value - before
}

// Empty reports whether the meter sits at its minimum.
func (m Meter) Empty() bool { return m.Value <= m.Min }

// Full reports whether the meter sits at its maximum.
func (m Meter) Full() bool { return m.Value >= m.Max }

// Fraction is the fill level in [0,1].
func (m Meter) Fraction() float64 {
	if m.Max == m.Min {
		return 0
	}
	return (m.Value - m.Min) / (m.Max - m.Min)
}
