package engine

import (
	"fmt"
	"math"
)

// HoursPerDay is where the shift clock wraps.
const HoursPerDay = 24.0

// Clock is the in-store time of day, in fractional hours.
// It does NOT know about the player or entities - only time progression.
type Clock struct {
	time      float64
	prev      float64
	advanced  float64
	timeScale float64 // game hours per real second
}

// NewClock starts the clock at start hours.
func NewClock(start, timeScale float64) *Clock {
	t := wrapHours(start)
	return &Clock{time: t, prev: t, timeScale: timeScale}
}

// Advance moves the clock forward by delta real seconds. Negative or NaN
// deltas are ignored.
func (c *Clock) Advance(delta float64) {
	c.prev = c.time
	c.advanced = 0
	if !(delta > 0) {
		return
	}
	c.advanced = delta * c.timeScale
	c.time = wrapHours(c.time + c.advanced)
}

// Set jumps the clock. Nothing counts as crossed by a jump.
func (c *Clock) Set(hours float64) {
	c.time = wrapHours(hours)
	c.prev = c.time
	c.advanced = 0
}

// Time is the current time of day in [0, 24).
func (c *Clock) Time() float64 { return c.time }

// LastAdvance is how many game hours the last Advance covered.
func (c *Clock) LastAdvance() float64 { return c.advanced }

// IsShiftComplete reports whether the clock sits in [end, end+window).
func (c *Clock) IsShiftComplete(end, window float64) bool {
	return c.time >= end && c.time < end+window
}

// Crossed reports whether the last Advance passed over or landed on mark.
func (c *Clock) Crossed(mark float64) bool {
	if c.advanced <= 0 {
		return false
	}
	if c.advanced >= HoursPerDay {
		return true
	}
	ahead := wrapHours(mark - c.prev)
	return ahead > 0 && ahead <= c.advanced
}

// HoursCrossed lists the whole hours the last Advance passed.
func (c *Clock) HoursCrossed() []int {
	var out []int
	for h := 0; h < int(HoursPerDay); h++ {
		if c.Crossed(float64(h)) {
			out = append(out, h)
		}
	}
	return out
}

// Hour is the whole hour on a 24h dial.
func (c *Clock) Hour() int { return int(c.time) }

// Minute is the minute within the hour.
func (c *Clock) Minute() int {
	m := int((c.time - math.Floor(c.time)) * 60)
	if m > 59 {
		m = 59
	}
	return m
}

// Display renders the HUD clock, e.g. "SHIFT: 10:00 PM".
func (c *Clock) Display() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("SHIFT: %d:%02d %s", h12, c.Minute(), suffix)
}

func wrapHours(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	t = math.Mod(t, HoursPerDay)
	if t < 0 {
		t += HoursPerDay
	}
	// Tiny negatives round up to a full day.
	if t >= HoursPerDay {
		t = 0
	}
	return t
}
