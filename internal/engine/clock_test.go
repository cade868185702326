package engine

import "testing"

func TestClockWrapsAtMidnight(t *testing.T) {
	c := NewClock(0, 1)
	c.Advance(12)
	c.Advance(12)
	if c.Time() != 0 {
		t.Fatalf("two advances summing to 24 should wrap to 0, got %v", c.Time())
	}

	c = NewClock(23.5, 1)
	c.Advance(1)
	if c.Time() != 0.5 {
		t.Errorf("23.5 + 1 = %v, want 0.5", c.Time())
	}
	if !c.Crossed(0) {
		t.Errorf("advance over midnight should cross 0")
	}
}

func TestClockIgnoresNegativeDelta(t *testing.T) {
	c := NewClock(22, 0.06)
	c.Advance(-5)
	if c.Time() != 22 {
		t.Errorf("negative delta moved the clock to %v", c.Time())
	}
	if c.Crossed(22) {
		t.Errorf("an ignored advance crosses nothing")
	}
}

func TestClockCrossed(t *testing.T) {
	c := NewClock(2.5, 1)
	c.Advance(0.5)
	if !c.Crossed(3) {
		t.Errorf("landing exactly on 3 counts as crossing it")
	}
	c.Advance(0.5)
	if c.Crossed(3) {
		t.Errorf("3 was already crossed on the previous advance")
	}

	c = NewClock(5, 1)
	c.Advance(4)
	if !c.Crossed(6) {
		t.Errorf("large delta must still cross the shift end")
	}
	if c.IsShiftComplete(6, 0.1) {
		t.Errorf("9:00 is outside the shift-end window")
	}
}

func TestClockShiftWindow(t *testing.T) {
	c := NewClock(5.95, 1)
	if c.IsShiftComplete(6, 0.1) {
		t.Fatalf("5.95 is before the shift end")
	}
	c.Advance(0.1)
	if !c.IsShiftComplete(6, 0.1) {
		t.Errorf("6.05 is inside the window")
	}
}

func TestClockDisplay(t *testing.T) {
	cases := map[float64]string{
		22:    "SHIFT: 10:00 PM",
		0:     "SHIFT: 12:00 AM",
		3.5:   "SHIFT: 3:30 AM",
		12.25: "SHIFT: 12:15 PM",
	}
	for hours, want := range cases {
		c := NewClock(hours, 1)
		if got := c.Display(); got != want {
			t.Errorf("Display(%v) = %q, want %q", hours, got, want)
		}
	}
}

func TestHoursCrossed(t *testing.T) {
	c := NewClock(22.9, 1)
	c.Advance(2.2)
	got := c.HoursCrossed()
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 23 {
		t.Fatalf("HoursCrossed = %v, want [0 1 23]", got)
	}
}

func TestClockSetStaysInsideDay(t *testing.T) {
	c := NewClock(22, 1)
	for _, h := range []float64{-1e-18, -24, 24, 48.5, -0.5} {
		c.Set(h)
		if got := c.Time(); got < 0 || got >= HoursPerDay {
			t.Errorf("Set(%v) left the clock at %v", h, got)
		}
	}
	c.Set(-1e-18)
	if c.Time() != 0 {
		t.Errorf("a tiny negative should wrap to 0, got %v", c.Time())
	}
}
