// Package rules contains the pure calculation logic for shift mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// DrainRates tunes how fast the night wears the player and the store down.
// Rates are per second unless noted.
type DrainRates struct {
	DarknessPerTick    float64 `yaml:"darkness_per_tick"` // whole seconds spent in the dark
	DarknessThreshold  float64 `yaml:"darkness_threshold"`
	ProximityRadius    float64 `yaml:"proximity_radius"`
	ProximityRate      float64 `yaml:"proximity_rate"`
	IntegrityThreshold float64 `yaml:"integrity_threshold"`
	IntegrityRate      float64 `yaml:"integrity_rate"`
	RunRate            float64 `yaml:"run_rate"`
	ContactRate        float64 `yaml:"contact_rate"`
	BreakingRate       float64 `yaml:"breaking_rate"`
	AggressiveRate     float64 `yaml:"aggressive_rate"`
	BatteryRate        float64 `yaml:"battery_rate"`
}

// DefaultDrainRates: 2 sanity per dark second, 0.02 battery per 60 Hz frame.
func DefaultDrainRates() DrainRates {
	return DrainRates{
		DarknessPerTick:    2,
		DarknessThreshold:  0.25,
		ProximityRadius:    150,
		ProximityRate:      5,
		IntegrityThreshold: 50,
		IntegrityRate:      2,
		RunRate:            0.6,
		ContactRate:        4,
		BreakingRate:       1.0,
		AggressiveRate:     0.5,
		BatteryRate:        1.2,
	}
}

// SanityDrainParams holds everything one frame of sanity drain depends on.
type SanityDrainParams struct {
	Elapsed          float64   // frame delta in seconds
	DarkTicks        int       // whole dark seconds completed this frame
	HostileDistances []float64 // distance to every active hostile entity
	Contacts         int       // chasers touching the player
	Integrity        float64
	Running          bool
}

// SanityDrain itemises one frame of drain so callers can log the causes.
type SanityDrain struct {
	Darkness  float64
	Proximity float64
	Integrity float64
	Running   float64
	Contact   float64
}

// Total is the sum of every cause. It is applied to the meter in one step.
func (d SanityDrain) Total() float64 {
	return d.Darkness + d.Proximity + d.Integrity + d.Running + d.Contact
}

// IsDark reports whether the player is standing in darkness.
func IsDark(ambient float64, flashlightOn bool, r DrainRates) bool {
	return !flashlightOn && ambient < r.DarknessThreshold
}

// DarknessTicks feeds elapsed time into the darkness accumulator and returns
// how many whole seconds completed plus the carried remainder.
func DarknessTicks(acc, elapsed float64) (ticks int, rest float64) {
	if elapsed > 0 {
		acc += elapsed
	}
	for acc >= 1 {
		acc--
		ticks++
	}
	return ticks, acc
}

// CalculateSanityDrain computes the sanity loss for a frame.
func CalculateSanityDrain(p SanityDrainParams, r DrainRates) SanityDrain {
	var d SanityDrain
	if p.Elapsed < 0 {
		p.Elapsed = 0
	}

	d.Darkness = float64(p.DarkTicks) * r.DarknessPerTick

	if r.ProximityRadius > 0 {
		for _, dist := range p.HostileDistances {
			if dist < r.ProximityRadius {
				falloff := 1 - dist/r.ProximityRadius
				d.Proximity += r.ProximityRate * falloff * p.Elapsed
			}
		}
	}

	if r.IntegrityThreshold > 0 && p.Integrity < r.IntegrityThreshold {
		falloff := (r.IntegrityThreshold - p.Integrity) / r.IntegrityThreshold
		d.Integrity = r.IntegrityRate * falloff * p.Elapsed
	}

	if p.Running {
		d.Running = r.RunRate * p.Elapsed
	}

	d.Contact = float64(p.Contacts) * r.ContactRate * p.Elapsed
	return d
}

// IntegrityDrain is the store damage for a frame.
func IntegrityDrain(breaking, aggressive int, elapsed float64, r DrainRates) float64 {
	if elapsed <= 0 {
		return 0
	}
	return (float64(breaking)*r.BreakingRate + float64(aggressive)*r.AggressiveRate) * elapsed
}
