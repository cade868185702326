package rules

import (
	"math"
	"math/rand"
	"testing"
)

func TestDarknessTicksCarriesRemainder(t *testing.T) {
	acc := 0.0
	total := 0
	for i := 0; i < 13; i++ {
		var ticks int
		ticks, acc = DarknessTicks(acc, 0.25)
		total += ticks
	}
	if total != 3 {
		t.Errorf("3.25 seconds of frames produced %d ticks, want 3", total)
	}
	if acc != 0.25 {
		t.Errorf("leftover %f, want 0.25", acc)
	}

	ticks, rest := DarknessTicks(0.9, 2.3)
	if ticks != 3 || math.Abs(rest-0.2) > 1e-9 {
		t.Errorf("DarknessTicks(0.9, 2.3) = %d, %f; want 3, 0.2", ticks, rest)
	}
}

func TestCalculateSanityDrainSumsCauses(t *testing.T) {
	r := DefaultDrainRates()
	d := CalculateSanityDrain(SanityDrainParams{
		Elapsed:          1,
		DarkTicks:        1,
		HostileDistances: []float64{0, 75, 150, 400},
		Contacts:         1,
		Integrity:        25,
		Running:          true,
	}, r)

	if d.Darkness != 2 {
		t.Errorf("darkness = %v, want 2", d.Darkness)
	}
	if math.Abs(d.Proximity-7.5) > 1e-9 {
		t.Errorf("proximity = %v, want 7.5 (5 + 2.5, entities at or beyond the radius add nothing)", d.Proximity)
	}
	if math.Abs(d.Integrity-1) > 1e-9 {
		t.Errorf("integrity = %v, want 1", d.Integrity)
	}
	if d.Running != 0.6 || d.Contact != 4 {
		t.Errorf("running/contact = %v/%v, want 0.6/4", d.Running, d.Contact)
	}
	if math.Abs(d.Total()-15.1) > 1e-9 {
		t.Errorf("total = %v, want 15.1", d.Total())
	}
}

func TestNoIntegrityDrainAboveThreshold(t *testing.T) {
	d := CalculateSanityDrain(SanityDrainParams{Elapsed: 1, Integrity: 50}, DefaultDrainRates())
	if d.Integrity != 0 {
		t.Errorf("integrity at threshold drained %v", d.Integrity)
	}
}

func TestIsDark(t *testing.T) {
	r := DefaultDrainRates()
	if !IsDark(0.1, false, r) {
		t.Errorf("dim store with the flashlight off should be dark")
	}
	if IsDark(0.1, true, r) {
		t.Errorf("flashlight on should never be dark")
	}
	if IsDark(0.8, false, r) {
		t.Errorf("bright store should not be dark")
	}
}

func TestFrameChance(t *testing.T) {
	if got := FrameChance(0.02, 1.0/60); math.Abs(got-0.02) > 1e-9 {
		t.Errorf("one reference frame = %v, want 0.02", got)
	}
	if FrameChance(0.5, 0) != 0 || FrameChance(0, 1) != 0 {
		t.Errorf("zero elapsed or zero chance must never fire")
	}
	if FrameChance(1, 0.001) != 1 {
		t.Errorf("certain events stay certain")
	}
	rng := rand.New(rand.NewSource(1))
	if Roll(rng, 0) {
		t.Errorf("Roll(0) fired")
	}
}

func TestDistanceBucket(t *testing.T) {
	cases := map[float64]string{0: BucketClose, 99.9: BucketClose, 100: BucketNearby, 199: BucketNearby, 200: BucketFar, 5000: BucketFar}
	for d, want := range cases {
		if got := DistanceBucket(d); got != want {
			t.Errorf("DistanceBucket(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestCalculateScore(t *testing.T) {
	got := CalculateScore(ScoreParams{Sanity: 55.9, Integrity: 80.2, CompletedDirectives: 2, HoursSurvived: 8})
	if got != 550+800+500+800 {
		t.Errorf("score = %d, want 2650", got)
	}
}

func TestIntegrityDrain(t *testing.T) {
	if got := IntegrityDrain(2, 1, 2, DefaultDrainRates()); got != 5 {
		t.Errorf("IntegrityDrain = %v, want 5", got)
	}
	if IntegrityDrain(3, 3, -1, DefaultDrainRates()) != 0 {
		t.Errorf("negative elapsed must not drain")
	}
}
