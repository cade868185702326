package item

import (
	"testing"

	"github.com/nightcrew/lastshift/internal/domain/geom"
)

type fakeTarget struct {
	sanity, battery, integrity float64
}

func (f *fakeTarget) RestoreSanity(a float64) float64  { f.sanity += a; return a }
func (f *fakeTarget) RestoreBattery(a float64) float64 { f.battery += a; return a }
func (f *fakeTarget) RepairStore(a float64) float64    { f.integrity += a; return a }

func TestCollectOnlyOnce(t *testing.T) {
	it := New(1, TypeSoda, geom.Vec{X: 10, Y: 10}, NewCatalog(false))

	got, ok := it.Collect()
	if !ok || got != it {
		t.Fatalf("first Collect should succeed")
	}
	if _, ok := it.Collect(); ok {
		t.Fatalf("second Collect should be a no-op")
	}
	if !it.Collected {
		t.Fatalf("item must stay collected")
	}
}

func TestApplyEffectDispatch(t *testing.T) {
	catalog := NewCatalog(false)
	cases := []struct {
		typ                        Type
		sanity, battery, integrity float64
	}{
		{TypeSoda, 30, 0, 0},
		{TypeBattery, 0, 50, 0},
		{TypeTape, 0, 0, 0},
		{TypeScanner, 0, 0, 0},
		{TypeAirhorn, 0, 0, 0},
		{TypeCleaner, 0, 0, 0},
		{TypePlush, 0, 0, 0},
		{TypeJerky, 0, 0, 0},
	}
	for _, c := range cases {
		target := &fakeTarget{}
		New(0, c.typ, geom.Vec{}, catalog).ApplyEffect(target)
		if target.sanity != c.sanity || target.battery != c.battery || target.integrity != c.integrity {
			t.Errorf("%s: got %+v, want sanity=%v battery=%v integrity=%v", c.typ, *target, c.sanity, c.battery, c.integrity)
		}
	}
}

func TestPassiveTapeCatalog(t *testing.T) {
	target := &fakeTarget{}
	it := New(0, TypeTape, geom.Vec{}, NewCatalog(true))
	if !it.Passive() {
		t.Fatalf("tape should be passive under the prototype catalog")
	}
	it.ApplyEffect(target)
	if target.integrity != 10 {
		t.Errorf("passive tape repaired %v, want 10", target.integrity)
	}
	if Registry[TypeTape].Passive() {
		t.Errorf("tuning a catalog must not touch the shared registry")
	}
}

func TestDriftDecaysToExactZero(t *testing.T) {
	it := New(0, TypeBattery, geom.Vec{X: 100, Y: 100}, NewCatalog(false))
	it.Knock(geom.Vec{X: 120, Y: -60})

	for i := 0; i < 600 && !it.Velocity.IsZero(); i++ {
		it.Update(1.0 / 60)
	}
	if !it.Velocity.IsZero() {
		t.Fatalf("velocity never settled: %+v", it.Velocity)
	}
	if it.Pos.X <= 100 || it.Pos.Y >= 100 {
		t.Errorf("item did not drift along the knock: %+v", it.Pos)
	}
	settled := it.Pos
	it.Update(1.0 / 60)
	if it.Pos != settled {
		t.Errorf("settled item kept moving")
	}
}

func TestCollectedItemIgnoresKnock(t *testing.T) {
	it := New(0, TypeSoda, geom.Vec{}, NewCatalog(false))
	it.Collect()
	it.Knock(geom.Vec{X: 50})
	if !it.Velocity.IsZero() {
		t.Errorf("collected item picked up velocity %+v", it.Velocity)
	}
}
