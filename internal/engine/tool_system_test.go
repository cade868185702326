package engine

import (
	"testing"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/rules"
)

func TestAirhornPartitionsByDistance(t *testing.T) {
	s := newTestSession(quietSettings())
	origin := s.player.Pos
	near := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{X: 50}))
	inner := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{Y: 120}))
	edge := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{X: -150}))
	mid := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{X: 300}))
	farStart := origin.Add(geom.Vec{X: -10, Y: -290})
	far := s.SpawnEntity(entity.TypeTapper, farStart)
	crate := s.PlaceItem(item.TypeSoda, origin.Add(geom.Vec{X: 20}))
	give(s, item.TypeAirhorn)

	stunned := []*entity.Entity{near, inner, edge}
	starts := make([]geom.Vec, len(stunned))
	for i, e := range stunned {
		starts[i] = e.Pos
	}

	res := s.toolSystem.Use(s, ToolAirhorn)
	if !res.OK {
		t.Fatalf("airhorn failed: %s", res.Message)
	}
	for i, e := range stunned {
		if !e.Stunned() {
			t.Errorf("entity %d at %v should be stunned", i, geom.Distance(origin, starts[i]))
		}
		if e.Pos != starts[i] {
			t.Errorf("stunned entity %d was pulled from %+v to %+v", i, starts[i], e.Pos)
		}
	}
	if mid.Stunned() {
		t.Errorf("entity at 300 should not be stunned")
	}
	if d := geom.Distance(origin, mid.Pos); d >= 300 {
		t.Errorf("entity at 300 should be drawn toward the horn, still at %v", d)
	}
	if far.Stunned() {
		t.Errorf("entity beyond 150 should not be stunned")
	}
	if d := geom.Distance(origin, far.Pos); d >= geom.Distance(origin, farStart) {
		t.Errorf("entity within 400 should be drawn in")
	}
	if crate.Velocity.X <= 0 {
		t.Errorf("nearby items should be knocked outward, velocity %+v", crate.Velocity)
	}
	if s.player.HasItem(item.TypeAirhorn) {
		t.Errorf("airhorn should be consumed")
	}

	res = s.toolSystem.Use(s, ToolAirhorn)
	if res.OK || res.Message != "No air horn!" {
		t.Errorf("second honk should fail, got %+v", res)
	}
}

func TestAirhornIgnoresDistantEntities(t *testing.T) {
	s := newTestSession(quietSettings())
	start := geom.Vec{X: 20, Y: 20}
	far := s.SpawnEntity(entity.TypeTapper, start)
	give(s, item.TypeAirhorn)

	s.toolSystem.Use(s, ToolAirhorn)
	if far.Pos != start || far.Stunned() {
		t.Errorf("entity beyond 400 should not react")
	}
}

func TestCleanerCone(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.Facing = 0
	s.player.Sanity.Set(50)
	origin := s.player.Pos

	ahead := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{X: 80}))
	beside := s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{Y: 80}))
	lured := s.SpawnEntity(entity.TypeGatherer, origin.Add(geom.Vec{Y: 200}))
	spray := origin.Add(geom.Vec{X: 100})
	before := geom.Distance(lured.Pos, spray)
	give(s, item.TypeCleaner)

	res := s.toolSystem.Use(s, ToolCleaner)
	if !res.OK {
		t.Fatalf("cleaner failed: %s", res.Message)
	}
	if !ahead.Blinded() {
		t.Errorf("entity in the cone should be blinded")
	}
	if beside.Blinded() {
		t.Errorf("entity outside the cone should not be blinded")
	}
	if lured.Blinded() || geom.Distance(lured.Pos, spray) >= before {
		t.Errorf("gatherer outside the cone should be lured to the spray")
	}
	if s.player.Sanity.Value != 55 {
		t.Errorf("cleaning should restore 5 sanity, have %v", s.player.Sanity.Value)
	}
	if s.player.HasItem(item.TypeCleaner) {
		t.Errorf("cleaner should be consumed")
	}

	if res := s.toolSystem.Use(s, ToolCleaner); res.OK || res.Message != "No spray cleaner!" {
		t.Errorf("empty cleaner should fail, got %+v", res)
	}
}

func TestScannerPrefersEntityOnTie(t *testing.T) {
	s := newTestSession(quietSettings())
	origin := s.player.Pos
	s.SpawnEntity(entity.TypeTapper, origin.Add(geom.Vec{X: 50}))
	s.PlaceItem(item.TypeSoda, origin.Add(geom.Vec{X: -50}))

	res := s.toolSystem.Use(s, ToolScanner)
	if res.Scan == nil || res.Scan.Target != ScanEntity || res.Scan.Bucket != rules.BucketClose {
		t.Fatalf("expected entity close, got %+v", res.Scan)
	}
	if res.Message != "SCANNER: ENTITY CLOSE" {
		t.Errorf("message = %q", res.Message)
	}

	s.PlaceItem(item.TypeBattery, origin.Add(geom.Vec{Y: 10}))
	res = s.toolSystem.Use(s, ToolScanner)
	if res.Scan.Target != ScanItem || res.Scan.Kind != string(item.TypeBattery) {
		t.Errorf("nearer item should win, got %+v", res.Scan)
	}
}

func TestScannerEmptyStore(t *testing.T) {
	s := newTestSession(quietSettings())
	res := s.toolSystem.Use(s, ToolScanner)
	if !res.OK || res.Scan != nil || res.Message != "SCANNER: No readings." {
		t.Errorf("unexpected scan %+v", res)
	}
}

func TestCycleWrapsRoster(t *testing.T) {
	s := newTestSession(quietSettings())
	for i := 0; i < len(Roster); i++ {
		s.Apply(Command{Kind: CmdCycleTool})
	}
	if s.CurrentTool().Kind != ToolScanner {
		t.Errorf("cycling the whole roster should return to the scanner, got %s", s.CurrentTool().Kind)
	}
	res := s.Apply(Command{Kind: CmdCycleTool})
	if res.Message != "Equipped: Flashlight" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestFlashlightToggleCommand(t *testing.T) {
	s := newTestSession(quietSettings())
	if res := s.Apply(Command{Kind: CmdToggleFlashlight}); !res.OK || s.player.FlashlightOn {
		t.Fatalf("flashlight should switch off")
	}
	s.player.Battery.Set(0)
	if res := s.Apply(Command{Kind: CmdToggleFlashlight}); res.OK || s.player.FlashlightOn {
		t.Errorf("a dead battery cannot light the flashlight")
	}
}
