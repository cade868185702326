package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/events"
)

// quietSettings is an empty store with every random hazard switched off.
func quietSettings() Settings {
	s := DefaultSettings()
	s.Spawn.Items = 0
	s.Spawn.Plush = false
	s.Spawn.Gatherers = 0
	s.Spawn.Tappers = 0
	s.Spawn.LostChild = false
	s.Hazards.WindowBreakRate = 0
	s.Hazards.AuditorBaseRate = 0
	s.Hazards.AuditorStressRate = 0
	s.Schedule.ChatterRate = 0
	return s
}

func newTestSession(settings Settings) *Session {
	return NewSession(settings, Deps{Rand: rand.New(rand.NewSource(7)), SessionID: "test-shift"})
}

// give puts items straight into the clerk's pockets.
func give(s *Session, types ...item.Type) {
	for _, t := range types {
		it := item.New(s.newID(), t, geom.Vec{}, s.catalog)
		it.Collected = true
		s.player.Inventory = append(s.player.Inventory, it)
	}
}

func countEvents(s *Session, t events.EventType) int {
	return len(s.eventLog.GetByType(t))
}

func TestNewSessionSpawnsStandardNight(t *testing.T) {
	s := newTestSession(DefaultSettings())

	counts := map[entity.Type]int{}
	for _, e := range s.Entities() {
		counts[e.Type]++
	}
	if counts[entity.TypeGatherer] != 2 || counts[entity.TypeTapper] != 3 || counts[entity.TypeLostChild] != 1 {
		t.Errorf("unexpected entity roster: %v", counts)
	}
	if len(s.Items()) != 21 {
		t.Errorf("expected 20 items plus the plush, got %d", len(s.Items()))
	}
	if len(s.Directives()) != 3 {
		t.Errorf("expected 3 directives, got %d", len(s.Directives()))
	}
	if s.Clock().Time() != 22 {
		t.Errorf("shift should start at 22:00, got %v", s.Clock().Time())
	}
	if countEvents(s, events.EventTypeAnnouncement) != 1 {
		t.Errorf("expected the welcome announcement")
	}
}

func TestSodaPickupThroughUpdate(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.Sanity.Set(50)
	soda := s.PlaceItem(item.TypeSoda, s.player.Pos.Add(geom.Vec{X: 20}))

	s.Update(0.01, player.ActionState{Pickup: true})

	if !soda.Collected {
		t.Fatalf("soda was not collected")
	}
	if s.player.Sanity.Value != 80 || s.State().Sanity != 80 {
		t.Errorf("sanity = %v (mirror %v), want 80", s.player.Sanity.Value, s.State().Sanity)
	}
	if len(s.player.Inventory) != 0 {
		t.Errorf("soda should be consumed on pickup")
	}
}

func TestTapeRepairsStoreAndWindow(t *testing.T) {
	s := newTestSession(quietSettings())
	s.state.Integrity.Set(25)
	tapper := s.SpawnEntity(entity.TypeTapper, geom.Vec{X: 50, Y: 300})
	tapper.StartBreaking()
	give(s, item.TypeTape)
	s.toolSystem.current = 4

	res := s.Apply(Command{Kind: CmdUseTool})
	if !res.OK {
		t.Fatalf("tape failed: %s", res.Message)
	}
	if s.State().Integrity.Value != 40 {
		t.Errorf("integrity = %v, want 40", s.State().Integrity.Value)
	}
	if s.player.HasItem(item.TypeTape) {
		t.Errorf("tape should be consumed")
	}
	if tapper.State != entity.StateTapping {
		t.Errorf("breaking tapper should be repaired, state %s", tapper.State)
	}

	res = s.Apply(Command{Kind: CmdUseTool})
	if res.OK || s.State().Integrity.Value != 40 {
		t.Errorf("tape without tape must fail and change nothing")
	}
}

func TestSanityGameOverIsFinal(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.Sanity.Set(1)
	s.player.FlashlightOn = false

	s.Update(1.0, player.ActionState{})

	st := s.State()
	if !st.GameOver || st.Win {
		t.Fatalf("expected game over, got %+v", st)
	}
	if st.Reason != ReasonSanity {
		t.Errorf("reason = %q", st.Reason)
	}

	clock, frame := s.Clock().Time(), s.Frame()
	s.Update(1.0, player.ActionState{Right: true})
	if s.Clock().Time() != clock || s.Frame() != frame || s.player.Pos != DefaultSettings().Spawn.PlayerStart {
		t.Errorf("Update after game over mutated the shift")
	}
	if res := s.Apply(Command{Kind: CmdBarricade}); res.OK {
		t.Errorf("commands after game over must be refused")
	}
	if s.CompleteShift() {
		t.Errorf("a lost shift cannot also be won")
	}
	if countEvents(s, events.EventTypeGameOver) != 1 {
		t.Errorf("game over journaled %d times", countEvents(s, events.EventTypeGameOver))
	}
}

func TestIntegrityGameOver(t *testing.T) {
	s := newTestSession(quietSettings())
	s.state.Integrity.Set(0.5)
	tapper := s.SpawnEntity(entity.TypeTapper, geom.Vec{X: 50, Y: 300})
	tapper.StartBreaking()

	s.Update(1.0, player.ActionState{})
	if !s.State().GameOver || s.State().Reason != ReasonIntegrity {
		t.Fatalf("expected the store to fall, got %+v", s.State())
	}
}

func TestShiftCompletesOnce(t *testing.T) {
	s := newTestSession(quietSettings())
	s.Clock().Set(5.99)

	s.Update(1.0, player.ActionState{})
	st := s.State()
	if !st.Win || st.GameOver {
		t.Fatalf("expected a win at 6:00, got %+v", st)
	}
	if st.Score < 2000 {
		t.Errorf("score %d should reward full meters", st.Score)
	}
	if s.CompleteShift() || s.GameOver("late") {
		t.Errorf("terminal transitions must be one-shot")
	}
	s.Update(1.0, player.ActionState{})
	if countEvents(s, events.EventTypeShiftComplete) != 1 {
		t.Errorf("shift completion journaled %d times", countEvents(s, events.EventTypeShiftComplete))
	}
}

func TestLargeDeltaCannotSkipShiftEnd(t *testing.T) {
	s := newTestSession(quietSettings())
	s.Clock().Set(5.0)
	s.Update(100, player.ActionState{})
	if !s.State().Win {
		t.Errorf("jumping past 6:00 should still end the shift")
	}
}

func TestDarknessDrainsTwoPerSecond(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.FlashlightOn = false

	for i := 0; i < 8; i++ {
		s.Update(0.25, player.ActionState{})
	}
	if s.player.Sanity.Value != 96 {
		t.Errorf("two dark seconds should cost 4 sanity, have %v", s.player.Sanity.Value)
	}
}

func TestAuditorSpawnSuppressedWhileActive(t *testing.T) {
	settings := quietSettings()
	settings.Hazards.AuditorBaseRate = 1e6
	settings.Hazards.AuditorStressRate = 1e6
	s := newTestSession(settings)

	auditors := func() int {
		n := 0
		for _, e := range s.Entities() {
			if e.Type == entity.TypeAuditor {
				n++
			}
		}
		return n
	}

	s.Update(0.1, player.ActionState{})
	if auditors() != 1 {
		t.Fatalf("expected an auditor, got %d", auditors())
	}
	for i := 0; i < 20; i++ {
		s.Update(0.1, player.ActionState{})
	}
	if auditors() != 1 {
		t.Fatalf("a second auditor arrived while one was active: %d", auditors())
	}

	for _, e := range s.Entities() {
		e.Active = false
	}
	s.Update(0.1, player.ActionState{})
	if auditors() != 2 {
		t.Errorf("a new auditor should be allowed once the first left, got %d", auditors())
	}
}

func TestNoAuditorWithZeroRate(t *testing.T) {
	s := newTestSession(quietSettings())
	for i := 0; i < 100; i++ {
		s.Update(0.1, player.ActionState{})
	}
	if len(s.Entities()) != 0 {
		t.Errorf("quiet store grew %d entities", len(s.Entities()))
	}
}

func TestMidnightReinforcement(t *testing.T) {
	s := newTestSession(quietSettings())
	s.Clock().Set(23.99)
	s.Update(1.0, player.ActionState{})

	if len(s.Entities()) != 1 || s.Entities()[0].Type != entity.TypeGatherer {
		t.Fatalf("midnight should bring one gatherer, got %d entities", len(s.Entities()))
	}
	if countEvents(s, events.EventTypeAnnouncement) != 2 {
		t.Errorf("midnight should be announced")
	}
}

func TestThreeAMDread(t *testing.T) {
	s := newTestSession(quietSettings())
	s.Clock().Set(2.99)
	s.Update(1.0, player.ActionState{})

	got := s.player.Sanity.Value
	if got > 87 || got < 82 {
		t.Errorf("3 AM should cost 10 plus a scare (3-8), sanity is %v", got)
	}
	if len(s.ActiveEffects()) != 1 {
		t.Errorf("expected one running effect, got %d", len(s.ActiveEffects()))
	}

	for i := 0; i < 15; i++ {
		s.Update(1.0, player.ActionState{})
	}
	if len(s.ActiveEffects()) != 0 {
		t.Errorf("effects should expire")
	}
}

func TestLostChildCalmedByPlush(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.Sanity.Set(50)
	child := s.SpawnEntity(entity.TypeLostChild, s.player.Pos.Add(geom.Vec{X: 30}))
	give(s, item.TypePlush)

	s.Update(0.01, player.ActionState{})

	if child.Active || child.State != entity.StateCalmed {
		t.Fatalf("child should be calmed, state %s", child.State)
	}
	if s.player.Sanity.Value != 70 {
		t.Errorf("sanity = %v, want 70", s.player.Sanity.Value)
	}
	if s.player.HasItem(item.TypePlush) {
		t.Errorf("plush should be handed over")
	}
	if s.directiveSystem.Completed() != 1 {
		t.Errorf("calming the child should count as a directive")
	}
}

func TestWindowBreakDrainsIntegrity(t *testing.T) {
	settings := quietSettings()
	settings.Hazards.WindowBreakRate = 1e6
	s := newTestSession(settings)
	tapper := s.SpawnEntity(entity.TypeTapper, geom.Vec{X: 50, Y: 300})

	s.Update(1.0, player.ActionState{})
	if tapper.State != entity.StateBreaking {
		t.Fatalf("tapper should be breaking in")
	}
	if s.State().Integrity.Value != 99 {
		t.Errorf("integrity = %v, want 99", s.State().Integrity.Value)
	}
}

func TestBarricadeCooldown(t *testing.T) {
	s := newTestSession(quietSettings())
	s.state.Integrity.Set(50)

	if res := s.Apply(Command{Kind: CmdBarricade}); !res.OK || s.State().Integrity.Value != 55 {
		t.Fatalf("barricade should add 5, integrity %v", s.State().Integrity.Value)
	}
	if res := s.Apply(Command{Kind: CmdBarricade}); res.OK || s.State().Integrity.Value != 55 {
		t.Fatalf("barricade during cooldown must fail")
	}
	s.Update(2.1, player.ActionState{})
	if res := s.Apply(Command{Kind: CmdBarricade}); !res.OK || s.State().Integrity.Value != 60 {
		t.Errorf("barricade should work again after the cooldown, integrity %v", s.State().Integrity.Value)
	}
}

func TestCompleteDirectiveCommand(t *testing.T) {
	s := newTestSession(quietSettings())
	if res := s.Apply(Command{Kind: CmdCompleteDirective, Index: 0}); !res.OK {
		t.Fatalf("first directive should complete: %s", res.Message)
	}
	if res := s.Apply(Command{Kind: CmdCompleteDirective, Index: 0}); res.OK {
		t.Errorf("a directive completes only once")
	}
	if res := s.Apply(Command{Kind: CmdCompleteDirective, Index: 9}); res.OK {
		t.Errorf("out of range directive accepted")
	}
	if s.directiveSystem.Completed() != 1 {
		t.Errorf("completed = %d", s.directiveSystem.Completed())
	}
}

func TestEatSnack(t *testing.T) {
	s := newTestSession(quietSettings())
	s.player.Sanity.Set(40)
	give(s, item.TypeJerky)

	if res := s.Apply(Command{Kind: CmdEatSnack}); !res.OK || s.player.Sanity.Value != 50 {
		t.Fatalf("jerky should restore 10 sanity, have %v", s.player.Sanity.Value)
	}
	if res := s.Apply(Command{Kind: CmdEatSnack}); res.OK {
		t.Errorf("eating with no jerky should fail")
	}
}

func TestPassiveTapePreset(t *testing.T) {
	settings := quietSettings()
	settings.PassiveTape = true
	s := newTestSession(settings)
	s.state.Integrity.Set(50)
	s.PlaceItem(item.TypeTape, s.player.Pos)

	if _, ok := s.TryPickup(); !ok {
		t.Fatalf("tape not picked up")
	}
	if s.State().Integrity.Value != 60 || s.player.HasItem(item.TypeTape) {
		t.Errorf("prototype tape should repair 10 on pickup, integrity %v", s.State().Integrity.Value)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestSession(quietSettings())
	give(s, item.TypeAirhorn)
	snap := s.Snapshot()

	if len(snap.Player.Inventory) != 1 || snap.ClockDisplay != "SHIFT: 10:00 PM" {
		t.Fatalf("unexpected snapshot: %+v", snap.Player)
	}
	snap.Player.Inventory[0] = item.TypeSoda
	snap.Messages = append(snap.Messages, "forged")
	if s.player.Inventory[0].Type != item.TypeAirhorn {
		t.Errorf("snapshot shares inventory memory with the session")
	}
	if !snap.Tools[0].Current || !snap.Tools[2].Equipped || snap.Tools[3].Equipped {
		t.Errorf("tool view wrong: %+v", snap.Tools)
	}
}

func TestJournalStampsEvents(t *testing.T) {
	s := newTestSession(quietSettings())
	for _, e := range s.EventLog().Replay() {
		if e.SessionID != "test-shift" || e.Night != 1 || e.ID == "" {
			t.Fatalf("event not stamped: %+v", e)
		}
	}
}

func TestStunnedGathererCannotMakeContact(t *testing.T) {
	s := newTestSession(quietSettings())
	g := s.SpawnEntity(entity.TypeGatherer, s.player.Pos.Add(geom.Vec{X: 25}))
	g.State = entity.StateChasing
	g.Stun(10 * time.Second)

	s.Update(1.0, player.ActionState{})

	if !g.Stunned() {
		t.Fatalf("gatherer should still be stunned")
	}
	drain := s.sanitySystem.LastDrain()
	if drain.Contact != 0 {
		t.Errorf("stunned gatherer drained %v sanity by contact", drain.Contact)
	}
	if drain.Proximity <= 0 {
		t.Errorf("a stunned gatherer should still frighten the clerk")
	}
}

func TestStunnedTapperDoesNotBreakStore(t *testing.T) {
	s := newTestSession(quietSettings())
	s.settings.Hazards.StoreWearAmount = 0
	tapper := s.SpawnEntity(entity.TypeTapper, geom.Vec{X: 50, Y: 300})
	tapper.StartBreaking()
	tapper.Stun(10 * time.Second)

	s.Update(1.0, player.ActionState{})

	if tapper.State != entity.StateBreaking {
		t.Fatalf("tapper left breaking while stunned: %s", tapper.State)
	}
	if s.State().Integrity.Value != 100 {
		t.Errorf("integrity = %v, want 100", s.State().Integrity.Value)
	}
}

func TestStunnedAuditorDoesNotDamageStore(t *testing.T) {
	s := newTestSession(quietSettings())
	s.settings.Hazards.StoreWearAmount = 0
	a := s.SpawnEntity(entity.TypeAuditor, geom.Vec{X: 400, Y: 100})
	a.State = entity.StateAngry
	a.Stun(10 * time.Second)

	s.Update(1.0, player.ActionState{})

	if s.State().Integrity.Value != 100 {
		t.Errorf("integrity = %v, want 100", s.State().Integrity.Value)
	}
}
