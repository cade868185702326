package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nightcrew/lastshift/internal/events"
)

type writeCounter struct {
	mu     sync.Mutex
	writes int
	errs   int
}

func (w *writeCounter) RecordEventWrite(_ time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if err != nil {
		w.errs++
	}
}

func openJournal(t *testing.T) *SQLiteJournalRepository {
	t.Helper()
	db, err := InitSQLite("")
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteJournalRepository(db)
}

func journalShift(t *testing.T, repo JournalRepository, obs WriteObserver) {
	t.Helper()
	log := events.NewEventLog(NewJournal(repo, obs))
	emit := func(typ events.EventType, actor string, clock float64, payload interface{}) {
		log.Append(events.GameEvent{SessionID: "shift-1", Type: typ, ActorID: actor, Night: 2, ClockTime: clock, Payload: payload})
	}
	emit(events.EventTypeShiftStarted, events.ActorSystem, 22, map[string]interface{}{"night": 2})
	emit(events.EventTypeEntitySpawned, events.ActorSystem, 22, map[string]interface{}{"type": "gatherer"})
	emit(events.EventTypeItemPickedUp, events.ActorPlayer, 22.5, map[string]interface{}{"type": "soda"})
	emit(events.EventTypeSanityChange, events.ActorSystem, 22.5, map[string]interface{}{"delta": 30.0})
	emit(events.EventTypeSanityChange, events.ActorSystem, 3, map[string]interface{}{"delta": -10.0})
	emit(events.EventTypeToolUsed, events.ActorPlayer, 23, map[string]interface{}{"tool": "airhorn", "message": "HOOOONK!"})
	emit(events.EventTypeToolFailed, events.ActorPlayer, 23, map[string]interface{}{"tool": "tape", "message": "No duct tape!"})
	emit(events.EventTypeWindowBreaking, "tapper-3", 1, map[string]interface{}{"x": 50.0})
	emit(events.EventTypeWindowRepaired, events.ActorPlayer, 1.5, nil)
	emit(events.EventTypeMessage, events.ActorSystem, 1.5, map[string]interface{}{"text": "hi"})
	emit(events.EventTypeShiftComplete, events.ActorPlayer, 6.01, map[string]interface{}{"score": 2750, "hours_survived": 8.01})
	log.Close()
}

func TestJournalRoundTrip(t *testing.T) {
	repo := openJournal(t)
	obs := &writeCounter{}
	journalShift(t, repo, obs)

	ctx := context.Background()
	all, err := repo.GetBySession(ctx, "shift-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(all) != 11 {
		t.Fatalf("expected 11 events, got %d", len(all))
	}
	if all[0].EventType != "SHIFT_STARTED" || all[10].EventType != "SHIFT_COMPLETE" {
		t.Errorf("journal out of order: %s .. %s", all[0].EventType, all[10].EventType)
	}
	if all[8].Payload == nil {
		t.Errorf("nil payloads should be stored as empty objects")
	}
	if obs.writes != 11 || obs.errs != 0 {
		t.Errorf("observer saw %d writes, %d errors", obs.writes, obs.errs)
	}

	byActor, _ := repo.GetByActor(ctx, "shift-1", events.ActorPlayer)
	if len(byActor) != 5 {
		t.Errorf("player events = %d, want 5", len(byActor))
	}
	byType, _ := repo.GetByEventType(ctx, "shift-1", "SANITY_CHANGE")
	if len(byType) != 2 {
		t.Errorf("sanity events = %d, want 2", len(byType))
	}
}

func TestBuildReport(t *testing.T) {
	repo := openJournal(t)
	journalShift(t, repo, nil)
	rec := NewReconstructor(repo)

	rep, err := rec.BuildReport(context.Background(), "shift-1")
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if rep.Outcome != OutcomeWin || rep.Score != 2750 || rep.Night != 2 {
		t.Errorf("outcome wrong: %+v", rep)
	}
	if rep.SanityGained != 30 || rep.SanityLost != 10 {
		t.Errorf("sanity tally wrong: +%v -%v", rep.SanityGained, rep.SanityLost)
	}
	if rep.Pickups["soda"] != 1 || rep.ToolsUsed["airhorn"] != 1 || rep.ToolsFailed != 1 {
		t.Errorf("tallies wrong: %+v", rep)
	}
	if rep.WindowsBroken != 1 || rep.WindowsFixed != 1 || rep.Spawned["gatherer"] != 1 {
		t.Errorf("window/spawn tallies wrong: %+v", rep)
	}

	summary := rep.Summary()
	for _, want := range []string{"Survived the 2nd night", "2,750", "soda x1"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestTimelineSkipsChatter(t *testing.T) {
	repo := openJournal(t)
	journalShift(t, repo, nil)

	tl, err := NewReconstructor(repo).GenerateTimeline(context.Background(), "shift-1")
	if err != nil {
		t.Fatalf("GenerateTimeline: %v", err)
	}
	for _, e := range tl {
		if e.EventType == "MESSAGE" || e.EventType == "SANITY_CHANGE" {
			t.Errorf("timeline should skip %s", e.EventType)
		}
	}
	if tl[0].Clock != "22:00" || tl[len(tl)-1].Impact != "POSITIVE" {
		t.Errorf("unexpected timeline ends: %+v .. %+v", tl[0], tl[len(tl)-1])
	}
}

func TestReportUnknownShift(t *testing.T) {
	repo := openJournal(t)
	_, err := NewReconstructor(repo).BuildReport(context.Background(), "nope")
	if !errors.Is(err, ErrNoJournal) {
		t.Errorf("expected ErrNoJournal, got %v", err)
	}
}

func TestShiftRepository(t *testing.T) {
	db, err := InitSQLite(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := NewSQLiteShiftRepository(db)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Second)
	if err := repo.Upsert(ctx, ShiftRecord{SessionID: "a", Preset: "standard", Night: 1, StartedAt: start}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.Get(ctx, "a")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Outcome != OutcomeInProgress || got.EndedAt != nil {
		t.Errorf("new shift should be in progress: %+v", got)
	}

	end := start.Add(8 * time.Minute)
	if err := repo.Upsert(ctx, ShiftRecord{SessionID: "a", Preset: "standard", Night: 1, StartedAt: start, EndedAt: &end, Outcome: OutcomeLoss, Reason: "The store has been destroyed.", Score: 900}); err != nil {
		t.Fatalf("Upsert end: %v", err)
	}
	got, _ = repo.Get(ctx, "a")
	if got.Outcome != OutcomeLoss || got.Score != 900 || got.EndedAt == nil {
		t.Errorf("ended shift not stored: %+v", got)
	}

	if missing, err := repo.Get(ctx, "b"); err != nil || missing != nil {
		t.Errorf("unknown shift should be nil, nil; got %v %v", missing, err)
	}
	list, err := repo.List(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}
}

func TestClockLabel(t *testing.T) {
	cases := map[float64]string{0: "00:00", 22.5: "22:30", 23.999: "00:00", 6.25: "06:15", 25: "01:00"}
	for in, want := range cases {
		if got := ClockLabel(in); got != want {
			t.Errorf("ClockLabel(%v) = %q, want %q", in, got, want)
		}
	}
}
