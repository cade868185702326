package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/player"
)

type countingRecorder struct {
	mu    sync.Mutex
	ticks int
}

func (c *countingRecorder) RecordTick(time.Duration) {
	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
}

func TestRunnerStepAppliesCommands(t *testing.T) {
	s := newTestSession(quietSettings())
	s.state.Integrity.Set(50)

	var results []CommandResult
	rec := &countingRecorder{}
	r := NewRunner(s, nil, RunnerOptions{
		Recorder: rec,
		OnResult: func(_ Command, res CommandResult) { results = append(results, res) },
	})

	if !r.Submit(Command{Kind: CmdBarricade}) {
		t.Fatalf("submit rejected")
	}
	r.Step(1.0 / 60)

	if len(results) != 1 || !results[0].OK {
		t.Fatalf("expected one successful result, got %+v", results)
	}
	if snap := r.Snapshot(); snap.Integrity != 55 || snap.Frame != 1 {
		t.Errorf("snapshot not refreshed: integrity %v frame %d", snap.Integrity, snap.Frame)
	}
	if rec.ticks != 1 {
		t.Errorf("recorder saw %d ticks", rec.ticks)
	}
}

func TestRunnerSubmitDropsWhenFull(t *testing.T) {
	s := newTestSession(quietSettings())
	r := NewRunner(s, nil, RunnerOptions{CommandBuffer: 1})
	if !r.Submit(Command{Kind: CmdShowObjectives}) {
		t.Fatalf("first submit should fit")
	}
	if r.Submit(Command{Kind: CmdShowObjectives}) {
		t.Errorf("second submit should be dropped")
	}
}

func TestRunnerLatchesPickup(t *testing.T) {
	s := newTestSession(quietSettings())
	soda := s.PlaceItem(item.TypeSoda, s.player.Pos.Add(geom.Vec{X: 10}))
	r := NewRunner(s, nil, RunnerOptions{})

	r.SetInput(player.ActionState{Pickup: true})
	r.SetInput(player.ActionState{})
	r.Step(1.0 / 60)

	if !soda.Collected {
		t.Errorf("a pickup released before the frame should still count")
	}
}

func TestRunnerStopsOnContext(t *testing.T) {
	s := newTestSession(quietSettings())
	r := NewRunner(s, nil, RunnerOptions{TickRate: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v", err)
	}
}

func TestRunnerFinishesWithShift(t *testing.T) {
	s := newTestSession(quietSettings())
	s.Clock().Set(5.9999)
	r := NewRunner(s, nil, RunnerOptions{TickRate: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	select {
	case <-r.Done():
	default:
		t.Errorf("Done should be closed")
	}
	if !r.Snapshot().Win {
		t.Errorf("final snapshot should show the win")
	}
}
