package soak

import (
	"context"
	"errors"
	"testing"

	"github.com/nightcrew/lastshift/internal/engine"
)

// fastNight is the standard night squeezed into about sixteen seconds.
func fastNight() engine.Settings {
	s := engine.DefaultSettings()
	s.Clock.TimeScale = 0.5
	return s
}

func TestGreedySoakKeepsInvariants(t *testing.T) {
	rep, err := Run(context.Background(), Options{
		Shifts:      6,
		Concurrency: 3,
		Settings:    fastNight(),
		Seed:        11,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, v := range rep.Violations() {
		t.Error(v)
	}
	if rep.Wins+rep.Losses != 6 || len(rep.Results) != 6 {
		t.Errorf("expected 6 finished shifts, got %d wins %d losses", rep.Wins, rep.Losses)
	}
	for i, r := range rep.Results {
		if r.Shift != i || r.Frames == 0 || r.Events == 0 {
			t.Errorf("result %d incomplete: %+v", i, r)
		}
	}
	if rep.Best < int(rep.Mean) {
		t.Errorf("best %d below mean %.1f", rep.Best, rep.Mean)
	}
}

func TestIdleClerkKeepsInvariants(t *testing.T) {
	rep, err := Run(context.Background(), Options{
		Shifts:    3,
		Settings:  fastNight(),
		Seed:      2,
		NewPolicy: func() Policy { return Idle{} },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, v := range rep.Violations() {
		t.Error(v)
	}
}

func TestUnfinishedShiftIsViolation(t *testing.T) {
	res, err := RunShift(context.Background(), 0, Options{Settings: engine.DefaultSettings(), MaxFrames: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed() || len(res.Violations) != 1 || res.Violations[0].Check != "termination" {
		t.Errorf("expected a single termination violation, got %v", res.Violations)
	}
	if res.Frames != 10 {
		t.Errorf("frames = %d, want 10", res.Frames)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Shifts: 2, Settings: fastNight()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUseToolCyclesToTarget(t *testing.T) {
	snap := engine.Snapshot{Tools: []engine.ToolView{
		{Kind: engine.ToolScanner},
		{Kind: engine.ToolFlashlight},
		{Kind: engine.ToolAirhorn, Current: true},
		{Kind: engine.ToolCleaner},
		{Kind: engine.ToolTape},
	}}
	cmds := useTool(snap, engine.ToolScanner)
	if len(cmds) != 4 {
		t.Fatalf("expected 3 cycles and a use, got %+v", cmds)
	}
	for _, c := range cmds[:3] {
		if c.Kind != engine.CmdCycleTool {
			t.Errorf("expected cycle, got %s", c.Kind)
		}
	}
	if cmds[3].Kind != engine.CmdUseTool {
		t.Errorf("last command should fire the tool")
	}
	if got := useTool(snap, engine.ToolAirhorn); len(got) != 1 {
		t.Errorf("current tool should fire directly, got %+v", got)
	}
}

func TestReasonsByCount(t *testing.T) {
	rep := Report{Reasons: map[string]int{engine.ReasonIntegrity: 1, engine.ReasonSanity: 3}}
	got := rep.ReasonsByCount()
	if len(got) != 2 || got[0] != engine.ReasonSanity {
		t.Errorf("ReasonsByCount = %v", got)
	}
}
