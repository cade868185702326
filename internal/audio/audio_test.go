package audio

import (
	"math"
	"testing"
	"time"

	"github.com/nightcrew/lastshift/internal/events"
)

func TestEveryCueRendersBoundedAudio(t *testing.T) {
	for c := Cue(0); c < cueCount; c++ {
		buf := Render(Build(c, SampleRate, 1))
		if len(buf) == 0 {
			t.Errorf("%s rendered no samples", c)
			continue
		}
		if len(buf) > SampleRate.N(3*time.Second) {
			t.Errorf("%s is too long: %d samples", c, len(buf))
		}
		for i, s := range buf {
			if math.IsNaN(s[0]) || math.Abs(s[0]) > 1.0001 || math.Abs(s[1]) > 1.0001 {
				t.Errorf("%s sample %d out of range: %v", c, i, s)
				break
			}
		}
	}
}

func TestToneLength(t *testing.T) {
	buf := Render(Tone(440, 100*time.Millisecond, WaveSine, SampleRate))
	if want := SampleRate.N(100 * time.Millisecond); len(buf) != want {
		t.Errorf("tone length = %d, want %d", len(buf), want)
	}
}

func TestShapeStartsAndEndsQuiet(t *testing.T) {
	d := 200 * time.Millisecond
	buf := Render(Shape(Tone(0, d, WaveNoise, SampleRate), d, 50*time.Millisecond, 50*time.Millisecond, SampleRate))
	if buf[0][0] != 0 {
		t.Errorf("attack should start silent, got %v", buf[0][0])
	}
	if last := buf[len(buf)-1][0]; math.Abs(last) > 0.01 {
		t.Errorf("release should end near silence, got %v", last)
	}
}

func TestZeroVolumeIsSilent(t *testing.T) {
	for _, s := range Render(Build(CueAirhorn, SampleRate, 0)) {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("muted cue produced %v", s)
		}
	}
}

func TestCueFor(t *testing.T) {
	cases := []struct {
		event events.GameEvent
		cue   Cue
		ok    bool
	}{
		{events.GameEvent{Type: events.EventTypeToolUsed, Payload: map[string]interface{}{"tool": "airhorn"}}, CueAirhorn, true},
		{events.GameEvent{Type: events.EventTypeToolUsed, Payload: map[string]interface{}{"tool": "cleaner"}}, CueSpray, true},
		{events.GameEvent{Type: events.EventTypeToolUsed, Payload: map[string]interface{}{"tool": "unknown"}}, 0, false},
		{events.GameEvent{Type: events.EventTypeToolFailed}, CueBuzz, true},
		{events.GameEvent{Type: events.EventTypeAnnouncement}, CueChime, true},
		{events.GameEvent{Type: events.EventTypeGameOver}, CueGameOver, true},
		{events.GameEvent{Type: events.EventTypeShiftComplete}, CueWin, true},
		{events.GameEvent{Type: events.EventTypeSanityChange}, 0, false},
	}
	for _, tc := range cases {
		c, ok := CueFor(tc.event)
		if ok != tc.ok || (ok && c != tc.cue) {
			t.Errorf("CueFor(%s) = %s, %v; want %s, %v", tc.event.Type, c, ok, tc.cue, tc.ok)
		}
	}
}

func TestPlayBeforeInitializeIsNoop(t *testing.T) {
	sm := NewSoundManager(0.5)
	sm.Play(CueAirhorn)
	sm.PlayEvent(events.GameEvent{Type: events.EventTypeGameOver})
	sm.Close()
	if len(sm.cache) != 0 {
		t.Errorf("nothing should be rendered before Initialize")
	}
}
