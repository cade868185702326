package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/nightcrew/lastshift/internal/events"
)

// SampleRate is the rate every cue is synthesised at.
const SampleRate = beep.SampleRate(44100)

// SoundManager plays cues through the system speaker.
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	cache       map[Cue][][2]float64
}

// NewSoundManager creates a manager. Nothing plays until Initialize.
func NewSoundManager(volume float64) *SoundManager {
	return &SoundManager{
		mixer:  &beep.Mixer{},
		volume: volume,
		cache:  make(map[Cue][][2]float64),
	}
}

// Initialize opens the speaker.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("audio: speaker init: %w", err)
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Play starts a cue. It does nothing before Initialize.
func (sm *SoundManager) Play(c Cue) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}
	buf, ok := sm.cache[c]
	if !ok {
		buf = Render(Build(c, SampleRate, sm.volume))
		sm.cache[c] = buf
	}
	speaker.Lock()
	sm.mixer.Add(&pcm{data: buf})
	speaker.Unlock()
}

// PlayEvent plays the cue for a journal event, if it has one.
func (sm *SoundManager) PlayEvent(e events.GameEvent) {
	if c, ok := CueFor(e); ok {
		sm.Play(c)
	}
}

// Close silences everything.
func (sm *SoundManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}
	speaker.Clear()
	sm.initialized = false
}

// CueFor maps a journal event to the sound it makes.
func CueFor(e events.GameEvent) (Cue, bool) {
	p, _ := e.Payload.(map[string]interface{})
	switch e.Type {
	case events.EventTypeToolUsed:
		tool, _ := p["tool"].(string)
		switch tool {
		case "airhorn":
			return CueAirhorn, true
		case "scanner":
			return CueScan, true
		case "cleaner":
			return CueSpray, true
		case "tape":
			return CueClick, true
		}
		return 0, false
	case events.EventTypeFlashlightToggled:
		return CueClick, true
	case events.EventTypeToolFailed:
		return CueBuzz, true
	case events.EventTypeAnnouncement:
		return CueChime, true
	case events.EventTypeWindowBreaking:
		return CueCrack, true
	case events.EventTypeHourStruck:
		return CueBell, true
	case events.EventTypeGameOver:
		return CueGameOver, true
	case events.EventTypeShiftComplete:
		return CueWin, true
	}
	return 0, false
}

// Render drains a finite streamer into memory.
func Render(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

// pcm replays a rendered cue.
type pcm struct {
	data [][2]float64
	pos  int
}

func (p *pcm) Stream(samples [][2]float64) (int, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	n := copy(samples, p.data[p.pos:])
	p.pos += n
	return n, true
}

func (p *pcm) Err() error { return nil }
