// Package audio synthesises the store's sound cues with beep. Nothing is
// loaded from disk; every cue is built from oscillators and envelopes.
package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// tone generates one fixed-frequency wave for a fixed number of samples.
type tone struct {
	freq  float64
	phase float64
	total int
	pos   int
	wave  Wave
	rate  beep.SampleRate
	rng   *rand.Rand
}

// Tone returns a streamer of the given wave. freq is ignored for noise.
func Tone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &tone{freq: freq, total: rate.N(d), wave: wave, rate: rate, rng: rand.New(rand.NewSource(int64(freq) + 1))}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}
		var v float64
		switch t.wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case WaveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (t.phase - 0.5)
		case WaveNoise:
			v = t.rng.Float64()*2 - 1
		}
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// envelope fades a stream in and out linearly.
type envelope struct {
	s                       beep.Streamer
	pos, attack, release, n int
}

// Shape applies a linear attack and release to s over d.
func Shape(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{s: s, attack: rate.N(attack), release: rate.N(release), n: rate.N(d)}
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	for i := 0; i < n; i++ {
		if e.pos >= e.n {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.pos < e.attack {
			vol = float64(e.pos) / float64(e.attack)
		}
		if rel := e.n - e.release; e.release > 0 && e.pos >= rel {
			vol = math.Max(0, float64(e.n-e.pos)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

// gain scales a stream. Zero or less mutes it, since log2(0) is -Inf.
func gain(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Cue names a sound the store can make.
type Cue int

const (
	CueAirhorn Cue = iota
	CueChime
	CueBuzz
	CueScan
	CueClick
	CueSpray
	CueCrack
	CueBell
	CueGameOver
	CueWin
	cueCount
)

var cueNames = [...]string{"airhorn", "chime", "buzz", "scan", "click", "spray", "crack", "bell", "game_over", "win"}

func (c Cue) String() string {
	if c < 0 || c >= cueCount {
		return "unknown"
	}
	return cueNames[c]
}

// Build synthesises a cue at the given sample rate and volume.
func Build(c Cue, rate beep.SampleRate, vol float64) beep.Streamer {
	var s beep.Streamer
	switch c {
	case CueAirhorn:
		// Two detuned squares make the honk rough.
		d := 700 * time.Millisecond
		s = beep.Mix(
			gain(Shape(Tone(220, d, WaveSquare, rate), d, 10*time.Millisecond, 150*time.Millisecond, rate), 0.5),
			gain(Shape(Tone(233, d, WaveSquare, rate), d, 10*time.Millisecond, 150*time.Millisecond, rate), 0.5),
		)
	case CueChime:
		// Classic three-note PA ding-dong-ding.
		s = beep.Seq(note(659, 250, WaveSine, rate), note(523, 250, WaveSine, rate), note(784, 400, WaveSine, rate))
	case CueBuzz:
		s = note(110, 150, WaveSaw, rate)
	case CueScan:
		s = beep.Seq(note(1200, 60, WaveSine, rate), note(1600, 60, WaveSine, rate))
	case CueClick:
		s = note(2000, 20, WaveSquare, rate)
	case CueSpray:
		s = note(0, 400, WaveNoise, rate)
	case CueCrack:
		d := 250 * time.Millisecond
		s = beep.Mix(
			gain(Shape(Tone(0, d, WaveNoise, rate), d, time.Millisecond, 200*time.Millisecond, rate), 0.6),
			gain(Shape(Tone(80, d, WaveSaw, rate), d, time.Millisecond, 200*time.Millisecond, rate), 0.4),
		)
	case CueBell:
		d := time.Second
		s = beep.Mix(
			gain(Shape(Tone(440, d, WaveSine, rate), d, 5*time.Millisecond, 900*time.Millisecond, rate), 0.7),
			gain(Shape(Tone(880, d, WaveSine, rate), d, 5*time.Millisecond, 500*time.Millisecond, rate), 0.3),
		)
	case CueGameOver:
		s = beep.Seq(note(330, 300, WaveSaw, rate), note(262, 300, WaveSaw, rate), note(196, 900, WaveSaw, rate))
	case CueWin:
		s = beep.Seq(note(523, 150, WaveSquare, rate), note(659, 150, WaveSquare, rate), note(784, 150, WaveSquare, rate), note(1047, 500, WaveSquare, rate))
	default:
		s = beep.Silence(0)
	}
	return gain(s, vol)
}

func note(freq float64, ms int, wave Wave, rate beep.SampleRate) beep.Streamer {
	d := time.Duration(ms) * time.Millisecond
	return Shape(Tone(freq, d, wave, rate), d, 5*time.Millisecond, d/3, rate)
}
