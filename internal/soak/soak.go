package soak

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// Options configures a soak run. Zero values get defaults.
type Options struct {
	Shifts      int
	Concurrency int
	Settings    engine.Settings
	// Step is the simulated frame length in seconds.
	Step float64
	// MaxFrames bounds one shift; a shift still running after it is a
	// violation.
	MaxFrames int64
	Seed      int64
	// NewPolicy builds one policy per shift. Defaults to NewGreedy.
	NewPolicy func() Policy
	Logger    *logger.Logger
}

// Violation is one broken invariant.
type Violation struct {
	Shift int    `json:"shift"`
	Frame int64  `json:"frame"`
	Check string `json:"check"`
	Msg   string `json:"msg"`
}

func (v Violation) String() string {
	return fmt.Sprintf("shift %d frame %d [%s] %s", v.Shift, v.Frame, v.Check, v.Msg)
}

// ShiftResult is how one shift went.
type ShiftResult struct {
	Shift      int           `json:"shift"`
	Win        bool          `json:"win"`
	Reason     string        `json:"reason,omitempty"`
	Score      int           `json:"score"`
	Frames     int64         `json:"frames"`
	Events     int           `json:"events"`
	Violations []Violation   `json:"violations,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Passed reports whether the shift kept every invariant.
func (r ShiftResult) Passed() bool { return len(r.Violations) == 0 }

// Report aggregates a soak run.
type Report struct {
	Results []ShiftResult  `json:"results"`
	Wins    int            `json:"wins"`
	Losses  int            `json:"losses"`
	Reasons map[string]int `json:"reasons"`
	Frames  int64          `json:"frames"`
	Events  int            `json:"events"`
	Best    int            `json:"best_score"`
	Mean    float64        `json:"mean_score"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Violations lists every broken invariant across the run.
func (r Report) Violations() []Violation {
	var out []Violation
	for _, res := range r.Results {
		out = append(out, res.Violations...)
	}
	return out
}

func (o Options) withDefaults() Options {
	if o.Shifts <= 0 {
		o.Shifts = 1
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Step <= 0 {
		o.Step = 1.0 / 60
	}
	if o.MaxFrames <= 0 {
		hours := math.Mod(o.Settings.Clock.ShiftEnd-o.Settings.Clock.Start+24, 24)
		if o.Settings.Clock.TimeScale > 0 {
			o.MaxFrames = int64(hours/o.Settings.Clock.TimeScale/o.Step) + 600
		} else {
			o.MaxFrames = 1_000_000
		}
	}
	if o.NewPolicy == nil {
		o.NewPolicy = func() Policy { return NewGreedy() }
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// Run plays opts.Shifts shifts, several at a time, and reports. It only
// fails when ctx is cancelled; broken invariants are in the report.
func Run(ctx context.Context, opts Options) (Report, error) {
	opts = opts.withDefaults()
	start := time.Now()

	results := make([]ShiftResult, opts.Shifts)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := 0; i < opts.Shifts; i++ {
		i := i
		g.Go(func() error {
			res, err := RunShift(ctx, i, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Results: results, Reasons: map[string]int{}, Elapsed: time.Since(start)}
	total := 0
	for _, r := range results {
		if r.Win {
			rep.Wins++
		} else {
			rep.Losses++
			rep.Reasons[r.Reason]++
		}
		rep.Frames += r.Frames
		rep.Events += r.Events
		total += r.Score
		if r.Score > rep.Best {
			rep.Best = r.Score
		}
	}
	rep.Mean = float64(total) / float64(len(results))
	opts.Logger.Info(fmt.Sprintf("Soak finished: %d shifts, %d wins, %d violations", len(results), rep.Wins, len(rep.Violations())))
	return rep, nil
}

// RunShift plays one shift to the end and checks invariants every frame.
func RunShift(ctx context.Context, index int, opts Options) (ShiftResult, error) {
	opts = opts.withDefaults()
	start := time.Now()
	s := engine.NewSession(opts.Settings, engine.Deps{
		Rand:      rand.New(rand.NewSource(opts.Seed + int64(index))),
		SessionID: fmt.Sprintf("soak-%d", index),
	})
	policy := opts.NewPolicy()
	chk := &checker{shift: index}

	for s.Frame() < opts.MaxFrames && !s.Terminal() {
		if s.Frame()%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return ShiftResult{}, err
			}
		}
		action, cmds := policy.Decide(s.Snapshot())
		for _, c := range cmds {
			s.Apply(c)
		}
		s.Update(opts.Step, action)
		chk.frame(s)
	}
	if !s.Terminal() {
		chk.fail(s.Frame(), "termination", "shift still running after %d frames", opts.MaxFrames)
	}
	chk.final(s)

	st := s.State()
	return ShiftResult{
		Shift:      index,
		Win:        st.Win,
		Reason:     st.Reason,
		Score:      st.Score,
		Frames:     s.Frame(),
		Events:     s.EventLog().Len(),
		Violations: chk.violations,
		Elapsed:    time.Since(start),
	}, nil
}

// maxViolations keeps a broken build from flooding the report.
const maxViolations = 20

type checker struct {
	shift      int
	violations []Violation
}

func (c *checker) fail(frame int64, check, format string, args ...interface{}) {
	if len(c.violations) >= maxViolations {
		return
	}
	c.violations = append(c.violations, Violation{Shift: c.shift, Frame: frame, Check: check, Msg: fmt.Sprintf(format, args...)})
}

func (c *checker) frame(s *engine.Session) {
	snap := s.Snapshot()
	f := snap.Frame
	inRange := func(name string, v float64) {
		if v < 0 || v > 100 || math.IsNaN(v) {
			c.fail(f, "meter", "%s out of range: %v", name, v)
		}
	}
	inRange("sanity", snap.Player.Sanity)
	inRange("battery", snap.Player.Battery)
	inRange("integrity", snap.Integrity)

	if snap.Clock < 0 || snap.Clock >= 24 {
		c.fail(f, "clock", "clock out of range: %v", snap.Clock)
	}
	if snap.Player.Sanity != s.State().Sanity {
		c.fail(f, "mirror", "sanity mirror %v differs from player %v", s.State().Sanity, snap.Player.Sanity)
	}
	if snap.GameOver && snap.Win {
		c.fail(f, "terminal", "shift both won and lost")
	}
	if snap.Player.FlashlightOn && snap.Player.Battery <= 0 {
		c.fail(f, "flashlight", "flashlight on with an empty battery")
	}

	a := snap.Arena
	if p := snap.Player.Pos; p.X < 0 || p.Y < 0 || p.X > a.Width || p.Y > a.Height {
		c.fail(f, "arena", "player outside the store at %v", p)
	}
	for _, e := range snap.Entities {
		if e.Pos.X < 0 || e.Pos.Y < 0 || e.Pos.X > a.Width || e.Pos.Y > a.Height {
			c.fail(f, "arena", "%s %d outside the store at %v", e.Type, e.ID, e.Pos)
		}
	}
}

// final checks the end of the shift: terminal once, then frozen.
func (c *checker) final(s *engine.Session) {
	f := s.Frame()
	log := s.EventLog()
	ends := len(log.GetByType(events.EventTypeShiftComplete)) + len(log.GetByType(events.EventTypeGameOver))
	if s.Terminal() && ends != 1 {
		c.fail(f, "terminal", "expected one end event, journal has %d", ends)
	}
	if !s.Terminal() {
		return
	}

	before := s.Snapshot()
	n := log.Len()
	s.Update(1, player.ActionState{Right: true, Run: true, Pickup: true})
	if res := s.Apply(engine.Command{Kind: engine.CmdBarricade}); res.OK {
		c.fail(f, "frozen", "command accepted after the shift ended")
	}
	after := s.Snapshot()
	if after.Frame != before.Frame || after.Player.Pos != before.Player.Pos || after.Integrity != before.Integrity || after.Score != before.Score {
		c.fail(f, "frozen", "state changed after the shift ended")
	}
	if log.Len() != n {
		c.fail(f, "frozen", "journal grew after the shift ended")
	}
}

// ReasonsByCount lists loss reasons, most common first.
func (r Report) ReasonsByCount() []string {
	m := r.Reasons
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
