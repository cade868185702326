package engine

import (
	"context"
	"sync"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// TickRate is how often a hosted shift advances in real time.
const TickRate = time.Second / 60

// FrameRecorder receives per-frame timings.
type FrameRecorder interface {
	RecordTick(latency time.Duration)
}

// RunnerOptions configures a Runner. Zero values get defaults.
type RunnerOptions struct {
	TickRate      time.Duration
	CommandBuffer int
	Recorder      FrameRecorder
	OnFrame       func(Snapshot)               // called after every frame, on the loop goroutine
	OnResult      func(Command, CommandResult) // called for every applied command
}

// Runner drives a Session in real time. Input and commands may arrive from
// any goroutine; the session itself is only touched by Run.
type Runner struct {
	session  *Session
	logger   *logger.Logger
	opts     RunnerOptions
	commands chan Command

	mu       sync.RWMutex
	input    player.ActionState
	pickup   bool
	snapshot Snapshot
	done     chan struct{}
	doneOnce sync.Once
}

// NewRunner wraps a session.
func NewRunner(s *Session, log *logger.Logger, opts RunnerOptions) *Runner {
	if opts.TickRate <= 0 {
		opts.TickRate = TickRate
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = 64
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		session:  s,
		logger:   log,
		opts:     opts,
		commands: make(chan Command, opts.CommandBuffer),
		snapshot: s.Snapshot(),
		done:     make(chan struct{}),
	}
}

// Submit queues a command for the next frame. It reports false when the
// queue is full and the command was dropped.
func (r *Runner) Submit(cmd Command) bool {
	select {
	case r.commands <- cmd:
		return true
	default:
		return false
	}
}

// SetInput replaces the held-key state. A pickup request is latched until
// the next frame consumes it.
func (r *Runner) SetInput(a player.ActionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = a
	if a.Pickup {
		r.pickup = true
	}
}

// Snapshot returns the state after the latest frame.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Done is closed once the shift has ended.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run advances the shift until it ends or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Shift runner started.")
	ticker := time.NewTicker(r.opts.TickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Shift runner stopped by context.")
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.Step(dt)
			if r.session.Terminal() {
				r.finish()
				r.logger.Info("Shift runner finished: " + r.session.LastMessage())
				return nil
			}
		}
	}
}

// Step runs exactly one frame of dt seconds. Run calls it on every tick;
// headless drivers may call it directly instead of Run.
func (r *Runner) Step(dt float64) {
	start := time.Now()

	r.drainCommands()

	r.mu.Lock()
	input := r.input
	input.Pickup = r.pickup
	r.pickup = false
	r.mu.Unlock()

	r.session.Update(dt, input)
	snap := r.session.Snapshot()

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	if r.opts.Recorder != nil {
		r.opts.Recorder.RecordTick(time.Since(start))
	}
	if r.opts.OnFrame != nil {
		r.opts.OnFrame(snap)
	}
	if r.session.Terminal() {
		r.finish()
	}
}

func (r *Runner) drainCommands() {
	for {
		select {
		case cmd := <-r.commands:
			res := r.session.Apply(cmd)
			if r.opts.OnResult != nil {
				r.opts.OnResult(cmd, res)
			}
		default:
			return
		}
	}
}

func (r *Runner) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}
