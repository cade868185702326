package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// FrameRate is how often the terminal redraws.
const FrameRate = time.Second / 30

// Shift is one running night as the frontend sees it.
type Shift struct {
	Runner *engine.Runner
	Events *events.EventLog
	// Close is called when the shift is abandoned or replaced. May be nil.
	Close func()
}

// ShiftFactory builds a fresh shift for the first night and every restart.
type ShiftFactory func() (Shift, error)

// Sounder plays the cue for a journal event. *audio.SoundManager
// satisfies it.
type Sounder interface {
	PlayEvent(e events.GameEvent)
}

// App runs shifts in a terminal until the player quits.
type App struct {
	screen   tcell.Screen
	renderer *Renderer
	input    *Input
	newShift ShiftFactory
	sound    Sounder
	logger   *logger.Logger
}

// NewApp wires a screen to a shift factory. sound may be nil.
func NewApp(screen tcell.Screen, factory ShiftFactory, sound Sounder, log *logger.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{
		screen:   screen,
		renderer: NewRenderer(screen),
		input:    NewInput(HoldWindow),
		newShift: factory,
		sound:    sound,
		logger:   log,
	}
}

// Run plays until the player quits or ctx is cancelled. The screen must
// already be initialised; Run does not finalise it.
func (a *App) Run(ctx context.Context) error {
	keys := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(keys)
				return
			}
			select {
			case keys <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	shift, stop, err := a.start(ctx)
	if err != nil {
		return err
	}
	defer func() { stop() }()

	heard := shift.Events.Len()
	frame := time.NewTicker(FrameRate)
	defer frame.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
			case *tcell.EventKey:
				action, cmd := a.input.Handle(ev, time.Now())
				switch action {
				case ActionQuit:
					a.logger.Info("Player quit.")
					return nil
				case ActionRestart:
					stop()
					stop = func() {}
					a.input.Release()
					next, nextStop, err := a.start(ctx)
					if err != nil {
						return err
					}
					shift, stop = next, nextStop
					heard = shift.Events.Len()
					a.logger.Info("New shift started.")
				case ActionCommand:
					if !shift.Runner.Submit(cmd) {
						a.logger.Warn("Command dropped: " + string(cmd.Kind))
					}
				}
			}

		case <-frame.C:
			shift.Runner.SetInput(a.input.State(time.Now()))
			a.renderer.Draw(shift.Runner.Snapshot())
			heard = a.playNew(shift.Events, heard)
		}
	}
}

// start builds a shift and runs it in the background. stop cancels it and
// waits for the loop to exit.
func (a *App) start(ctx context.Context) (Shift, func(), error) {
	shift, err := a.newShift()
	if err != nil {
		return Shift{}, nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		shift.Runner.Run(runCtx)
	}()
	stop := func() {
		cancel()
		<-exited
		if shift.Close != nil {
			shift.Close()
		}
	}
	return shift, stop, nil
}

func (a *App) playNew(log *events.EventLog, heard int) int {
	fresh := log.Since(heard)
	if a.sound != nil {
		for _, e := range fresh {
			a.sound.PlayEvent(e)
		}
	}
	return heard + len(fresh)
}
