// Package terminal is the tcell frontend: it draws snapshots as text and
// turns key presses into action states and commands.
package terminal

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
)

// HoldWindow is how long a direction stays held after its last key event.
// Terminals send no key-up, only auto-repeat, so a held key is a key that
// keeps repeating.
const HoldWindow = 180 * time.Millisecond

// Action is what a key press asks the frontend to do.
type Action int

const (
	ActionNone Action = iota
	ActionCommand
	ActionQuit
	ActionRestart
)

type direction int

const (
	dirUp direction = iota
	dirDown
	dirLeft
	dirRight
	dirCount
)

// Input turns tcell key events into player.ActionState and commands.
type Input struct {
	hold     time.Duration
	held     [dirCount]time.Time
	runUntil time.Time
	pickup   bool
}

// NewInput creates an input adapter. A zero hold uses HoldWindow.
func NewInput(hold time.Duration) *Input {
	if hold <= 0 {
		hold = HoldWindow
	}
	return &Input{hold: hold}
}

// Handle folds one key event in. Movement keys only refresh held state;
// everything else maps to an action, plus a command for ActionCommand.
func (in *Input) Handle(ev *tcell.EventKey, now time.Time) (Action, engine.Command) {
	shift := ev.Modifiers()&tcell.ModShift != 0
	switch ev.Key() {
	case tcell.KeyUp:
		in.press(dirUp, shift, now)
		return ActionNone, engine.Command{}
	case tcell.KeyDown:
		in.press(dirDown, shift, now)
		return ActionNone, engine.Command{}
	case tcell.KeyLeft:
		in.press(dirLeft, shift, now)
		return ActionNone, engine.Command{}
	case tcell.KeyRight:
		in.press(dirRight, shift, now)
		return ActionNone, engine.Command{}
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit, engine.Command{}
	case tcell.KeyTab:
		return ActionCommand, engine.Command{Kind: engine.CmdCycleTool}
	case tcell.KeyEnter:
		return ActionCommand, engine.Command{Kind: engine.CmdUseTool}
	case tcell.KeyRune:
	default:
		return ActionNone, engine.Command{}
	}

	r := ev.Rune()
	switch r {
	case 'w', 'W':
		in.press(dirUp, r == 'W', now)
	case 's', 'S':
		in.press(dirDown, r == 'S', now)
	case 'a', 'A':
		in.press(dirLeft, r == 'A', now)
	case 'd', 'D':
		in.press(dirRight, r == 'D', now)
	case ' ':
		in.pickup = true
	case 'f':
		return ActionCommand, engine.Command{Kind: engine.CmdToggleFlashlight}
	case 'q':
		return ActionCommand, engine.Command{Kind: engine.CmdCycleTool}
	case 'e':
		return ActionCommand, engine.Command{Kind: engine.CmdUseTool}
	case 'c':
		return ActionCommand, engine.Command{Kind: engine.CmdClean}
	case 'l':
		return ActionCommand, engine.Command{Kind: engine.CmdBarricade}
	case 'p':
		return ActionCommand, engine.Command{Kind: engine.CmdAnnounce}
	case 'o':
		return ActionCommand, engine.Command{Kind: engine.CmdShowObjectives}
	case 'j':
		return ActionCommand, engine.Command{Kind: engine.CmdEatSnack}
	case '1', '2', '3', '4', '5':
		return ActionCommand, engine.Command{Kind: engine.CmdCompleteDirective, Index: int(r - '1')}
	case 'r':
		return ActionRestart, engine.Command{}
	}
	return ActionNone, engine.Command{}
}

func (in *Input) press(d direction, run bool, now time.Time) {
	in.held[d] = now.Add(in.hold)
	if run {
		in.runUntil = now.Add(in.hold)
	}
}

// State is the action state at now. A pickup request is reported once.
func (in *Input) State(now time.Time) player.ActionState {
	a := player.ActionState{
		Up:     now.Before(in.held[dirUp]),
		Down:   now.Before(in.held[dirDown]),
		Left:   now.Before(in.held[dirLeft]),
		Right:  now.Before(in.held[dirRight]),
		Run:    now.Before(in.runUntil),
		Pickup: in.pickup,
	}
	in.pickup = false
	return a
}

// Release drops every held key.
func (in *Input) Release() {
	in.held = [dirCount]time.Time{}
	in.runUntil = time.Time{}
	in.pickup = false
}
