package engine

import (
	"fmt"

	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/events"
)

// CommandKind is a discrete action from an input adapter.
type CommandKind string

const (
	CmdCycleTool         CommandKind = "cycle_tool"
	CmdUseTool           CommandKind = "use_tool"
	CmdToggleFlashlight  CommandKind = "toggle_flashlight"
	CmdAnnounce          CommandKind = "announce"
	CmdClean             CommandKind = "clean"
	CmdBarricade         CommandKind = "barricade"
	CmdShowObjectives    CommandKind = "show_objectives"
	CmdCompleteDirective CommandKind = "complete_directive"
	CmdEatSnack          CommandKind = "eat_snack"
	CmdPickup            CommandKind = "pickup"
)

// CommandKinds lists every command in a stable order.
var CommandKinds = []CommandKind{
	CmdCycleTool, CmdUseTool, CmdToggleFlashlight, CmdAnnounce, CmdClean,
	CmdBarricade, CmdShowObjectives, CmdCompleteDirective, CmdEatSnack, CmdPickup,
}

// Valid reports whether k is a known command.
func (k CommandKind) Valid() bool {
	for _, c := range CommandKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Command is one discrete action. Text is used by announce; Index by
// complete_directive (zero-based).
type Command struct {
	Kind  CommandKind `json:"kind" jsonschema:"enum=cycle_tool,enum=use_tool,enum=toggle_flashlight,enum=announce,enum=clean,enum=barricade,enum=show_objectives,enum=complete_directive,enum=eat_snack,enum=pickup"`
	Text  string      `json:"text,omitempty"`
	Index int         `json:"index,omitempty"`
}

// CommandResult is what came of a command.
type CommandResult struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message,omitempty"`
	Scan    *ScanReading `json:"scan,omitempty"`
}

// Apply runs a command. After the shift ends every command is refused
// without touching state.
func (s *Session) Apply(cmd Command) CommandResult {
	if s.Terminal() {
		return CommandResult{Message: "The shift is over."}
	}
	defer s.syncMirror()

	switch cmd.Kind {
	case CmdCycleTool:
		t := s.toolSystem.Cycle(s)
		return CommandResult{OK: true, Message: "Equipped: " + t.Name}

	case CmdUseTool:
		return fromTool(s.toolSystem.UseCurrent(s))

	case CmdToggleFlashlight:
		return fromTool(s.toolSystem.Use(s, ToolFlashlight))

	case CmdClean:
		return fromTool(s.toolSystem.Use(s, ToolCleaner))

	case CmdAnnounce:
		text := cmd.Text
		if text == "" {
			text = s.paSystem.RandomLine(s)
		}
		s.paSystem.Announce(s, text)
		return CommandResult{OK: true, Message: text}

	case CmdBarricade:
		return s.barricade()

	case CmdShowObjectives:
		msg := s.directiveSystem.Summary()
		s.say(msg)
		return CommandResult{OK: true, Message: msg}

	case CmdCompleteDirective:
		d, ok := s.directiveSystem.Complete(s, cmd.Index)
		if !ok {
			msg := "That directive is not open."
			s.say(msg)
			return CommandResult{Message: msg}
		}
		msg := "Directive complete: " + d.Text
		s.say(msg)
		return CommandResult{OK: true, Message: msg}

	case CmdEatSnack:
		return s.eatSnack()

	case CmdPickup:
		it, ok := s.TryPickup()
		if !ok {
			return CommandResult{Message: "Nothing within reach."}
		}
		return CommandResult{OK: true, Message: "Picked up: " + it.Name()}
	}
	return CommandResult{Message: fmt.Sprintf("Unknown command %q.", cmd.Kind)}
}

func fromTool(r ToolResult) CommandResult {
	return CommandResult{OK: r.OK, Message: r.Message, Scan: r.Scan}
}

// barricade secures the doors for a little integrity.
func (s *Session) barricade() CommandResult {
	if s.barricadeCooldown > 0 {
		msg := "You're still catching your breath."
		s.say(msg)
		return CommandResult{Message: msg}
	}
	got := s.RepairStore(s.settings.Tools.BarricadeIntegrity)
	s.barricadeCooldown = s.settings.Tools.BarricadeCooldown
	msg := fmt.Sprintf("Door secured. Store integrity +%.0f%%", got)
	s.say(msg)
	return CommandResult{OK: true, Message: msg}
}

// eatSnack eats one piece of jerky from the inventory.
func (s *Session) eatSnack() CommandResult {
	it, ok := s.player.TakeItem(item.TypeJerky)
	if !ok {
		msg := "No snacks left."
		s.say(msg)
		return CommandResult{Message: msg}
	}
	got := item.Apply(it.Def.Use, s)
	if it.Def.Use.Kind == item.EffectSanity {
		s.recordSanity(got, "snack")
	}
	s.emit(events.EventTypeItemUsed, events.ActorPlayer, fmt.Sprintf("item-%d", it.ID), map[string]interface{}{
		"type":   string(it.Type),
		"amount": got,
	})
	msg := "You eat some " + it.Name() + ". Salty. Comforting."
	s.say(msg)
	return CommandResult{OK: true, Message: msg}
}
