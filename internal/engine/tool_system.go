package engine

import (
	"fmt"
	"math"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/rules"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// ToolKind identifies a roster slot.
type ToolKind string

const (
	ToolScanner    ToolKind = "scanner"
	ToolFlashlight ToolKind = "flashlight"
	ToolAirhorn    ToolKind = "airhorn"
	ToolCleaner    ToolKind = "cleaner"
	ToolTape       ToolKind = "tape"
)

// Tool is one slot of the belt. Item is empty for tools the clerk always
// carries.
type Tool struct {
	Kind ToolKind  `json:"kind"`
	Name string    `json:"name"`
	Item item.Type `json:"item,omitempty"`
}

// Roster is the fixed tool belt, in cycling order.
var Roster = []Tool{
	{Kind: ToolScanner, Name: "Price Scanner"},
	{Kind: ToolFlashlight, Name: "Flashlight"},
	{Kind: ToolAirhorn, Name: "Air Horn", Item: item.TypeAirhorn},
	{Kind: ToolCleaner, Name: "Spray Cleaner", Item: item.TypeCleaner},
	{Kind: ToolTape, Name: "Duct Tape", Item: item.TypeTape},
}

// Scan targets.
const (
	ScanEntity = "ENTITY"
	ScanItem   = "ITEM"
)

// ScanReading is what the price scanner shows.
type ScanReading struct {
	Target   string  `json:"target"`
	Kind     string  `json:"kind"`
	Distance float64 `json:"distance"`
	Bucket   string  `json:"bucket"`
}

// ToolResult reports the outcome of a tool action.
type ToolResult struct {
	Tool    ToolKind     `json:"tool"`
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	Scan    *ScanReading `json:"scan,omitempty"`
}

// ToolSystem handles the tool belt.
type ToolSystem struct {
	logger  *logger.Logger
	current int
}

// NewToolSystem starts with the scanner in hand.
func NewToolSystem(log *logger.Logger) *ToolSystem {
	return &ToolSystem{logger: log}
}

// Current is the equipped slot.
func (ts *ToolSystem) Current() Tool { return Roster[ts.current] }

// CurrentIndex is the equipped slot's position in Roster.
func (ts *ToolSystem) CurrentIndex() int { return ts.current }

// Cycle moves to the next slot.
func (ts *ToolSystem) Cycle(s *Session) Tool {
	ts.current = (ts.current + 1) % len(Roster)
	t := ts.Current()
	s.say("Equipped: " + t.Name)
	return t
}

// Equipped reports whether the clerk can use a slot right now.
func (ts *ToolSystem) Equipped(s *Session, t Tool) bool {
	return t.Item == "" || s.player.HasItem(t.Item)
}

// UseCurrent fires the equipped tool.
func (ts *ToolSystem) UseCurrent(s *Session) ToolResult {
	return ts.Use(s, ts.Current().Kind)
}

// Use fires a specific tool. Failures change nothing but the message.
func (ts *ToolSystem) Use(s *Session, kind ToolKind) ToolResult {
	var res ToolResult
	switch kind {
	case ToolScanner:
		res = ts.scan(s)
	case ToolFlashlight:
		res = ts.toggleFlashlight(s)
	case ToolAirhorn:
		res = ts.airhorn(s)
	case ToolCleaner:
		res = ts.cleaner(s)
	case ToolTape:
		res = ts.tape(s)
	default:
		res = ToolResult{Tool: kind, Message: "Unknown tool."}
	}

	s.say(res.Message)
	evt := events.EventTypeToolUsed
	if !res.OK {
		evt = events.EventTypeToolFailed
	}
	payload := map[string]interface{}{"tool": string(kind), "message": res.Message}
	if res.Scan != nil {
		payload["scan_target"] = res.Scan.Target
		payload["scan_bucket"] = res.Scan.Bucket
	}
	s.emit(evt, events.ActorPlayer, "", payload)
	return res
}

// scan reports the nearest active entity or loose item. Entities are
// checked first, so an entity at exactly the same distance as an item wins.
func (ts *ToolSystem) scan(s *Session) ToolResult {
	var (
		best    = math.Inf(1)
		reading *ScanReading
	)
	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		if d := geom.Distance(s.player.Pos, e.Pos); d < best {
			best = d
			reading = &ScanReading{Target: ScanEntity, Kind: string(e.Type), Distance: d}
		}
	}
	for _, it := range s.items {
		if it.Collected {
			continue
		}
		if d := geom.Distance(s.player.Pos, it.Pos); d < best {
			best = d
			reading = &ScanReading{Target: ScanItem, Kind: string(it.Type), Distance: d}
		}
	}
	if reading == nil {
		return ToolResult{Tool: ToolScanner, OK: true, Message: "SCANNER: No readings."}
	}
	reading.Bucket = rules.DistanceBucket(reading.Distance)
	return ToolResult{
		Tool:    ToolScanner,
		OK:      true,
		Message: fmt.Sprintf("SCANNER: %s %s", reading.Target, reading.Bucket),
		Scan:    reading,
	}
}

func (ts *ToolSystem) toggleFlashlight(s *Session) ToolResult {
	wasOn := s.player.FlashlightOn
	on := s.player.ToggleFlashlight()
	s.beam.On = on
	s.emit(events.EventTypeFlashlightToggled, events.ActorPlayer, "", map[string]interface{}{
		"on":      on,
		"battery": s.player.Battery.Value,
	})
	switch {
	case on:
		return ToolResult{Tool: ToolFlashlight, OK: true, Message: "Flashlight ON"}
	case wasOn:
		return ToolResult{Tool: ToolFlashlight, OK: true, Message: "Flashlight OFF"}
	default:
		return ToolResult{Tool: ToolFlashlight, Message: "The battery is dead."}
	}
}

func (ts *ToolSystem) airhorn(s *Session) ToolResult {
	if !s.player.HasItem(item.TypeAirhorn) {
		return ToolResult{Tool: ToolAirhorn, Message: "No air horn!"}
	}
	cfg := s.settings.Tools
	origin := s.player.Pos
	stunned, pulled := 0, 0

	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		d := geom.Distance(origin, e.Pos)
		switch {
		case d <= cfg.AirhornStunRadius:
			e.Stun(cfg.AirhornStun)
			stunned++
		case d <= cfg.AirhornPullRadius:
			e.MoveToward(origin, s.frameDelta(), s.settings.Arena)
			pulled++
		}
	}

	for _, it := range s.items {
		if it.Collected {
			continue
		}
		if geom.Distance(origin, it.Pos) <= cfg.AirhornKnockRadius {
			it.Knock(geom.FromAngle(geom.Heading(origin, it.Pos), cfg.AirhornKnockSpeed))
		}
	}

	s.player.UseItem(item.TypeAirhorn)
	ts.logger.Event("AIRHORN", events.ActorPlayer, fmt.Sprintf("stunned %d, drew in %d", stunned, pulled))
	return ToolResult{
		Tool:    ToolAirhorn,
		OK:      true,
		Message: fmt.Sprintf("HOOOONK! %d stunned. Something farther away heard it too.", stunned),
	}
}

func (ts *ToolSystem) cleaner(s *Session) ToolResult {
	if !s.player.HasItem(item.TypeCleaner) {
		return ToolResult{Tool: ToolCleaner, Message: "No spray cleaner!"}
	}
	cfg := s.settings.Tools
	origin := s.player.Pos
	facing := s.player.Facing
	half := cfg.HalfAngleRadians()
	spray := s.settings.Arena.Clamp(origin.Add(geom.FromAngle(facing, cfg.CleanerRange)), 0, 0)

	blinded := 0
	hit := make(map[*entity.Entity]bool)
	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		if geom.Distance(origin, e.Pos) <= cfg.CleanerRange && geom.InCone(origin, facing, half, e.Pos) {
			e.Blind(cfg.CleanerBlind)
			hit[e] = true
			blinded++
		}
	}
	for _, e := range s.entities {
		if !e.Active || e.Type != entity.TypeGatherer || hit[e] {
			continue
		}
		if geom.Distance(origin, e.Pos) <= cfg.CleanerLureRange {
			e.MoveToward(spray, s.frameDelta(), s.settings.Arena)
		}
	}

	s.player.UseItem(item.TypeCleaner)
	if got := s.player.RestoreSanity(cfg.CleanerSanity); got > 0 {
		s.recordSanity(got, "clean_area")
	}
	return ToolResult{
		Tool:    ToolCleaner,
		OK:      true,
		Message: fmt.Sprintf("PSSSHHT! Area cleaned. %d blinded.", blinded),
	}
}

func (ts *ToolSystem) tape(s *Session) ToolResult {
	if !s.player.HasItem(item.TypeTape) {
		return ToolResult{Tool: ToolTape, Message: "No duct tape!"}
	}
	s.player.UseItem(item.TypeTape)
	s.RepairStore(s.settings.Tools.TapeIntegrity)

	msg := "Taped up the damage."
	for _, e := range s.entities {
		if e.Active && e.Repair() {
			s.emit(events.EventTypeWindowRepaired, events.ActorPlayer, entityRef(e), nil)
			msg = "Window taped shut. The tapping stops... for now."
			break
		}
	}
	return ToolResult{Tool: ToolTape, OK: true, Message: msg}
}
