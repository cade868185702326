package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/meter"
	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/domain/rules"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// Game-over reasons shown to the player.
const (
	ReasonSanity    = "You've lost your mind. The store consumes you."
	ReasonIntegrity = "The store has been destroyed."
)

// contactSlack absorbs float error when a chaser parks at contact range.
const contactSlack = 0.5

// ShiftState is the scoreboard of the night.
type ShiftState struct {
	Integrity     meter.Meter `json:"integrity"`
	Sanity        float64     `json:"sanity"` // read-only mirror of the player's meter
	GameOver      bool        `json:"game_over"`
	Win           bool        `json:"win"`
	Reason        string      `json:"reason,omitempty"`
	Score         int         `json:"score"`
	Night         int         `json:"night"`
	HoursSurvived float64     `json:"hours_survived"`
}

// Deps are the collaborators a session runs with. Nil fields get defaults.
type Deps struct {
	EventLog  *events.EventLog
	Logger    *logger.Logger
	Rand      *rand.Rand
	Messenger Messenger
	SessionID string
}

// Session is one night shift, from 22:00 until the clock reaches the shift
// end or the player breaks. It is not safe for concurrent use; Runner
// serialises access for real-time frontends.
type Session struct {
	ID        string
	settings  Settings
	eventLog  *events.EventLog
	logger    *logger.Logger
	rng       *rand.Rand
	messenger Messenger

	clock    *Clock
	state    ShiftState
	player   *player.Player
	entities []*entity.Entity
	items    []*item.Item
	catalog  item.Catalog
	beam     Beam

	// Sub-systems
	sanitySystem    *SanitySystem
	entitySystem    *EntitySystem
	toolSystem      *ToolSystem
	scheduleSystem  *ScheduleSystem
	paSystem        *PASystem
	directiveSystem *DirectiveSystem
	effectSystem    *EffectSystem

	messages          recentLines
	nextID            int
	frame             int64
	lastDelta         float64
	barricadeCooldown time.Duration
}

// NewSession builds a fresh shift and places everything on the floor.
func NewSession(settings Settings, deps Deps) *Session {
	if deps.EventLog == nil {
		deps.EventLog = events.NewEventLog(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Messenger == nil {
		deps.Messenger = NopMessenger{}
	}
	if deps.SessionID == "" {
		deps.SessionID = uuid.NewString()
	}
	if settings.Night <= 0 {
		settings.Night = 1
	}

	log := deps.Logger.With("session", deps.SessionID)
	s := &Session{
		ID:        deps.SessionID,
		settings:  settings,
		eventLog:  deps.EventLog,
		logger:    log,
		rng:       deps.Rand,
		messenger: deps.Messenger,
		clock:     NewClock(settings.Clock.Start, settings.Clock.TimeScale),
		catalog:   item.NewCatalog(settings.PassiveTape),
		player:    player.New(settings.Spawn.PlayerStart, settings.Player),
		state: ShiftState{
			Integrity: meter.New(meter.DefaultMax),
			Night:     settings.Night,
		},

		sanitySystem:    NewSanitySystem(log),
		entitySystem:    NewEntitySystem(log),
		toolSystem:      NewToolSystem(log),
		scheduleSystem:  NewScheduleSystem(log),
		paSystem:        NewPASystem(log, settings.MessageLimit),
		directiveSystem: NewDirectiveSystem(log),
		effectSystem:    NewEffectSystem(log),

		messages: recentLines{limit: settings.MessageLimit},
	}
	s.beam = Beam{Origin: s.player.Pos, Facing: s.player.Facing, On: s.player.FlashlightOn}

	s.emit(events.EventTypeShiftStarted, events.ActorSystem, "", map[string]interface{}{
		"night":      settings.Night,
		"start":      settings.Clock.Start,
		"shift_end":  settings.Clock.ShiftEnd,
		"items":      settings.Spawn.Items,
		"gatherers":  settings.Spawn.Gatherers,
		"tappers":    settings.Spawn.Tappers,
		"lost_child": settings.Spawn.LostChild,
	})
	s.spawnInitial()
	s.directiveSystem.Draw(s, settings.Schedule.DirectivesPerShift)
	s.paSystem.Announce(s, "Welcome to Mega-Mart. Have a productive shift.")
	s.syncMirror()

	s.logger.Info(fmt.Sprintf("Shift started: night %d, %d entities, %d items", settings.Night, len(s.entities), len(s.items)))
	return s
}

func (s *Session) spawnInitial() {
	sp := s.settings.Spawn
	for i := 0; i < sp.Gatherers; i++ {
		s.entitySystem.Spawn(s, entity.TypeGatherer, geom.Vec{X: 200 + float64(i)*150, Y: 200 + float64(i)*100})
	}
	for i := 0; i < sp.Tappers; i++ {
		s.entitySystem.Spawn(s, entity.TypeTapper, geom.Vec{X: 50 + float64(i)*250, Y: 50})
	}
	if sp.LostChild {
		s.entitySystem.Spawn(s, entity.TypeLostChild, geom.Vec{X: 700, Y: 500})
	}

	if len(sp.ItemPool) > 0 {
		w := s.settings.Arena.Width - 2*sp.ItemMargin
		h := s.settings.Arena.Height - 2*sp.ItemMargin
		for i := 0; i < sp.Items; i++ {
			t := sp.ItemPool[s.rng.Intn(len(sp.ItemPool))]
			pos := geom.Vec{X: sp.ItemMargin + s.rng.Float64()*w, Y: sp.ItemMargin + s.rng.Float64()*h}
			s.PlaceItem(t, pos)
		}
	}
	if sp.Plush {
		s.PlaceItem(item.TypePlush, geom.Vec{X: 750, Y: 520})
	}
}

// PlaceItem drops a new item on the floor.
func (s *Session) PlaceItem(t item.Type, pos geom.Vec) *item.Item {
	it := item.New(s.newID(), t, pos, s.catalog)
	s.items = append(s.items, it)
	s.emit(events.EventTypeItemSpawned, events.ActorSystem, fmt.Sprintf("item-%d", it.ID), map[string]interface{}{
		"type": string(t),
		"x":    pos.X,
		"y":    pos.Y,
	})
	return it
}

// SpawnEntity puts a new entity on the floor.
func (s *Session) SpawnEntity(t entity.Type, pos geom.Vec) *entity.Entity {
	return s.entitySystem.Spawn(s, t, pos)
}

func (s *Session) newID() int {
	s.nextID++
	return s.nextID
}

// Update runs one frame. dt is the real time since the previous frame in
// seconds. Once the shift is over Update does nothing.
func (s *Session) Update(dt float64, action player.ActionState) {
	if s.Terminal() {
		return
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	s.frame++
	s.lastDelta = dt

	s.clock.Advance(dt)
	s.state.HoursSurvived += s.clock.LastAdvance()
	if s.clock.IsShiftComplete(s.settings.Clock.ShiftEnd, s.settings.Clock.Window) || s.clock.Crossed(s.settings.Clock.ShiftEnd) {
		s.CompleteShift()
		return
	}

	s.player.Update(dt, action, s.settings.Arena)
	if action.Pickup {
		s.TryPickup()
	}
	s.beam = Beam{Origin: s.player.Pos, Facing: s.player.Facing, On: s.player.FlashlightOn}

	s.entitySystem.Update(s, dt)

	inset := s.settings.Entities.Inset
	for _, it := range s.items {
		if it.Collected {
			continue
		}
		moving := !it.Velocity.IsZero()
		it.Update(dt)
		if moving {
			it.Pos = s.settings.Arena.Clamp(it.Pos, inset, inset)
		}
	}

	s.sanitySystem.Update(s, dt)
	s.entitySystem.DamageStore(s, dt)
	if s.checkTerminal() {
		return
	}

	s.entitySystem.RollAuditor(s, dt)
	s.scheduleSystem.Update(s)
	s.paSystem.Update(s, dt)
	s.effectSystem.Update(s, dt)

	if s.barricadeCooldown > 0 {
		s.barricadeCooldown -= time.Duration(dt * float64(time.Second))
		if s.barricadeCooldown < 0 {
			s.barricadeCooldown = 0
		}
	}

	s.syncMirror()
	s.checkTerminal()
}

// checkTerminal ends the shift when a meter bottoms out.
func (s *Session) checkTerminal() bool {
	if s.Terminal() {
		return true
	}
	switch {
	case s.player.Sanity.Empty():
		s.logger.Warn("BREAKDOWN: sanity reached 0")
		s.GameOver(ReasonSanity)
	case s.state.Integrity.Empty():
		s.logger.Warn("COLLAPSE: store integrity reached 0")
		s.GameOver(ReasonIntegrity)
	}
	return s.Terminal()
}

// Terminal reports whether the shift has ended either way.
func (s *Session) Terminal() bool {
	return s.state.GameOver || s.state.Win
}

// CompleteShift ends the night as a win. Only the first call counts.
func (s *Session) CompleteShift() bool {
	if s.Terminal() {
		return false
	}
	s.syncMirror()
	s.state.Win = true
	s.state.Score = s.score()
	s.say(fmt.Sprintf("SHIFT COMPLETE! You survived the night. Score: %d", s.state.Score))
	s.emit(events.EventTypeShiftComplete, events.ActorPlayer, "", map[string]interface{}{
		"score":          s.state.Score,
		"sanity":         s.state.Sanity,
		"integrity":      s.state.Integrity.Value,
		"directives":     s.directiveSystem.Completed(),
		"hours_survived": s.state.HoursSurvived,
	})
	s.logger.Event("SHIFT_COMPLETE", events.ActorPlayer, fmt.Sprintf("score %d", s.state.Score))
	return true
}

// GameOver ends the night as a loss. Only the first call counts.
func (s *Session) GameOver(reason string) bool {
	if s.Terminal() {
		return false
	}
	s.syncMirror()
	s.state.GameOver = true
	s.state.Reason = reason
	s.state.Score = s.score()
	s.say("GAME OVER: " + reason)
	s.emit(events.EventTypeGameOver, events.ActorPlayer, "", map[string]interface{}{
		"reason":         reason,
		"score":          s.state.Score,
		"hours_survived": s.state.HoursSurvived,
	})
	s.logger.Event("GAME_OVER", events.ActorPlayer, reason)
	return true
}

func (s *Session) score() int {
	return rules.CalculateScore(rules.ScoreParams{
		Sanity:              s.player.Sanity.Value,
		Integrity:           s.state.Integrity.Value,
		CompletedDirectives: s.directiveSystem.Completed(),
		HoursSurvived:       s.state.HoursSurvived,
	})
}

func (s *Session) syncMirror() {
	s.state.Sanity = s.player.Sanity.Value
}

// TryPickup picks up the nearest item in reach.
func (s *Session) TryPickup() (*item.Item, bool) {
	if s.Terminal() {
		return nil, false
	}
	before := s.player.Sanity.Value
	it, ok := s.player.TryPickupItem(s.items, s)
	if !ok {
		return nil, false
	}
	s.say("Picked up: " + it.Name())
	s.emit(events.EventTypeItemPickedUp, events.ActorPlayer, fmt.Sprintf("item-%d", it.ID), map[string]interface{}{
		"type":    string(it.Type),
		"passive": it.Passive(),
		"effect":  it.Def.Effect.Kind.String(),
		"amount":  it.Def.Effect.Amount,
	})
	if delta := s.player.Sanity.Value - before; delta != 0 {
		s.recordSanity(delta, "pickup:"+string(it.Type))
	}
	s.syncMirror()
	return it, true
}

// RestoreSanity implements item.EffectTarget.
func (s *Session) RestoreSanity(amount float64) float64 {
	return s.player.RestoreSanity(amount)
}

// RestoreBattery implements item.EffectTarget.
func (s *Session) RestoreBattery(amount float64) float64 {
	return s.player.RestoreBattery(amount)
}

// RepairStore implements item.EffectTarget.
func (s *Session) RepairStore(amount float64) float64 {
	got := s.state.Integrity.Restore(amount)
	if got != 0 {
		s.emit(events.EventTypeIntegrityChange, events.ActorPlayer, "", map[string]interface{}{
			"delta": got,
			"value": s.state.Integrity.Value,
		})
	}
	return got
}

// damageStore drains integrity without journaling; called every frame.
func (s *Session) damageStore(amount float64) float64 {
	return s.state.Integrity.Drain(amount)
}

func (s *Session) recordSanity(delta float64, cause string) {
	s.emit(events.EventTypeSanityChange, events.ActorSystem, events.ActorPlayer, map[string]interface{}{
		"delta": delta,
		"value": s.player.Sanity.Value,
		"cause": cause,
	})
}

// say shows a message to the player and journals it.
func (s *Session) say(text string) {
	s.messages.push(text)
	s.messenger.ShowMessage(text)
	s.emit(events.EventTypeMessage, events.ActorSystem, events.ActorPlayer, map[string]interface{}{"text": text})
}

// emit appends a journal entry stamped with the session and clock.
func (s *Session) emit(t events.EventType, actor, target string, payload interface{}) events.GameEvent {
	return s.eventLog.Append(events.GameEvent{
		SessionID: s.ID,
		Type:      t,
		ActorID:   actor,
		TargetID:  target,
		Payload:   payload,
		Night:     s.state.Night,
		ClockTime: s.clock.Time(),
	})
}

// frameDelta is the step used by one-shot steering from tool actions.
func (s *Session) frameDelta() float64 {
	if s.lastDelta > 0 {
		return s.lastDelta
	}
	return 1 / rules.ReferenceFPS
}

// State returns a copy of the scoreboard.
func (s *Session) State() ShiftState { return s.state }

// Clock exposes the shift clock.
func (s *Session) Clock() *Clock { return s.clock }

// Player exposes the clerk. Mutating it outside the session's goroutine is
// a data race.
func (s *Session) Player() *player.Player { return s.player }

// Entities exposes the live entity list.
func (s *Session) Entities() []*entity.Entity { return s.entities }

// Items exposes every item, collected or not.
func (s *Session) Items() []*item.Item { return s.items }

// Settings returns the tuning the session was built with.
func (s *Session) Settings() Settings { return s.settings }

// EventLog exposes the shift journal.
func (s *Session) EventLog() *events.EventLog { return s.eventLog }

// LastMessage is the most recent player-facing message.
func (s *Session) LastMessage() string { return s.messages.last() }

// Directives lists tonight's objectives.
func (s *Session) Directives() []Directive { return s.directiveSystem.List() }

// ActiveEffects lists the running timed effects.
func (s *Session) ActiveEffects() []TimedEffect { return s.effectSystem.Active() }

// CurrentTool is the equipped roster entry.
func (s *Session) CurrentTool() Tool { return s.toolSystem.Current() }

// Frame is the number of frames simulated so far.
func (s *Session) Frame() int64 { return s.frame }
