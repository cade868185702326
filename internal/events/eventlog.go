// Package events provides the shift journal: an append-only log of
// everything notable that happens during a night shift.
package events

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeShiftStarted       EventType = "SHIFT_STARTED"
	EventTypeHourStruck         EventType = "HOUR_STRUCK"
	EventTypeItemSpawned        EventType = "ITEM_SPAWNED"
	EventTypeItemPickedUp       EventType = "ITEM_PICKED_UP"
	EventTypeItemUsed           EventType = "ITEM_USED"
	EventTypeToolUsed           EventType = "TOOL_USED"
	EventTypeToolFailed         EventType = "TOOL_FAILED"
	EventTypeFlashlightToggled  EventType = "FLASHLIGHT_TOGGLED"
	EventTypeSanityChange       EventType = "SANITY_CHANGE"
	EventTypeIntegrityChange    EventType = "INTEGRITY_CHANGE"
	EventTypeEntitySpawned      EventType = "ENTITY_SPAWNED"
	EventTypeEntityStateChanged EventType = "ENTITY_STATE_CHANGED"
	EventTypeWindowBreaking     EventType = "WINDOW_BREAKING"
	EventTypeWindowRepaired     EventType = "WINDOW_REPAIRED"
	EventTypeAnnouncement       EventType = "PA_ANNOUNCEMENT"
	EventTypeDirectiveCompleted EventType = "DIRECTIVE_COMPLETED"
	EventTypeMessage            EventType = "MESSAGE"
	EventTypeEffectStarted      EventType = "EFFECT_STARTED"
	EventTypeEffectExpired      EventType = "EFFECT_EXPIRED"
	EventTypeShiftComplete      EventType = "SHIFT_COMPLETE"
	EventTypeGameOver           EventType = "GAME_OVER"
)

// Well-known actors.
const (
	ActorPlayer  = "player"
	ActorSystem  = "system"
	ActorManager = "night_manager"
)

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // who performed the action
	TargetID  string      `json:"target_id"` // who was affected (optional)
	Payload   interface{} `json:"payload"`   // event-specific data
	Night     int         `json:"night"`
	ClockTime float64     `json:"clock_time"` // shift clock hours when it happened
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events. Events reach the
// persister in append order through a single background writer.
//
// Positions passed to Since and returned by Len count every event ever
// appended, so they stay valid after Trim drops old entries.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	trimmed   int
	persister EventPersister

	// sendMu orders queue sends and guards closed. Readers never take it.
	sendMu  sync.Mutex
	queue   chan GameEvent
	done    chan struct{}
	closed  bool
	onError func(GameEvent, error)
}

// DefaultBuffer is the persister queue length used by NewEventLog.
const DefaultBuffer = 1024

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return NewBufferedEventLog(persister, DefaultBuffer)
}

// NewBufferedEventLog is NewEventLog with an explicit persister queue
// length. Append blocks once the queue is full.
func NewBufferedEventLog(persister EventPersister, buffer int) *EventLog {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	el := &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
	if persister != nil {
		el.queue = make(chan GameEvent, buffer)
		el.done = make(chan struct{})
		go el.writeLoop()
	}
	return el
}

// OnPersistError registers a callback for failed writes. Must be called
// before the first Append.
func (el *EventLog) OnPersistError(fn func(GameEvent, error)) {
	el.onError = fn
}

func (el *EventLog) writeLoop() {
	defer close(el.done)
	for e := range el.queue {
		if err := el.persister.Append(e); err != nil && el.onError != nil {
			el.onError(e, err)
		}
	}
}

// Append adds a new event to the log. Events are immutable once appended.
// A missing ID or timestamp is filled in.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.sendMu.Lock()
	defer el.sendMu.Unlock()

	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	// A full queue blocks writers here, but not readers.
	if el.queue != nil && !el.closed {
		el.queue <- event
	}
	return event
}

// Trim drops all but the newest keep events from memory. Persisted copies
// are unaffected.
func (el *EventLog) Trim(keep int) {
	if keep < 0 {
		keep = 0
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	drop := len(el.events) - keep
	if drop <= 0 {
		return
	}
	el.trimmed += drop
	el.events = append([]GameEvent(nil), el.events[drop:]...)
}

// Close flushes pending writes to the persister. The in-memory log stays
// readable.
func (el *EventLog) Close() {
	el.sendMu.Lock()
	if el.queue == nil || el.closed {
		el.sendMu.Unlock()
		return
	}
	el.closed = true
	close(el.queue)
	el.sendMu.Unlock()
	<-el.done
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of type t in order.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Since returns the events appended after the first n that are still held
// in memory.
func (el *EventLog) Since(n int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	n -= el.trimmed
	if n >= len(el.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]GameEvent, len(el.events)-n)
	copy(out, el.events[n:])
	return out
}

// Len is the number of events ever appended, trimmed ones included.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.trimmed + len(el.events)
}

// Replay returns a copy of the history still held in memory.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique, time-sortable event identifier.
func GenerateEventID() string {
	return ulid.Make().String()
}
