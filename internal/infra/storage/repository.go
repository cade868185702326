// Package storage provides the shift journal: an audit trail of every event
// a session emitted, kept in SQLite. Sessions are never restored from it.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoJournal is returned when a session has no journaled events.
var ErrNoJournal = errors.New("storage: no journal for session")

// JournalEvent mirrors events.GameEvent for persistence.
// The engine does not import this package; see Journal.
type JournalEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Night     int                    `json:"night" db:"night"`
	ClockTime float64                `json:"clock_time" db:"clock_time"`
}

// JournalRepository defines the interface for event persistence.
type JournalRepository interface {
	// Append adds a new event to the immutable journal.
	Append(ctx context.Context, event JournalEvent) error

	// GetBySession retrieves all events of one shift in append order.
	GetBySession(ctx context.Context, sessionID string) ([]JournalEvent, error)

	// GetByActor retrieves all events performed by an actor.
	GetByActor(ctx context.Context, sessionID, actorID string) ([]JournalEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]JournalEvent, error)
}

// Shift outcomes stored in ShiftRecord.Outcome.
const (
	OutcomeInProgress = "IN_PROGRESS"
	OutcomeWin        = "WIN"
	OutcomeLoss       = "LOSS"
)

// ShiftRecord is the one-row summary of a shift for quick listing.
type ShiftRecord struct {
	SessionID string     `json:"session_id" db:"session_id"`
	Preset    string     `json:"preset" db:"preset"`
	Night     int        `json:"night" db:"night"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	Outcome   string     `json:"outcome" db:"outcome"`
	Reason    string     `json:"reason,omitempty" db:"reason"`
	Score     int        `json:"score" db:"score"`
}

// ShiftRepository defines the interface for shift summaries.
type ShiftRepository interface {
	// Upsert updates or inserts a shift summary.
	Upsert(ctx context.Context, record ShiftRecord) error

	// Get retrieves one shift, or nil when it is unknown.
	Get(ctx context.Context, sessionID string) (*ShiftRecord, error)

	// List retrieves the most recent shifts, newest first.
	List(ctx context.Context, limit int) ([]ShiftRecord, error)
}
