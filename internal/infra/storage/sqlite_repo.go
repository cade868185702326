package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const journalColumns = `id, session_id, timestamp, event_type, actor_id, target_id, payload, night, clock_time`

// SQLiteJournalRepository implements JournalRepository for SQLite.
type SQLiteJournalRepository struct {
	db *sql.DB
}

func NewSQLiteJournalRepository(db *sql.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db}
}

func (r *SQLiteJournalRepository) Append(ctx context.Context, event JournalEvent) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `INSERT INTO events (` + journalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, string(payloadBytes), event.Night, event.ClockTime,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteJournalRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]JournalEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []JournalEvent
	for rows.Next() {
		var e JournalEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadStr, &e.Night, &e.ClockTime,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetBySession returns a shift's events in the order they were written.
func (r *SQLiteJournalRepository) GetBySession(ctx context.Context, sessionID string) ([]JournalEvent, error) {
	query := `SELECT ` + journalColumns + ` FROM events WHERE session_id = ? ORDER BY rowid ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteJournalRepository) GetByActor(ctx context.Context, sessionID, actorID string) ([]JournalEvent, error) {
	query := `SELECT ` + journalColumns + ` FROM events WHERE session_id = ? AND actor_id = ? ORDER BY rowid ASC`
	return r.getMany(ctx, query, sessionID, actorID)
}

func (r *SQLiteJournalRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]JournalEvent, error) {
	query := `SELECT ` + journalColumns + ` FROM events WHERE session_id = ? AND event_type = ? ORDER BY rowid ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

// ---------------------------------------------------------
// SQLiteShiftRepository
// ---------------------------------------------------------

type SQLiteShiftRepository struct {
	db *sql.DB
}

func NewSQLiteShiftRepository(db *sql.DB) *SQLiteShiftRepository {
	return &SQLiteShiftRepository{db: db}
}

func (r *SQLiteShiftRepository) Upsert(ctx context.Context, rec ShiftRecord) error {
	if rec.Outcome == "" {
		rec.Outcome = OutcomeInProgress
	}
	query := `
		INSERT INTO shifts (session_id, preset, night, started_at, ended_at, outcome, reason, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			preset=excluded.preset,
			night=excluded.night,
			ended_at=excluded.ended_at,
			outcome=excluded.outcome,
			reason=excluded.reason,
			score=excluded.score
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.SessionID, rec.Preset, rec.Night, rec.StartedAt, rec.EndedAt, rec.Outcome, rec.Reason, rec.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert shift: %w", err)
	}
	return nil
}

const shiftColumns = `session_id, preset, night, started_at, ended_at, outcome, reason, score`

func scanShift(sc interface{ Scan(...interface{}) error }) (ShiftRecord, error) {
	var rec ShiftRecord
	var ended sql.NullTime
	err := sc.Scan(&rec.SessionID, &rec.Preset, &rec.Night, &rec.StartedAt, &ended, &rec.Outcome, &rec.Reason, &rec.Score)
	if ended.Valid {
		t := ended.Time
		rec.EndedAt = &t
	}
	return rec, err
}

func (r *SQLiteShiftRepository) Get(ctx context.Context, sessionID string) (*ShiftRecord, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE session_id = ?`
	rec, err := scanShift(r.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *SQLiteShiftRepository) List(ctx context.Context, limit int) ([]ShiftRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + shiftColumns + ` FROM shifts ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []ShiftRecord
	for rows.Next() {
		rec, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
