package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nightcrew/lastshift/internal/events"
)

// WriteObserver is told how long each journal write took.
type WriteObserver interface {
	RecordEventWrite(latency time.Duration, err error)
}

// Journal adapts a JournalRepository to events.EventPersister so an
// EventLog can write through to SQLite.
type Journal struct {
	repo     JournalRepository
	observer WriteObserver
	timeout  time.Duration
}

// NewJournal wraps repo. observer may be nil.
func NewJournal(repo JournalRepository, observer WriteObserver) *Journal {
	return &Journal{repo: repo, observer: observer, timeout: 5 * time.Second}
}

// Append implements events.EventPersister.
func (j *Journal) Append(e events.GameEvent) error {
	payload, err := toPayload(e.Payload)
	if err != nil {
		return fmt.Errorf("journal %s: %w", e.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	err = j.repo.Append(ctx, JournalEvent{
		ID:        e.ID,
		SessionID: e.SessionID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Payload:   payload,
		Night:     e.Night,
		ClockTime: e.ClockTime,
	})
	if j.observer != nil {
		j.observer.RecordEventWrite(time.Since(start), err)
	}
	return err
}

func toPayload(p interface{}) (map[string]interface{}, error) {
	switch v := p.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]interface{}{"value": json.RawMessage(b)}, nil
	}
	return out, nil
}
