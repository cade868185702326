package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/infra/storage"
	"github.com/nightcrew/lastshift/internal/network"
	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
	"github.com/nightcrew/lastshift/internal/platform/metrics"
)

// restartDelay is how long the end screen stays up before the next night.
const restartDelay = 5 * time.Second

// shiftHost plays shifts back to back and hands the current one to the
// HTTP layer. It satisfies network.Runtime.
type shiftHost struct {
	cfg      config.Config
	eventLog *events.EventLog
	shifts   storage.ShiftRepository
	hub      *network.Hub
	metrics  *metrics.Collector
	logger   *logger.Logger

	mu     sync.RWMutex
	runner *engine.Runner
}

func (h *shiftHost) current() *engine.Runner {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runner
}

// SetInput implements network.Controller.
func (h *shiftHost) SetInput(a player.ActionState) {
	if r := h.current(); r != nil {
		r.SetInput(a)
	}
}

// Submit implements network.Controller.
func (h *shiftHost) Submit(cmd engine.Command) bool {
	if r := h.current(); r != nil {
		return r.Submit(cmd)
	}
	return false
}

// Snapshot implements network.SnapshotSource.
func (h *shiftHost) Snapshot() engine.Snapshot {
	if r := h.current(); r != nil {
		return r.Snapshot()
	}
	return engine.Snapshot{}
}

// Run hosts nights until ctx is cancelled.
func (h *shiftHost) Run(ctx context.Context) error {
	seed := h.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	for night := h.cfg.Game.Night; ; night++ {
		if err := h.playNight(ctx, night, rand.New(rand.NewSource(seed+int64(night)))); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(restartDelay):
		}
	}
}

func (h *shiftHost) playNight(ctx context.Context, night int, rng *rand.Rand) error {
	settings := h.cfg.Game
	settings.Night = night

	// Earlier nights stay in the SQLite journal.
	h.eventLog.Trim(0)
	s := engine.NewSession(settings, engine.Deps{
		EventLog: h.eventLog,
		Logger:   h.logger,
		Rand:     rng,
	})
	runner := engine.NewRunner(s, h.logger, engine.RunnerOptions{
		CommandBuffer: h.cfg.Runtime.CommandBuffer,
		Recorder:      h.metrics,
		OnFrame:       h.hub.BroadcastSnapshot,
		OnResult: func(cmd engine.Command, res engine.CommandResult) {
			h.metrics.RecordCommand(res.OK)
			h.hub.Broadcast(network.NewMessage(network.MsgTypeResult, map[string]interface{}{
				"command": cmd,
				"result":  res,
			}))
		},
	})

	record := storage.ShiftRecord{
		SessionID: s.ID,
		Preset:    h.cfg.Preset,
		Night:     night,
		StartedAt: time.Now(),
		Outcome:   storage.OutcomeInProgress,
	}
	if err := h.shifts.Upsert(ctx, record); err != nil {
		h.logger.Err(err, "Failed to record shift start")
	}

	h.mu.Lock()
	h.runner = runner
	h.mu.Unlock()
	h.logger.Info(fmt.Sprintf("Night %d open: session %s", night, s.ID))

	if err := runner.Run(ctx); err != nil {
		return err
	}

	// The runner has returned, so the session is ours to read.
	st := s.State()
	ended := time.Now()
	record.EndedAt = &ended
	record.Reason = st.Reason
	record.Score = st.Score
	record.Outcome = storage.OutcomeLoss
	if st.Win {
		record.Outcome = storage.OutcomeWin
	}
	h.metrics.RecordShiftEnd(st.Win)
	// The shift is over even if shutdown starts now.
	if err := h.shifts.Upsert(context.WithoutCancel(ctx), record); err != nil {
		h.logger.Err(err, "Failed to record shift end")
	}
	h.logger.Event(record.Outcome, s.ID, fmt.Sprintf("night %d, score %d %s", night, st.Score, st.Reason))
	return nil
}
