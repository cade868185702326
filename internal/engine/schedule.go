package engine

import (
	"fmt"

	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// ScheduleSystem runs the scripted hours of the night.
type ScheduleSystem struct {
	logger *logger.Logger
}

// NewScheduleSystem creates the scripted-hours manager.
func NewScheduleSystem(log *logger.Logger) *ScheduleSystem {
	return &ScheduleSystem{logger: log}
}

// Update checks which marks the clock passed this frame.
func (ss *ScheduleSystem) Update(s *Session) {
	for _, h := range s.clock.HoursCrossed() {
		s.emit(events.EventTypeHourStruck, events.ActorSystem, "", map[string]interface{}{"hour": h})
	}

	cfg := s.settings.Schedule
	if s.clock.Crossed(cfg.ReinforcementHour) {
		ss.midnight(s)
	}
	if s.clock.Crossed(cfg.DreadHour) {
		ss.dread(s)
	}
}

// midnight: the night crew gets company.
func (ss *ScheduleSystem) midnight(s *Session) {
	e := s.entitySystem.SpawnReinforcement(s)
	s.paSystem.Announce(s, "It is now midnight. Additional customers have been admitted. Please assist them.")
	ss.logger.Info("MIDNIGHT: reinforcement " + entityRef(e))
}

// dread: 3 AM hits everyone.
func (ss *ScheduleSystem) dread(s *Session) {
	cfg := s.settings.Schedule
	lost := s.player.DrainSanity(cfg.DreadSanity)
	s.recordSanity(-lost, "three_am")
	s.effectSystem.TriggerSanityEvent(s)
	s.paSystem.Announce(s, "It is 3 AM. Nobody is in the store. Nobody is in the store.")
	ss.logger.Info(fmt.Sprintf("3 AM: sanity -%.0f", lost))
}
