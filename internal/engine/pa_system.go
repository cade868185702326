package engine

import (
	"github.com/nightcrew/lastshift/internal/domain/rules"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// paChatter is what the store speakers say when nobody asked.
var paChatter = []string{
	"Attention Mega-Mart associates: smiling is mandatory.",
	"Clean-up on aisle 7. Clean-up on aisle 7.",
	"Reminder: the freezer door must remain closed at all times.",
	"Sparkle-Cola is on special. Sparkle-Cola is always on special.",
	"Do not acknowledge customers after midnight.",
	"Thank you for your continued loyalty to Mega-Mart.",
	"Will the associate in Electronics please stop looking at the windows.",
	"Mega-Mart is closed. Mega-Mart is never closed.",
}

// PASystem handles store announcements. Announcements carry no game effect
// on their own.
type PASystem struct {
	logger *logger.Logger
	recent recentLines
	count  int
}

// NewPASystem creates the speaker system.
func NewPASystem(log *logger.Logger, keep int) *PASystem {
	return &PASystem{logger: log, recent: recentLines{limit: keep}}
}

// Announce broadcasts text over the speakers.
func (pa *PASystem) Announce(s *Session, text string) {
	if text == "" {
		return
	}
	pa.count++
	pa.recent.push(text)
	s.messenger.Announce(text)
	s.emit(events.EventTypeAnnouncement, events.ActorManager, "", map[string]interface{}{"text": text})
	pa.logger.Event("PA", events.ActorManager, text)
}

// RandomLine picks a line of chatter.
func (pa *PASystem) RandomLine(s *Session) string {
	return paChatter[s.rng.Intn(len(paChatter))]
}

// Update rolls for unprompted chatter.
func (pa *PASystem) Update(s *Session, dt float64) {
	if rules.Roll(s.rng, rules.RateChance(s.settings.Schedule.ChatterRate, dt)) {
		pa.Announce(s, pa.RandomLine(s))
	}
}

// Recent lists the latest announcements, oldest first.
func (pa *PASystem) Recent() []string { return pa.recent.list() }

// Count is how many announcements were made this shift.
func (pa *PASystem) Count() int { return pa.count }
