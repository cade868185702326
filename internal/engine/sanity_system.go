package engine

import (
	"fmt"

	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/rules"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// lowSanity is where the log starts warning about the clerk.
const lowSanity = 25

// SanitySystem sums every cause of sanity loss for a frame and applies the
// total to the player's meter in one step.
type SanitySystem struct {
	logger   *logger.Logger
	darkAcc  float64
	last     rules.SanityDrain
	drained  float64
	darkTime float64
}

// NewSanitySystem creates a new sanity processing system.
func NewSanitySystem(log *logger.Logger) *SanitySystem {
	return &SanitySystem{logger: log}
}

// Update applies one frame of drain.
func (ss *SanitySystem) Update(s *Session, dt float64) {
	p := s.player
	drains := s.settings.Drains
	tuning := s.settings.Entities

	var ticks int
	ticks, ss.darkAcc = rules.DarknessTicks(ss.darkAcc, dt)
	if !rules.IsDark(s.settings.AmbientLight, p.FlashlightOn, drains) {
		ticks = 0
	} else {
		ss.darkTime += dt
	}

	params := rules.SanityDrainParams{
		Elapsed:   dt,
		DarkTicks: ticks,
		Integrity: s.state.Integrity.Value,
		Running:   p.Running,
	}
	for _, e := range s.entities {
		if !e.Hostile() {
			continue
		}
		d := geom.Distance(e.Pos, p.Pos)
		params.HostileDistances = append(params.HostileDistances, d)
		// Stunned entities still frighten but cannot attack.
		if e.Chasing() && !e.Stunned() && d <= tuning.ContactRadius+contactSlack {
			params.Contacts++
		}
	}

	ss.last = rules.CalculateSanityDrain(params, drains)
	before := p.Sanity.Value
	ss.drained += p.DrainSanity(ss.last.Total())
	if before > lowSanity && p.Sanity.Value <= lowSanity {
		ss.logger.Warn(fmt.Sprintf("Clerk sanity low: %.1f", p.Sanity.Value))
	}
}

// LastDrain is the itemised drain of the most recent frame.
func (ss *SanitySystem) LastDrain() rules.SanityDrain { return ss.last }

// TotalDrained is the sanity lost to drains this shift.
func (ss *SanitySystem) TotalDrained() float64 { return ss.drained }

// DarkTime is how long the player has spent in darkness.
func (ss *SanitySystem) DarkTime() float64 { return ss.darkTime }
