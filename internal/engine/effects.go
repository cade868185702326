package engine

import (
	"fmt"
	"time"

	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// EffectKind names a timed visual or narrative effect.
type EffectKind string

const (
	EffectWhispers   EffectKind = "whispers"
	EffectFlicker    EffectKind = "flicker"
	EffectMannequins EffectKind = "mannequins"
	EffectStatic     EffectKind = "static"
)

// TimedEffect is something renderers show until it runs out.
type TimedEffect struct {
	Kind      EffectKind    `json:"kind"`
	Label     string        `json:"label"`
	Remaining time.Duration `json:"remaining"`
}

type sanityEvent struct {
	kind     EffectKind
	label    string
	message  string
	sanity   float64
	duration time.Duration
}

var sanityEvents = []sanityEvent{
	{EffectWhispers, "Whispers", "You hear whispering from the next aisle. It knows your name.", 5, 10 * time.Second},
	{EffectFlicker, "Lights flicker", "The lights flicker. For a moment the aisles are much longer.", 3, 8 * time.Second},
	{EffectMannequins, "Mannequins", "The mannequins in Apparel are facing you now.", 8, 6 * time.Second},
	{EffectStatic, "Static", "The PA crackles with static. Someone is breathing into it.", 4, 5 * time.Second},
}

// EffectSystem keeps the list of running timed effects.
type EffectSystem struct {
	logger *logger.Logger
	active []TimedEffect
}

// NewEffectSystem creates an empty effect list.
func NewEffectSystem(log *logger.Logger) *EffectSystem {
	return &EffectSystem{logger: log}
}

// Start adds an effect. Starting one that is already running restarts it.
func (fx *EffectSystem) Start(s *Session, kind EffectKind, label string, d time.Duration) {
	for i := range fx.active {
		if fx.active[i].Kind == kind {
			fx.active[i].Remaining = d
			return
		}
	}
	fx.active = append(fx.active, TimedEffect{Kind: kind, Label: label, Remaining: d})
	s.emit(events.EventTypeEffectStarted, events.ActorSystem, "", map[string]interface{}{
		"kind":     string(kind),
		"duration": d.Seconds(),
	})
}

// TriggerSanityEvent picks a random scare, costs sanity and starts its
// effect.
func (fx *EffectSystem) TriggerSanityEvent(s *Session) {
	ev := sanityEvents[s.rng.Intn(len(sanityEvents))]
	lost := s.player.DrainSanity(ev.sanity)
	s.recordSanity(-lost, "sanity_event:"+string(ev.kind))
	fx.Start(s, ev.kind, ev.label, ev.duration)
	s.say(ev.message)
	fx.logger.Event("SANITY_EVENT", events.ActorPlayer, fmt.Sprintf("%s cost %.0f sanity", ev.kind, lost))
}

// Update ticks effects down and drops expired ones.
func (fx *EffectSystem) Update(s *Session, dt float64) {
	if len(fx.active) == 0 {
		return
	}
	step := time.Duration(dt * float64(time.Second))
	kept := fx.active[:0]
	for _, e := range fx.active {
		e.Remaining -= step
		if e.Remaining <= 0 {
			s.emit(events.EventTypeEffectExpired, events.ActorSystem, "", map[string]interface{}{"kind": string(e.Kind)})
			continue
		}
		kept = append(kept, e)
	}
	fx.active = kept
}

// Active returns a copy of the running effects.
func (fx *EffectSystem) Active() []TimedEffect {
	out := make([]TimedEffect, len(fx.active))
	copy(out, fx.active)
	return out
}
