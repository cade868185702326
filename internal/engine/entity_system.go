package engine

import (
	"fmt"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/rules"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// EntitySystem moves everything that is not the player and resolves what
// they do to the store.
type EntitySystem struct {
	logger *logger.Logger
}

// NewEntitySystem creates the entity manager.
func NewEntitySystem(log *logger.Logger) *EntitySystem {
	return &EntitySystem{logger: log}
}

func entityRef(e *entity.Entity) string {
	return fmt.Sprintf("%s-%d", e.Type, e.ID)
}

// Spawn adds an entity to the floor.
func (es *EntitySystem) Spawn(s *Session, t entity.Type, pos geom.Vec) *entity.Entity {
	e := entity.New(s.newID(), t, pos, s.settings.Entities, s.rng)
	s.entities = append(s.entities, e)
	s.emit(events.EventTypeEntitySpawned, events.ActorSystem, entityRef(e), map[string]interface{}{
		"type":  string(t),
		"state": string(e.State),
		"x":     pos.X,
		"y":     pos.Y,
	})
	es.logger.Debug("spawned " + entityRef(e))
	return e
}

// Update advances every active entity and resolves proximity interactions.
func (es *EntitySystem) Update(s *Session, dt float64) {
	sur := entity.Surroundings{
		Player:       s.player.Pos,
		FlashlightOn: s.player.FlashlightOn,
		Integrity:    s.state.Integrity.Value,
		Arena:        s.settings.Arena,
	}
	breakChance := rules.RateChance(s.settings.Hazards.WindowBreakRate, dt)

	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		before := e.State
		e.Update(dt, sur)

		if e.Type == entity.TypeTapper && e.State == entity.StateTapping && !e.Stunned() && rules.Roll(s.rng, breakChance) {
			e.StartBreaking()
			s.say("CRASH! Something is breaking through a window!")
			s.emit(events.EventTypeWindowBreaking, entityRef(e), "store", map[string]interface{}{"x": e.Pos.X, "y": e.Pos.Y})
		}

		if e.State != before {
			es.onStateChange(s, e, before)
		}

		if e.Type == entity.TypeLostChild && e.State == entity.StateFound {
			es.tryDeliverPlush(s, e)
		}
	}
}

func (es *EntitySystem) onStateChange(s *Session, e *entity.Entity, before entity.State) {
	s.emit(events.EventTypeEntityStateChanged, entityRef(e), "", map[string]interface{}{
		"from": string(before),
		"to":   string(e.State),
	})
	switch e.State {
	case entity.StateFound:
		s.say("You found a lost child. They look terrified. Maybe a toy would help.")
	case entity.StateAngry:
		s.say("The auditor is FURIOUS.")
	case entity.StateChasing:
		es.logger.Event("CHASE_STARTED", entityRef(e), "gatherer locked on")
	}
}

func (es *EntitySystem) tryDeliverPlush(s *Session, child *entity.Entity) {
	if !s.player.HasItem(item.TypePlush) {
		return
	}
	if geom.Distance(child.Pos, s.player.Pos) > s.settings.Hazards.PlushRange {
		return
	}
	if !child.Calm() {
		return
	}
	s.player.UseItem(item.TypePlush)
	got := s.player.RestoreSanity(s.settings.Hazards.ChildCalmSanity)
	s.recordSanity(got, "child_calmed")
	s.directiveSystem.Award(s, "Reunite the lost child with a plush friend")
	s.say("The child hugs the plush bear and calms down. You feel a little better.")
	s.emit(events.EventTypeEntityStateChanged, entityRef(child), "", map[string]interface{}{
		"from": string(entity.StateFound),
		"to":   string(entity.StateCalmed),
	})
}

// DamageStore applies the frame's integrity loss.
func (es *EntitySystem) DamageStore(s *Session, dt float64) {
	breaking, damaging := 0, 0
	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		if e.Type == entity.TypeTapper && e.State == entity.StateBreaking && !e.Stunned() {
			breaking++
		}
		if e.DamagesStore() {
			damaging++
		}
	}
	s.damageStore(rules.IntegrityDrain(breaking, damaging, dt, s.settings.Drains))

	hz := s.settings.Hazards
	if hz.StoreWearAmount > 0 && rules.Roll(s.rng, rules.FrameChance(hz.StoreWearChance, dt)) {
		s.damageStore(hz.StoreWearAmount)
	}
}

// AuditorActive reports whether an auditor is already walking the floor.
func (es *EntitySystem) AuditorActive(s *Session) bool {
	for _, e := range s.entities {
		if e.Active && e.Type == entity.TypeAuditor {
			return true
		}
	}
	return false
}

// RollAuditor may send corporate in. Only one auditor visits at a time.
func (es *EntitySystem) RollAuditor(s *Session, dt float64) {
	if es.AuditorActive(s) {
		return
	}
	hz := s.settings.Hazards
	rate := hz.AuditorBaseRate
	if s.state.Integrity.Value < hz.AuditorStressBelow {
		rate = hz.AuditorStressRate
	}
	if !rules.Roll(s.rng, rules.RateChance(rate, dt)) {
		return
	}
	e := es.Spawn(s, entity.TypeAuditor, es.edgePoint(s))
	s.paSystem.Announce(s, "Attention: a regional auditor has entered the building. Look busy.")
	es.logger.Event("AUDITOR_ARRIVED", entityRef(e), fmt.Sprintf("integrity %.0f", s.state.Integrity.Value))
}

// SpawnReinforcement brings in another gatherer from the far side of the store.
func (es *EntitySystem) SpawnReinforcement(s *Session) *entity.Entity {
	return es.Spawn(s, entity.TypeGatherer, es.edgePoint(s))
}

// edgePoint picks a spot on the store edge, on the side away from the player.
func (es *EntitySystem) edgePoint(s *Session) geom.Vec {
	a := s.settings.Arena
	inset := s.settings.Entities.Inset
	x := inset + s.rng.Float64()*(a.Width-2*inset)
	y := inset
	if s.player.Pos.Y < a.Height/2 {
		y = a.Height - inset
	}
	return geom.Vec{X: x, Y: y}
}
