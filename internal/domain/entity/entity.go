// Package entity defines the things that roam the store after closing.
// This package is PURE and must NOT import any infrastructure packages.
package entity

import (
	"math"
	"math/rand"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/rules"
)

// Type identifies an entity's behaviour.
type Type string

const (
	TypeGatherer  Type = "gatherer"
	TypeTapper    Type = "tapper"
	TypeAuditor   Type = "auditor"
	TypeLostChild Type = "lost_child"
)

// State is the behaviour state. Stun and blind are overlays and never
// overwrite it.
type State string

const (
	StateWandering  State = "wandering"
	StateChasing    State = "chasing"
	StateTapping    State = "tapping"
	StateBreaking   State = "breaking"
	StateIdle       State = "idle"
	StateInspecting State = "inspecting"
	StateAngry      State = "angry"
	StateHidden     State = "hidden"
	StateFound      State = "found"
	StateCalmed     State = "calmed"
)

// Tuning holds the movement and perception numbers for every type. Speeds
// are units per second; chances are per 60 Hz reference frame.
type Tuning struct {
	Inset float64 `yaml:"inset"`

	WanderSpeedMin      float64 `yaml:"wander_speed_min"`
	WanderSpeedMax      float64 `yaml:"wander_speed_max"`
	SpeedRerollChance   float64 `yaml:"speed_reroll_chance"`
	HeadingRerollChance float64 `yaml:"heading_reroll_chance"`
	ChaseRadius         float64 `yaml:"chase_radius"`
	ContactRadius       float64 `yaml:"contact_radius"`
	ChaseSpeed          float64 `yaml:"chase_speed"`

	TapperSpeed float64 `yaml:"tapper_speed"`
	TapperMinY  float64 `yaml:"tapper_min_y"`
	TapperMaxY  float64 `yaml:"tapper_max_y"`

	AuditorIdle      time.Duration `yaml:"auditor_idle"`
	InspectSpeed     float64       `yaml:"inspect_speed"`
	AngrySpeed       float64       `yaml:"angry_speed"`
	AngryRadius      float64       `yaml:"angry_radius"`
	AngryIntegrity   float64       `yaml:"angry_integrity"`
	ChildRevealRange float64       `yaml:"child_reveal_range"`
}

// DefaultTuning is the 60 Hz frame tuning converted to seconds.
func DefaultTuning() Tuning {
	return Tuning{
		Inset:               20,
		WanderSpeedMin:      30,
		WanderSpeedMax:      120,
		SpeedRerollChance:   0.02,
		HeadingRerollChance: 0.05,
		ChaseRadius:         60,
		ContactRadius:       30,
		ChaseSpeed:          150,
		TapperSpeed:         30,
		TapperMinY:          50,
		TapperMaxY:          550,
		AuditorIdle:         3 * time.Second,
		InspectSpeed:        40,
		AngrySpeed:          100,
		AngryRadius:         80,
		AngryIntegrity:      30,
		ChildRevealRange:    100,
	}
}

// Surroundings is what an entity can observe during its update.
type Surroundings struct {
	Player       geom.Vec
	FlashlightOn bool
	Integrity    float64
	Arena        geom.Arena
}

// Entity is a single creature on the floor.
type Entity struct {
	ID             int           `json:"id"`
	Type           Type          `json:"type"`
	State          State         `json:"state"`
	Pos            geom.Vec      `json:"pos"`
	Velocity       geom.Vec      `json:"velocity"`
	Speed          float64       `json:"speed"`
	Active         bool          `json:"active"`
	StunRemaining  time.Duration `json:"stun_remaining"`
	BlindRemaining time.Duration `json:"blind_remaining"`

	idleFor time.Duration
	tuning  Tuning
	rng     *rand.Rand
}

// New spawns an entity in its initial behaviour state.
func New(id int, t Type, pos geom.Vec, tuning Tuning, rng *rand.Rand) *Entity {
	e := &Entity{ID: id, Type: t, Pos: pos, Active: true, tuning: tuning, rng: rng}
	switch t {
	case TypeGatherer:
		e.State = StateWandering
		e.Speed = e.rollWanderSpeed()
		e.Velocity = geom.FromAngle(rng.Float64()*2*math.Pi, e.Speed)
	case TypeTapper:
		e.State = StateTapping
		e.Speed = tuning.TapperSpeed
		e.Velocity = geom.Vec{Y: tuning.TapperSpeed}
	case TypeAuditor:
		e.State = StateIdle
		e.Speed = tuning.InspectSpeed
	case TypeLostChild:
		e.State = StateHidden
	}
	return e
}

// Stunned reports whether the stun overlay is running.
func (e *Entity) Stunned() bool { return e.StunRemaining > 0 }

// Blinded reports whether the blind overlay is running.
func (e *Entity) Blinded() bool { return e.BlindRemaining > 0 }

// Stun freezes the entity for d. A second stun restarts the timer.
func (e *Entity) Stun(d time.Duration) {
	if d > 0 {
		e.StunRemaining = d
	}
}

// Blind stops the entity noticing the player for d. Refreshes, never stacks.
func (e *Entity) Blind(d time.Duration) {
	if d > 0 {
		e.BlindRemaining = d
	}
}

// Hostile reports whether the entity currently frightens the player.
func (e *Entity) Hostile() bool {
	if !e.Active {
		return false
	}
	switch e.Type {
	case TypeGatherer:
		return true
	case TypeTapper:
		return e.State == StateBreaking
	case TypeAuditor:
		return e.State == StateInspecting || e.State == StateAngry
	}
	return false
}

// Chasing is true for a gatherer locked onto the player.
func (e *Entity) Chasing() bool {
	return e.Active && e.Type == TypeGatherer && e.State == StateChasing
}

// DamagesStore is true for angry auditors. A stunned auditor does no damage.
func (e *Entity) DamagesStore() bool {
	return e.Active && !e.Stunned() && e.Type == TypeAuditor && e.State == StateAngry
}

// Update runs one frame of behaviour. dt is in seconds.
func (e *Entity) Update(dt float64, s Surroundings) {
	if !e.Active || dt <= 0 {
		return
	}
	step := time.Duration(dt * float64(time.Second))
	stunned := e.Stunned()
	e.StunRemaining = tick(e.StunRemaining, step)
	e.BlindRemaining = tick(e.BlindRemaining, step)
	if stunned {
		return
	}

	switch e.Type {
	case TypeGatherer:
		e.updateGatherer(dt, s)
	case TypeTapper:
		e.updateTapper(dt, s)
	case TypeAuditor:
		e.updateAuditor(dt, step, s)
	case TypeLostChild:
		if e.State == StateHidden && !e.Blinded() && geom.Distance(e.Pos, s.Player) < e.tuning.ChildRevealRange {
			e.State = StateFound
		}
	}
}

func (e *Entity) updateGatherer(dt float64, s Surroundings) {
	if e.State == StateChasing {
		e.pursue(s.Player, e.tuning.ChaseSpeed, dt, s.Arena)
		return
	}

	if rules.Roll(e.rng, rules.FrameChance(e.tuning.SpeedRerollChance, dt)) {
		e.Speed = e.rollWanderSpeed()
		e.Velocity = geom.FromAngle(math.Atan2(e.Velocity.Y, e.Velocity.X), e.Speed)
	}
	if rules.Roll(e.rng, rules.FrameChance(e.tuning.HeadingRerollChance, dt)) {
		e.Velocity = geom.FromAngle(e.rng.Float64()*2*math.Pi, e.Speed)
	}
	e.Pos = s.Arena.Clamp(e.Pos.Add(e.Velocity.Scale(dt)), e.tuning.Inset, e.tuning.Inset)

	if !e.Blinded() && geom.Distance(e.Pos, s.Player) < e.tuning.ChaseRadius {
		e.State = StateChasing
		e.Speed = e.tuning.ChaseSpeed
	}
}

func (e *Entity) updateTapper(dt float64, s Surroundings) {
	if e.State == StateBreaking {
		return
	}
	e.Pos.Y += e.Velocity.Y * dt
	if e.Pos.Y < e.tuning.TapperMinY || e.Pos.Y > e.tuning.TapperMaxY {
		e.Velocity.Y = -e.Velocity.Y
		e.Pos.Y = geom.Clamp(e.Pos.Y, e.tuning.TapperMinY, e.tuning.TapperMaxY)
	}
	e.Pos = s.Arena.Clamp(e.Pos, e.tuning.Inset, e.tuning.Inset)
}

func (e *Entity) updateAuditor(dt float64, step time.Duration, s Surroundings) {
	switch e.State {
	case StateIdle:
		e.idleFor += step
		if e.idleFor >= e.tuning.AuditorIdle {
			e.State = StateInspecting
		}
	case StateInspecting:
		e.pursue(s.Player, e.tuning.InspectSpeed, dt, s.Arena)
		if e.Blinded() {
			return
		}
		near := geom.Distance(e.Pos, s.Player) < e.tuning.AngryRadius
		if s.Integrity < e.tuning.AngryIntegrity || (near && !s.FlashlightOn) {
			e.State = StateAngry
			e.Speed = e.tuning.AngrySpeed
		}
	case StateAngry:
		e.pursue(s.Player, e.tuning.AngrySpeed, dt, s.Arena)
	}
}

// pursue closes on target but stops at contact range.
func (e *Entity) pursue(target geom.Vec, speed, dt float64, arena geom.Arena) {
	d := geom.Distance(e.Pos, target)
	if d <= e.tuning.ContactRadius {
		e.Velocity = geom.Vec{}
		return
	}
	move := math.Min(speed*dt, d-e.tuning.ContactRadius)
	e.Velocity = geom.FromAngle(geom.Heading(e.Pos, target), speed)
	e.Pos = arena.Clamp(e.Pos.Add(geom.FromAngle(geom.Heading(e.Pos, target), move)), e.tuning.Inset, e.tuning.Inset)
}

// MoveToward steps the entity toward target at its current speed for one
// frame. It never overshoots the target.
func (e *Entity) MoveToward(target geom.Vec, dt float64, arena geom.Arena) {
	if !e.Active || dt <= 0 {
		return
	}
	speed := e.Speed
	if speed <= 0 {
		speed = e.tuning.WanderSpeedMin
	}
	d := geom.Distance(e.Pos, target)
	if d == 0 {
		return
	}
	move := math.Min(speed*dt, d)
	e.Pos = arena.Clamp(e.Pos.Add(geom.FromAngle(geom.Heading(e.Pos, target), move)), e.tuning.Inset, e.tuning.Inset)
}

// StartBreaking sends a pacing tapper at the window.
func (e *Entity) StartBreaking() bool {
	if !e.Active || e.Type != TypeTapper || e.State != StateTapping || e.Stunned() {
		return false
	}
	e.State = StateBreaking
	return true
}

// Repair returns a breaking tapper to pacing.
func (e *Entity) Repair() bool {
	if e.Type != TypeTapper || e.State != StateBreaking {
		return false
	}
	e.State = StateTapping
	if e.Velocity.Y == 0 {
		e.Velocity.Y = e.tuning.TapperSpeed
	}
	return true
}

// Reset clears a gatherer's chase. Nothing inside the update loop does this.
func (e *Entity) Reset() {
	if e.Type != TypeGatherer {
		return
	}
	e.State = StateWandering
	e.Speed = e.rollWanderSpeed()
	e.Velocity = geom.FromAngle(e.rng.Float64()*2*math.Pi, e.Speed)
}

// Calm settles a found child. It leaves the floor for good.
func (e *Entity) Calm() bool {
	if !e.Active || e.Type != TypeLostChild || e.State != StateFound {
		return false
	}
	e.State = StateCalmed
	e.Active = false
	return true
}

func (e *Entity) rollWanderSpeed() float64 {
	return e.tuning.WanderSpeedMin + e.rng.Float64()*(e.tuning.WanderSpeedMax-e.tuning.WanderSpeedMin)
}

func tick(remaining, step time.Duration) time.Duration {
	if remaining <= step {
		return 0
	}
	return remaining - step
}
