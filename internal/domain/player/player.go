// Package player models the night-shift clerk.
// This package is PURE and must NOT import any infrastructure packages.
package player

import (
	"math"

	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/meter"
)

// ActionState is the logical input for one frame. Input adapters fill it in;
// the player never reads devices directly.
type ActionState struct {
	Up     bool `json:"up,omitempty"`
	Down   bool `json:"down,omitempty"`
	Left   bool `json:"left,omitempty"`
	Right  bool `json:"right,omitempty"`
	Run    bool `json:"run,omitempty"`
	Pickup bool `json:"pickup,omitempty"`
}

// Facing names used by renderers to pick a sprite.
const (
	FacingUp    = "up"
	FacingDown  = "down"
	FacingLeft  = "left"
	FacingRight = "right"
)

// Tuning holds the player's movement and flashlight numbers.
type Tuning struct {
	BaseSpeed    float64 `yaml:"base_speed"`
	RunSpeed     float64 `yaml:"run_speed"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	PickupRadius float64 `yaml:"pickup_radius"`
	BatteryDrain float64 `yaml:"battery_drain"`
}

// DefaultTuning matches 2 px/frame walking and 4 px/frame running at 60 Hz.
func DefaultTuning() Tuning {
	return Tuning{
		BaseSpeed:    120,
		RunSpeed:     240,
		Width:        16,
		Height:       24,
		PickupRadius: 50,
		BatteryDrain: 1.2,
	}
}

// Player is the only human in the store.
type Player struct {
	Pos          geom.Vec     `json:"pos"`
	Facing       float64      `json:"facing"`
	FacingName   string       `json:"facing_name"`
	Running      bool         `json:"running"`
	FlashlightOn bool         `json:"flashlight_on"`
	Battery      meter.Meter  `json:"battery"`
	Sanity       meter.Meter  `json:"sanity"`
	Inventory    []*item.Item `json:"inventory"`

	tuning Tuning
}

// New places a rested clerk at pos with a full battery and the light on.
func New(pos geom.Vec, tuning Tuning) *Player {
	return &Player{
		Pos:          pos,
		Facing:       math.Pi / 2,
		FacingName:   FacingDown,
		FlashlightOn: true,
		Battery:      meter.New(100),
		Sanity:       meter.New(100),
		tuning:       tuning,
	}
}

// Update moves the player and drains the flashlight.
func (p *Player) Update(dt float64, a ActionState, arena geom.Arena) {
	if dt <= 0 {
		return
	}

	var dir geom.Vec
	if a.Up {
		dir.Y--
	}
	if a.Down {
		dir.Y++
	}
	if a.Left {
		dir.X--
	}
	if a.Right {
		dir.X++
	}

	moved := !dir.IsZero()
	p.Running = a.Run && moved
	if moved {
		speed := p.tuning.BaseSpeed
		if a.Run {
			speed = p.tuning.RunSpeed
		}
		p.Facing = math.Atan2(dir.Y, dir.X)
		p.FacingName = facingName(dir)
		step := dir.Scale(speed * dt / dir.Len())
		p.Pos = arena.Clamp(p.Pos.Add(step), p.tuning.Width/2, p.tuning.Height/2)
	}

	if p.FlashlightOn {
		p.Battery.Drain(p.tuning.BatteryDrain * dt)
		if p.Battery.Empty() {
			p.FlashlightOn = false
		}
	}
}

func facingName(dir geom.Vec) string {
	switch {
	case dir.X > 0:
		return FacingRight
	case dir.X < 0:
		return FacingLeft
	case dir.Y < 0:
		return FacingUp
	default:
		return FacingDown
	}
}

// ToggleFlashlight flips the light and returns the new state. A dead battery
// keeps it off.
func (p *Player) ToggleFlashlight() bool {
	if p.FlashlightOn {
		p.FlashlightOn = false
		return false
	}
	if p.Battery.Empty() {
		return false
	}
	p.FlashlightOn = true
	return true
}

// RestoreSanity implements part of item.EffectTarget.
func (p *Player) RestoreSanity(amount float64) float64 { return p.Sanity.Restore(amount) }

// RestoreBattery implements part of item.EffectTarget.
func (p *Player) RestoreBattery(amount float64) float64 { return p.Battery.Restore(amount) }

// DrainSanity lowers sanity and returns the amount lost.
func (p *Player) DrainSanity(amount float64) float64 { return p.Sanity.Drain(amount) }

// TryPickupItem collects the nearest loose item within reach. Passive items
// apply their effect to target and leave the inventory again; tools stay.
func (p *Player) TryPickupItem(items []*item.Item, target item.EffectTarget) (*item.Item, bool) {
	var nearest *item.Item
	best := p.tuning.PickupRadius
	for _, it := range items {
		if it.Collected {
			continue
		}
		d := geom.Distance(p.Pos, it.Pos)
		if d > p.tuning.PickupRadius {
			continue
		}
		if nearest == nil || d < best {
			nearest, best = it, d
		}
	}
	if nearest == nil {
		return nil, false
	}

	got, ok := nearest.Collect()
	if !ok {
		return nil, false
	}
	p.Inventory = append(p.Inventory, got)
	if got.Passive() {
		got.ApplyEffect(target)
		p.removeLast(got)
	}
	return got, true
}

func (p *Player) removeLast(it *item.Item) {
	for i := len(p.Inventory) - 1; i >= 0; i-- {
		if p.Inventory[i] == it {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return
		}
	}
}

// HasItem reports whether at least one item of type t is held.
func (p *Player) HasItem(t item.Type) bool {
	return p.Count(t) > 0
}

// Count returns how many items of type t are held.
func (p *Player) Count(t item.Type) int {
	n := 0
	for _, it := range p.Inventory {
		if it.Type == t {
			n++
		}
	}
	return n
}

// UseItem removes exactly one item of type t. It reports false if none is
// held.
func (p *Player) UseItem(t item.Type) bool {
	_, ok := p.TakeItem(t)
	return ok
}

// TakeItem removes and returns the first held item of type t.
func (p *Player) TakeItem(t item.Type) (*item.Item, bool) {
	for i, it := range p.Inventory {
		if it.Type == t {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return it, true
		}
	}
	return nil, false
}
