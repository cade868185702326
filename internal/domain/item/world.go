package item

import (
	"math"

	"github.com/nightcrew/lastshift/internal/domain/geom"
)

const (
	// DriftDecay is the velocity kept per 60 Hz reference frame.
	DriftDecay = 0.95
	// DriftEpsilon snaps a velocity component to zero (units per second).
	DriftEpsilon = 6.0
	referenceFPS = 60.0
)

// EffectTarget receives the passive effect of a picked-up item.
type EffectTarget interface {
	RestoreSanity(amount float64) float64
	RestoreBattery(amount float64) float64
	RepairStore(amount float64) float64
}

// Item is a pickup lying on the store floor. Once collected it belongs to the
// player's inventory and never returns to the floor.
type Item struct {
	ID        int        `json:"id"`
	Type      Type       `json:"type"`
	Pos       geom.Vec   `json:"pos"`
	Velocity  geom.Vec   `json:"velocity"`
	Collected bool       `json:"collected"`
	Def       Definition `json:"-"`
}

// New places an item of type t at pos using the catalog definition.
func New(id int, t Type, pos geom.Vec, catalog Catalog) *Item {
	def, _ := catalog.Get(t)
	return &Item{ID: id, Type: t, Pos: pos, Def: def}
}

// Name is the display name of the item.
func (it *Item) Name() string {
	if it.Def.Name != "" {
		return it.Def.Name
	}
	return it.Type.Name()
}

// Update applies drift and decays it toward zero.
func (it *Item) Update(dt float64) {
	if it.Collected || it.Velocity.IsZero() || dt <= 0 {
		return
	}
	it.Pos = it.Pos.Add(it.Velocity.Scale(dt))

	decay := math.Pow(DriftDecay, dt*referenceFPS)
	it.Velocity = it.Velocity.Scale(decay)
	if math.Abs(it.Velocity.X) < DriftEpsilon {
		it.Velocity.X = 0
	}
	if math.Abs(it.Velocity.Y) < DriftEpsilon {
		it.Velocity.Y = 0
	}
}

// Knock pushes a loose item.
func (it *Item) Knock(v geom.Vec) {
	if it.Collected {
		return
	}
	it.Velocity = it.Velocity.Add(v)
}

// Collect marks the item as taken. It fails if the item was already collected.
func (it *Item) Collect() (*Item, bool) {
	if it.Collected {
		return nil, false
	}
	it.Collected = true
	it.Velocity = geom.Vec{}
	return it, true
}

// Passive reports whether picking the item up consumes it immediately.
func (it *Item) Passive() bool { return it.Def.Passive() }

// ApplyEffect applies the pickup effect and returns the amount that landed.
func (it *Item) ApplyEffect(target EffectTarget) float64 {
	return Apply(it.Def.Effect, target)
}

// Apply dispatches an effect onto target.
func Apply(e Effect, target EffectTarget) float64 {
	switch e.Kind {
	case EffectSanity:
		return target.RestoreSanity(e.Amount)
	case EffectBattery:
		return target.RestoreBattery(e.Amount)
	case EffectIntegrity:
		return target.RepairStore(e.Amount)
	case EffectNone:
		return 0
	}
	return 0
}
