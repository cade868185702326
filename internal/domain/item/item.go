// Package item defines the pickups scattered around the store floor.
// This package is PURE and must NOT import any infrastructure packages.
package item

import "fmt"

// Type represents the kind of item.
type Type string

const (
	TypeSoda    Type = "soda"    // Sparkle-Cola, restores sanity
	TypeBattery Type = "battery" // Flashlight battery
	TypeTape    Type = "tape"    // Duct tape, repairs the store
	TypeScanner Type = "scanner" // Price scanner, tool
	TypeAirhorn Type = "airhorn" // Air horn, tool
	TypeCleaner Type = "cleaner" // Spray cleaner, tool
	TypePlush   Type = "plush"   // Plush toy for the lost child
	TypeJerky   Type = "jerky"   // Break-room snack
)

// EffectKind is the closed set of passive pickup effects.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectSanity
	EffectBattery
	EffectIntegrity
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectSanity:
		return "sanity"
	case EffectBattery:
		return "battery"
	case EffectIntegrity:
		return "integrity"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is what happens when an item is picked up.
type Effect struct {
	Kind   EffectKind
	Amount float64
}

// Definition provides metadata about an item type.
// Items with a passive Effect are consumed on pickup; everything else stays
// in the inventory until a tool action or Use spends it.
type Definition struct {
	Name   string
	Color  string // hint for renderers
	Effect Effect // applied on pickup
	Use    Effect // applied when eaten or used from the inventory
}

// Passive reports whether the item is consumed the moment it is picked up.
func (d Definition) Passive() bool { return d.Effect.Kind != EffectNone }

// Registry contains all known items and their properties.
var Registry = map[Type]Definition{
	TypeSoda: {
		Name:   "Sparkle-Cola",
		Color:  "#ff5555",
		Effect: Effect{Kind: EffectSanity, Amount: 30},
	},
	TypeBattery: {
		Name:   "Battery",
		Color:  "#ffff55",
		Effect: Effect{Kind: EffectBattery, Amount: 50},
	},
	TypeTape: {
		Name:   "Duct Tape",
		Color:  "#888888",
		Effect: Effect{Kind: EffectNone},
		Use:    Effect{Kind: EffectIntegrity, Amount: 15},
	},
	TypeScanner: {
		Name:   "Price Scanner",
		Color:  "#55ffff",
		Effect: Effect{Kind: EffectNone},
	},
	TypeAirhorn: {
		Name:   "Air Horn",
		Color:  "#ff8800",
		Effect: Effect{Kind: EffectNone},
	},
	TypeCleaner: {
		Name:   "Spray Cleaner",
		Color:  "#55ff55",
		Effect: Effect{Kind: EffectNone},
	},
	TypePlush: {
		Name:   "Plush Bear",
		Color:  "#ff88cc",
		Effect: Effect{Kind: EffectNone},
	},
	TypeJerky: {
		Name:   "Beef Jerky",
		Color:  "#aa5533",
		Effect: Effect{Kind: EffectNone},
		Use:    Effect{Kind: EffectSanity, Amount: 10},
	},
}

// Types lists every item type in a stable order.
var Types = []Type{TypeSoda, TypeBattery, TypeTape, TypeScanner, TypeAirhorn, TypeCleaner, TypePlush, TypeJerky}

// Get returns the definition for an item type.
func Get(t Type) (Definition, bool) {
	def, ok := Registry[t]
	return def, ok
}

// Catalog is a per-session copy of the registry that a game variant may tune.
type Catalog map[Type]Definition

// NewCatalog copies the registry. With passiveTape set, duct tape repairs the
// store on pickup instead of being kept as a tool (the prototype rules).
func NewCatalog(passiveTape bool) Catalog {
	c := make(Catalog, len(Registry))
	for t, def := range Registry {
		c[t] = def
	}
	if passiveTape {
		def := c[TypeTape]
		def.Effect = Effect{Kind: EffectIntegrity, Amount: 10}
		c[TypeTape] = def
	}
	return c
}

// Get returns the catalog entry for t, falling back to the registry.
func (c Catalog) Get(t Type) (Definition, bool) {
	if def, ok := c[t]; ok {
		return def, true
	}
	return Get(t)
}

// Name returns the display name, falling back to the raw type.
func (t Type) Name() string {
	if def, ok := Registry[t]; ok {
		return def.Name
	}
	return string(t)
}

// Valid reports whether t is a registered type.
func (t Type) Valid() bool {
	_, ok := Registry[t]
	return ok
}
