package engine

import (
	"math"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/domain/rules"
)

// ClockSettings controls the shift clock.
type ClockSettings struct {
	Start     float64 `yaml:"start"`
	ShiftEnd  float64 `yaml:"shift_end"`
	Window    float64 `yaml:"window"`     // width of the shift-end window in hours
	TimeScale float64 `yaml:"time_scale"` // game hours per real second
}

// SpawnSettings describes what is on the floor when the shift starts.
type SpawnSettings struct {
	Items       int         `yaml:"items"`
	ItemPool    []item.Type `yaml:"item_pool"`
	Plush       bool        `yaml:"plush"`
	Gatherers   int         `yaml:"gatherers"`
	Tappers     int         `yaml:"tappers"`
	LostChild   bool        `yaml:"lost_child"`
	ItemMargin  float64     `yaml:"item_margin"`
	PlayerStart geom.Vec    `yaml:"player_start"`
}

// ToolSettings tunes the tool actions.
type ToolSettings struct {
	AirhornStunRadius  float64       `yaml:"airhorn_stun_radius"`
	AirhornPullRadius  float64       `yaml:"airhorn_pull_radius"`
	AirhornStun        time.Duration `yaml:"airhorn_stun"`
	AirhornKnockRadius float64       `yaml:"airhorn_knock_radius"`
	AirhornKnockSpeed  float64       `yaml:"airhorn_knock_speed"`
	CleanerRange       float64       `yaml:"cleaner_range"`
	CleanerHalfAngle   float64       `yaml:"cleaner_half_angle"` // degrees
	CleanerBlind       time.Duration `yaml:"cleaner_blind"`
	CleanerLureRange   float64       `yaml:"cleaner_lure_range"`
	CleanerSanity      float64       `yaml:"cleaner_sanity"`
	TapeIntegrity      float64       `yaml:"tape_integrity"`
	BarricadeIntegrity float64       `yaml:"barricade_integrity"`
	BarricadeCooldown  time.Duration `yaml:"barricade_cooldown"`
}

// HalfAngleRadians converts the configured cone to radians.
func (t ToolSettings) HalfAngleRadians() float64 {
	return t.CleanerHalfAngle * math.Pi / 180
}

// HazardSettings covers store damage and auditor visits.
type HazardSettings struct {
	WindowBreakRate    float64 `yaml:"window_break_rate"`    // per tapping tapper per second
	AuditorBaseRate    float64 `yaml:"auditor_base_rate"`    // per second
	AuditorStressRate  float64 `yaml:"auditor_stress_rate"`  // per second when the store is hurting
	AuditorStressBelow float64 `yaml:"auditor_stress_below"` // integrity
	StoreWearChance    float64 `yaml:"store_wear_chance"`    // per 60 Hz frame
	StoreWearAmount    float64 `yaml:"store_wear_amount"`
	PlushRange         float64 `yaml:"plush_range"`
	ChildCalmSanity    float64 `yaml:"child_calm_sanity"`
}

// ScheduleSettings drives the scripted hours.
type ScheduleSettings struct {
	ReinforcementHour  float64 `yaml:"reinforcement_hour"`
	DreadHour          float64 `yaml:"dread_hour"`
	DreadSanity        float64 `yaml:"dread_sanity"`
	ChatterRate        float64 `yaml:"chatter_rate"` // PA chatter per second
	DirectivesPerShift int     `yaml:"directives_per_shift"`
}

// Settings is everything a session needs to run one shift.
type Settings struct {
	Arena        geom.Arena       `yaml:"arena"`
	Clock        ClockSettings    `yaml:"clock"`
	AmbientLight float64          `yaml:"ambient_light"`
	PassiveTape  bool             `yaml:"passive_tape"`
	Night        int              `yaml:"night"`
	Player       player.Tuning    `yaml:"player"`
	Entities     entity.Tuning    `yaml:"entities"`
	Drains       rules.DrainRates `yaml:"drains"`
	Spawn        SpawnSettings    `yaml:"spawn"`
	Tools        ToolSettings     `yaml:"tools"`
	Hazards      HazardSettings   `yaml:"hazards"`
	Schedule     ScheduleSettings `yaml:"schedule"`
	MessageLimit int              `yaml:"message_limit"`
}

// DefaultSettings is the full Mega-Mart night: tools, tappers at the
// windows and a lost child somewhere in the back.
func DefaultSettings() Settings {
	return Settings{
		Arena: geom.DefaultArena,
		Clock: ClockSettings{
			Start:     22.0,
			ShiftEnd:  6.0,
			Window:    0.1,
			TimeScale: 0.06,
		},
		AmbientLight: 0.1,
		Night:        1,
		Player:       player.DefaultTuning(),
		Entities:     entity.DefaultTuning(),
		Drains:       rules.DefaultDrainRates(),
		Spawn: SpawnSettings{
			Items: 20,
			ItemPool: []item.Type{
				item.TypeSoda, item.TypeBattery, item.TypeTape, item.TypeScanner,
				item.TypeAirhorn, item.TypeCleaner, item.TypeJerky,
			},
			Plush:       true,
			Gatherers:   2,
			Tappers:     3,
			LostChild:   true,
			ItemMargin:  50,
			PlayerStart: geom.Vec{X: 400, Y: 300},
		},
		Tools: ToolSettings{
			AirhornStunRadius:  150,
			AirhornPullRadius:  400,
			AirhornStun:        3 * time.Second,
			AirhornKnockRadius: 150,
			AirhornKnockSpeed:  180,
			CleanerRange:       100,
			CleanerHalfAngle:   45,
			CleanerBlind:       5 * time.Second,
			CleanerLureRange:   250,
			CleanerSanity:      5,
			TapeIntegrity:      15,
			BarricadeIntegrity: 5,
			BarricadeCooldown:  2 * time.Second,
		},
		Hazards: HazardSettings{
			WindowBreakRate:    0.02,
			AuditorBaseRate:    0.002,
			AuditorStressRate:  0.02,
			AuditorStressBelow: 40,
			PlushRange:         40,
			ChildCalmSanity:    20,
		},
		Schedule: ScheduleSettings{
			ReinforcementHour:  0,
			DreadHour:          3,
			DreadSanity:        10,
			ChatterRate:        0.01,
			DirectivesPerShift: 3,
		},
		MessageLimit: 6,
	}
}
