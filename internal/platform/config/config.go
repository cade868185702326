// Package config loads the server and game tuning for a shift.
//
// Values come from, in increasing priority: the preset, the YAML file, the
// .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/engine"
)

// Preset names.
const (
	PresetPrototype = "prototype"
	PresetStandard  = "standard"
	PresetNightmare = "nightmare"
)

// Environment variables read by Load.
const (
	EnvPreset   = "LASTSHIFT_PRESET"
	EnvAddr     = "LASTSHIFT_ADDR"
	EnvJournal  = "LASTSHIFT_JOURNAL"
	EnvLogLevel = "LASTSHIFT_LOG_LEVEL"
	EnvSeed     = "LASTSHIFT_SEED"
)

// ErrUnknownPreset is returned for a preset name that is not defined.
var ErrUnknownPreset = errors.New("config: unknown preset")

// Config is everything a binary needs to host a shift.
type Config struct {
	Preset   string          `yaml:"preset"`
	Addr     string          `yaml:"addr"`
	Journal  string          `yaml:"journal"` // SQLite path, empty keeps the journal in memory
	LogLevel string          `yaml:"log_level"`
	LogJSON  bool            `yaml:"log_json"`
	LogFile  string          `yaml:"log_file"`
	Seed     int64           `yaml:"seed"` // 0 seeds from the clock
	Audio    bool            `yaml:"audio"`
	Game     engine.Settings `yaml:"game"`
	Runtime  Runtime         `yaml:"runtime"`
}

// Prototype is the first playable build: a small store, passive tape and
// slow wear on the building.
func Prototype() Config {
	c := base(PresetPrototype)
	g := &c.Game
	g.PassiveTape = true
	g.Spawn.Items = 15
	g.Spawn.ItemPool = []item.Type{item.TypeSoda, item.TypeBattery, item.TypeTape}
	g.Spawn.Plush = false
	g.Spawn.Gatherers = 2
	g.Spawn.Tappers = 1
	g.Spawn.LostChild = false
	g.Hazards.AuditorBaseRate = 0
	g.Hazards.AuditorStressRate = 0
	g.Hazards.StoreWearChance = 0.005
	g.Hazards.StoreWearAmount = 1
	g.Schedule.DirectivesPerShift = 0
	return c
}

// Standard is the full game.
func Standard() Config {
	return base(PresetStandard)
}

// Nightmare crowds the store and darkens it.
func Nightmare() Config {
	c := base(PresetNightmare)
	g := &c.Game
	g.AmbientLight = 0.05
	g.Spawn.Items = 12
	g.Spawn.Gatherers = 4
	g.Spawn.Tappers = 4
	g.Hazards.WindowBreakRate = 0.05
	g.Hazards.AuditorBaseRate = 0.006
	g.Hazards.AuditorStressRate = 0.05
	g.Hazards.AuditorStressBelow = 60
	g.Schedule.ChatterRate = 0.03
	g.Schedule.DirectivesPerShift = 5
	return c
}

func base(preset string) Config {
	return Config{
		Preset:   preset,
		Addr:     ":8080",
		LogLevel: "info",
		Audio:    true,
		Game:     engine.DefaultSettings(),
		Runtime:  DefaultRuntime(),
	}
}

// ForPreset returns the named preset.
func ForPreset(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetPrototype:
		return Prototype(), nil
	case PresetStandard, "":
		return Standard(), nil
	case PresetNightmare:
		return Nightmare(), nil
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Load builds the configuration. path may be empty to skip the YAML file.
// A missing .env file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		data = b
	}
	return parse(data, os.LookupEnv)
}

// parse applies the preset, the YAML document and then the environment.
func parse(data []byte, lookup func(string) (string, bool)) (Config, error) {
	var probe struct {
		Preset string `yaml:"preset"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	preset := probe.Preset
	if v, ok := lookup(EnvPreset); ok && v != "" {
		preset = v
	}

	cfg, err := ForPreset(preset)
	if err != nil {
		return Config{}, err
	}
	name := cfg.Preset
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
		cfg.Preset = name
	}

	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(EnvJournal); ok {
		cfg.Journal = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects tuning the simulation cannot run with.
func (c Config) Validate() error {
	g := c.Game
	var problems []string
	if g.Arena.Width <= 0 || g.Arena.Height <= 0 {
		problems = append(problems, "arena must have a positive size")
	}
	if !validHour(g.Clock.Start) || !validHour(g.Clock.ShiftEnd) {
		problems = append(problems, "clock hours must be in [0, 24)")
	}
	if g.Clock.TimeScale <= 0 {
		problems = append(problems, "clock time_scale must be positive")
	}
	if g.Clock.Window <= 0 {
		problems = append(problems, "clock window must be positive")
	}
	if g.Spawn.Items > 0 && len(g.Spawn.ItemPool) == 0 {
		problems = append(problems, "spawn item_pool is empty")
	}
	for _, t := range g.Spawn.ItemPool {
		if _, ok := item.Registry[t]; !ok {
			problems = append(problems, fmt.Sprintf("unknown item type %q", t))
		}
	}
	if g.Spawn.Items < 0 || g.Spawn.Gatherers < 0 || g.Spawn.Tappers < 0 {
		problems = append(problems, "spawn counts cannot be negative")
	}
	if g.MessageLimit <= 0 {
		problems = append(problems, "message_limit must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q: %v", c.LogLevel, err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validHour(h float64) bool {
	return h >= 0 && h < 24
}
