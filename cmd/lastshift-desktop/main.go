// Package main runs a shift in a desktop window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nightcrew/lastshift/internal/audio"
	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	preset := flag.String("preset", "", "prototype, standard or nightmare (overrides the config)")
	mute := flag.Bool("mute", false, "Disable audio")
	flag.Parse()

	if *preset != "" {
		os.Setenv(config.EnvPreset, *preset)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	out := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer f.Close()
		out = f
	}
	appLogger := logger.New(logger.Options{Output: out, Level: cfg.LogLevel, JSON: cfg.LogJSON})

	var sound sounder
	if cfg.Audio && !*mute {
		sm := audio.NewSoundManager(0.5)
		if err := sm.Initialize(); err != nil {
			appLogger.Err(err, "Audio unavailable, playing silent")
		} else {
			defer sm.Close()
			sound = sm
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	game := NewGame(cfg, seed, sound, appLogger)

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("The Last Shift")
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		appLogger.Err(err, "Game stopped with error")
		os.Exit(1)
	}
}
