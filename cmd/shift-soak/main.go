// Package main - shift-soak
// Plays many headless shifts with a scripted clerk and fails when any of
// them breaks a simulation invariant.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
	"github.com/nightcrew/lastshift/internal/soak"
)

func main() {
	preset := flag.String("preset", config.PresetStandard, "prototype, standard or nightmare")
	shifts := flag.Int("shifts", 20, "Number of shifts to play")
	concurrency := flag.Int("concurrency", 4, "Shifts played at once")
	seed := flag.Int64("seed", 1, "Base seed; shift i uses seed+i")
	timeScale := flag.Float64("time-scale", 0, "Override clock hours per second (0 keeps the preset)")
	idle := flag.Bool("idle", false, "Use a clerk that never moves")
	output := flag.String("out", "", "Write the JSON report here")
	verbose := flag.Bool("v", false, "Log soak progress")
	flag.Parse()

	cfg, err := config.ForPreset(*preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *timeScale > 0 {
		cfg.Game.Clock.TimeScale = *timeScale
	}

	log := logger.Nop()
	if *verbose {
		log = logger.New(logger.Options{Output: os.Stderr, Level: "info"})
	}
	opts := soak.Options{
		Shifts:      *shifts,
		Concurrency: *concurrency,
		Settings:    cfg.Game,
		Seed:        *seed,
		Logger:      log,
	}
	if *idle {
		opts.NewPolicy = func() soak.Policy { return soak.Idle{} }
	}

	fmt.Println("LAST SHIFT - SOAK")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Preset %s, %d shifts, %d at a time, seed %d\n", cfg.Preset, *shifts, *concurrency, *seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := soak.Run(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "soak:", err)
		os.Exit(1)
	}

	printReport(rep)
	if *output != "" {
		data, _ := json.MarshalIndent(rep, "", "  ")
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "write report:", err)
		}
	}

	if len(rep.Violations()) > 0 {
		os.Exit(1)
	}
}

func printReport(rep soak.Report) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Shifts:   %d won, %d lost\n", rep.Wins, rep.Losses)
	for _, reason := range rep.ReasonsByCount() {
		fmt.Printf("          %dx %s\n", rep.Reasons[reason], reason)
	}
	fmt.Printf("Frames:   %s simulated (%s journal entries)\n", humanize.Comma(rep.Frames), humanize.Comma(int64(rep.Events)))
	fmt.Printf("Score:    best %s, mean %.1f\n", humanize.Comma(int64(rep.Best)), rep.Mean)
	fps := float64(rep.Frames) / rep.Elapsed.Seconds()
	fmt.Printf("Speed:    %s frames/s in %s\n", humanize.SIWithDigits(fps, 1, ""), rep.Elapsed.Round(time.Millisecond))

	violations := rep.Violations()
	fmt.Println(strings.Repeat("-", 60))
	if len(violations) == 0 {
		fmt.Println("PASSED: every invariant held")
		return
	}
	fmt.Printf("FAILED: %d violations\n", len(violations))
	for _, v := range violations {
		fmt.Println("  " + v.String())
	}
}
