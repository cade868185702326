// Package main runs a shift in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nightcrew/lastshift/internal/audio"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/infra/storage"
	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
	"github.com/nightcrew/lastshift/internal/terminal"
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
	if *mute {
		cfg.Audio = false
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "lastshift:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	// The screen owns stdout, so logs only go to a file.
	out := io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	appLogger := logger.New(logger.Options{Output: out, Level: cfg.LogLevel, JSON: cfg.LogJSON})

	db, err := storage.InitSQLite(cfg.Journal)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()
	journalRepo := storage.NewSQLiteJournalRepository(db)
	shiftRepo := storage.NewSQLiteShiftRepository(db)

	var sound terminal.Sounder
	if cfg.Audio {
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
	var (
		night     = cfg.Game.Night
		lastShift string
	)
	factory := func() (terminal.Shift, error) {
		settings := cfg.Game
		settings.Night = night
		eventLog := events.NewBufferedEventLog(storage.NewJournal(journalRepo, nil), cfg.Runtime.JournalBuffer)
		eventLog.OnPersistError(func(e events.GameEvent, err error) {
			appLogger.Err(err, "Journal write failed for "+string(e.Type))
		})
		s := engine.NewSession(settings, engine.Deps{
			EventLog: eventLog,
			Logger:   appLogger,
			Rand:     rand.New(rand.NewSource(seed + int64(night))),
		})
		record := storage.ShiftRecord{
			SessionID: s.ID,
			Preset:    cfg.Preset,
			Night:     night,
			StartedAt: time.Now(),
			Outcome:   storage.OutcomeInProgress,
		}
		if err := shiftRepo.Upsert(context.Background(), record); err != nil {
			appLogger.Err(err, "Failed to record shift start")
		}
		lastShift = s.ID
		night++

		runner := engine.NewRunner(s, appLogger, engine.RunnerOptions{CommandBuffer: cfg.Runtime.CommandBuffer})
		closeShift := func() {
			eventLog.Close()
			st := s.State()
			if !s.Terminal() {
				return
			}
			ended := time.Now()
			record.EndedAt = &ended
			record.Reason = st.Reason
			record.Score = st.Score
			record.Outcome = storage.OutcomeLoss
			if st.Win {
				record.Outcome = storage.OutcomeWin
			}
			if err := shiftRepo.Upsert(context.Background(), record); err != nil {
				appLogger.Err(err, "Failed to record shift end")
			}
		}
		return terminal.Shift{Runner: runner, Events: eventLog, Close: closeShift}, nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	runErr := terminal.NewApp(screen, factory, sound, appLogger).Run(ctx)
	screen.Fini()
	if runErr != nil && runErr != context.Canceled {
		return runErr
	}

	if lastShift != "" {
		rep, err := storage.NewReconstructor(journalRepo).BuildReport(context.Background(), lastShift)
		if err != nil {
			appLogger.Err(err, "No report for the last shift")
			return nil
		}
		fmt.Println(rep.Summary())
	}
	return nil
}
