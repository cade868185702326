// Package main is the entry point for the hosted shift server.
// It only handles dependency injection and server initialization.
// NO simulation logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/infra/storage"
	"github.com/nightcrew/lastshift/internal/network"
	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
	"github.com/nightcrew/lastshift/internal/platform/metrics"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	out := io.Writer(os.Stdout)
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

	if err := run(cfg, appLogger); err != nil {
		appLogger.Err(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, appLogger *logger.Logger) error {
	appLogger.Info(fmt.Sprintf("Initializing Last Shift server (preset %s)...", cfg.Preset))
	collector := metrics.Get()

	journalPath := cfg.Journal
	if journalPath == "" {
		journalPath = storage.MemoryPath
	}
	appLogger.Info("Initializing SQLite journal " + journalPath)
	db, err := storage.InitSQLite(journalPath)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()
	if journalPath != storage.MemoryPath && cfg.Runtime.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Runtime.DBMaxOpenConns)
	}
	journalRepo := storage.NewSQLiteJournalRepository(db)
	shiftRepo := storage.NewSQLiteShiftRepository(db)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewBufferedEventLog(storage.NewJournal(journalRepo, collector), cfg.Runtime.JournalBuffer)
	eventLog.OnPersistError(func(e events.GameEvent, err error) {
		appLogger.Err(err, "Journal write failed for "+string(e.Type))
	})
	defer eventLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger, collector)

	host := &shiftHost{
		cfg:      cfg,
		eventLog: eventLog,
		shifts:   shiftRepo,
		hub:      hub,
		metrics:  collector,
		logger:   appLogger,
	}

	router := network.NewRouter(network.RouterDeps{
		Hub:     hub,
		Runtime: host,
		Replay:  network.NewReplayHandler(eventLog, storage.NewReconstructor(journalRepo), shiftRepo, appLogger),
		Manager: network.NewManagerBridge(host, hub, appLogger, network.DefaultAnnounceCooldown),
		Metrics: collector,
		Client: network.ClientOptions{
			SendBuffer:           cfg.Runtime.ClientSendBuffer,
			MaxMessagesPerSecond: cfg.Runtime.MaxMessagesPerSecond,
		},
		MaxClients: cfg.Runtime.MaxClients,
		Logger:     appLogger,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	hub.StartEventPoller(gctx, eventLog, 100*time.Millisecond)

	g.Go(func() error {
		return host.Run(gctx)
	})

	g.Go(func() error {
		appLogger.Info("HTTP API & WS Server listening on " + cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Tuning hints from live metrics.
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				for _, note := range config.Analyze(collector.Snapshot()).Notes {
					appLogger.Warn(note)
				}
			}
		}
	})

	return g.Wait()
}
