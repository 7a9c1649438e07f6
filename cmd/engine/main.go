// Package main is the entry point for the trading engine: it wires the
// ledger, feature store, feature graph, order books, execution strategy,
// simulated executor, and read-only HTTP API into one running process, then
// blocks until it receives a shutdown signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/archive"
	"github.com/arkinlabs/engine/internal/config"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/execstrategy"
	"github.com/arkinlabs/engine/internal/executor"
	"github.com/arkinlabs/engine/internal/featuregraph"
	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/internal/ledger"
	"github.com/arkinlabs/engine/internal/ledgerstore"
	"github.com/arkinlabs/engine/internal/orderbook"
	"github.com/arkinlabs/engine/internal/pipeline"
	"github.com/arkinlabs/engine/internal/registry"
	"github.com/arkinlabs/engine/internal/scheduler"
	"github.com/arkinlabs/engine/internal/server"
	"github.com/arkinlabs/engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting engine")

	bus := events.NewBus(log)
	mgr := events.NewManager(bus, log)

	ledgerStore, err := ledgerstore.Open(filepath.Join(cfg.DataDir, "ledger.db"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledger store")
	}
	defer ledgerStore.Close()

	led := ledger.New(mgr, log)
	features := featurestore.New(cfg.FeatureStore.GridInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.New(newStaticReader(), log)
	if err := reg.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial registry refresh failed")
	}

	graph, err := featuregraph.Build(buildFeatureNodes(reg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build feature graph")
	}
	pipelineRunner := pipeline.New(graph, features, cfg.FeatureStore.GridInterval, cfg.Graph.WarmupSteps, mgr, log)

	// pipelineRunner must already be subscribed before backfill replays
	// history through the bus, or the replayed events have no subscriber
	// and are dropped.
	go pipelineRunner.Run(ctx, bus)

	tradingIDs := make([]uuid.UUID, 0)
	for _, i := range tradingInstruments(reg) {
		tradingIDs = append(tradingIDs, i.ID)
	}
	backfillFeatureStore(ctx, reg, mgr, log, tradingIDs, cfg.FeatureStore.RetentionWindow)

	venueBook := orderbook.NewVenueBook(mgr, log)
	execBook := orderbook.NewExecBook(venueBook, mgr, log)
	strategy := execstrategy.NewTaker(execBook, venueBook, bus, mgr, log)
	exec := executor.New(bus, mgr, cfg.Executor.CommissionRate, log)

	sched := scheduler.New(log)
	insightsSchedule := fmt.Sprintf("@every %s", cfg.Scheduler.InsightsTickInterval)
	if err := sched.AddJob(insightsSchedule, scheduler.NewInsightsTickJob(mgr)); err != nil {
		log.Fatal().Err(err).Msg("failed to register insights tick job")
	}
	reconcileJob := scheduler.NewLedgerReconcileJob(ledgerStore, led.AccountCount, log)
	if err := sched.AddJob(cfg.Scheduler.LedgerReconcileCron, reconcileJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register ledger reconcile job")
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver, err = archive.New(context.Background(), cfg.Archive, led, features, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize archiver")
		}
	}

	srv := server.New(server.Config{Port: cfg.Port, DevMode: cfg.DevMode}, led, features, bus, log)

	go ledgerStore.Run(ctx, bus)
	go strategy.Run(ctx)
	go exec.Run(ctx)

	if archiver != nil {
		go archiver.Run(ctx, cfg.Archive.Interval)
		log.Info().Str("bucket", cfg.Archive.Bucket).Dur("interval", cfg.Archive.Interval).Msg("archiver started")
	}

	sched.Start()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := srv.Start(addr); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("engine started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("engine stopped")
}
