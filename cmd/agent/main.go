package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/service"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/internal/workers"
	"github.com/compvault/compvault/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("compvault-agent")
	cfg, err := config.GetAgentConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	// once the log path is known, switch to the rotating file logger
	log = logger.NewAgentLogger("compvault-agent", cfg.LogPath)
	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	storages, err := store.NewClientStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	remote := adapter.NewHTTPServerAdapter(adapter.HTTPClientConfig{
		BaseURL: cfg.Adapter.HTTPAddress,
		Timeout: cfg.Adapter.RequestTimeout,
	})
	remote.SetToken(cfg.Token)

	eventBus := bus.New(log)
	services := service.NewClientServices(storages, remote, eventBus, cfg, log)

	workers.NewWorkers(
		workers.NewFlushAgent(ctx, storages.FlushQueue, remote, eventBus, cfg.Flush, log),
	).Run()

	services.SyncJob.Start(ctx, cfg.Sync.Interval)

	// kick an immediate cycle so a queue left over from the previous run
	// drains without waiting a full interval
	services.Lifecycle.Trigger(ctx, models.TriggerManual)

	<-ctx.Done()

	log.Info().Msg("shutdown signal received")

	services.SyncJob.Stop()
	services.Lifecycle.Stop()

	// last chance to hand the pending queue to the server
	services.Lifecycle.RequestEmergencySync(context.Background())

	log.Info().Msg("agent stopped")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
