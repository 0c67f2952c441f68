package service

import (
	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/crypto"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
)

// ClientServices aggregates the agent-side service layer.
type ClientServices struct {
	Records   LocalRecordService
	Sync      SyncEngine
	SyncJob   SyncJob
	Lifecycle LifecycleMonitor
}

// NewClientServices wires the agent services on top of the local storage
// layer and the server adapter. cfg is the agent's validated runtime view
// obtained from [config.GetAgentConfig].
func NewClientServices(storages *store.ClientStorages, remote adapter.ServerAdapter, b *bus.Bus, cfg *config.AgentConfig, logger *logger.Logger) *ClientServices {
	cipher := crypto.NewCipherService(crypto.Params{
		Time:      cfg.Crypto.ArgonTime,
		MemoryKiB: cfg.Crypto.ArgonMemoryKiB,
		Threads:   cfg.Crypto.ArgonThreads,
	})

	engine := NewSyncEngine(storages, remote, b, cfg, logger)

	return &ClientServices{
		Records:   NewLocalRecordService(storages.RecordRepository, cipher, cfg, logger),
		Sync:      engine,
		SyncJob:   NewSyncJob(engine),
		Lifecycle: NewLifecycleMonitor(engine, cfg.Lifecycle, cfg.Sync.OnlineDebounce, logger),
	}
}
