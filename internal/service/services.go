package service

import (
	"context"

	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
)

// Services aggregates the server-side service layer.
type Services struct {
	Tokens    TokenParser
	Reconcile ReconcileService
	Records   RecordService
	Emergency EmergencySyncService
	Alerts    AlertService
}

// NewServices wires the server services on top of the storage layer. ctx
// bounds the lifetime of background goroutines (the emergency drain).
func NewServices(ctx context.Context, storages store.Storages, cfg config.StructuredConfig, b *bus.Bus, logger *logger.Logger) *Services {
	alerts := NewAlertService(cfg.Alerts, b, logger)
	reconcile := NewReconcileService(storages.RecordRepository, alerts, cfg.Reconcile, logger)

	return &Services{
		Tokens:    NewTokenService(cfg.Auth, logger),
		Reconcile: reconcile,
		Records:   NewRecordService(storages.RecordRepository, logger),
		Emergency: NewEmergencySyncService(ctx, reconcile, cfg.Server, logger),
		Alerts:    alerts,
	}
}
