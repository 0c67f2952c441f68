package store

import (
	"context"
	"fmt"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
)

// Storages groups all server-side repositories into a single value that can
// be passed around the service layer.
type Storages struct {
	// RecordRepository is the PostgreSQL-backed repository for encrypted
	// compensation records.
	RecordRepository RecordRepository
}

// NewStorages initialises the server storage layer: it connects to
// PostgreSQL, runs pending schema migrations, and wires the repositories.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		RecordRepository: NewRecordRepository(db, log),
	}, nil
}
