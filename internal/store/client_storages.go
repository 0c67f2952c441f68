package store

import (
	"context"
	"fmt"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
)

// ClientStorages groups all on-device repositories into a single value that
// can be passed around the agent's service layer.
type ClientStorages struct {
	// RecordRepository is the SQLite-backed repository for encrypted
	// compensation records stored locally on the device.
	RecordRepository LocalRecordRepository

	// PendingQueue is the durable FIFO queue of sync intents.
	PendingQueue PendingQueueRepository

	// FlushQueue is the durable queue backing the background flush agent.
	FlushQueue FlushQueueRepository
}

// NewClientStorages initialises the on-device storage layer: it opens the
// SQLite database (creating the file if needed), bootstraps the schema, and
// wires the repositories. All three repositories share one connection, so
// the record and pending-queue writes can participate in one transaction.
func NewClientStorages(cfg config.AgentStorage, log *logger.Logger) (*ClientStorages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	return &ClientStorages{
		RecordRepository: NewLocalRecordRepository(db, log),
		PendingQueue:     NewPendingQueueRepository(db, log),
		FlushQueue:       NewFlushQueueRepository(db, log),
	}, nil
}
