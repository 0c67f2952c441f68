package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/models"
)

// spySyncEngine counts Sync calls.
type spySyncEngine struct {
	calls atomic.Int64
}

func (s *spySyncEngine) Sync(_ context.Context) error {
	s.calls.Add(1)
	return nil
}

func (s *spySyncEngine) EmergencyFlush(_ context.Context) error { return nil }
func (s *spySyncEngine) SetOnline(_ bool)                       {}
func (s *spySyncEngine) SetVisible(_ bool)                      {}
func (s *spySyncEngine) State() models.SyncState                { return models.SyncState{} }

func TestSyncJob_Start_CallsSyncPeriodically(t *testing.T) {
	spy := &spySyncEngine{}
	job := NewSyncJob(spy)

	// 10ms interval: ~5 ticks in 55ms
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "Sync should have fired several times, got %d", got)
}

func TestSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spySyncEngine{}
	job := NewSyncJob(spy)

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)
	callsLater := spy.calls.Load()

	assert.Equal(t, callsAfterStop, callsLater, "no new cycles after Stop")
}

func TestSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewSyncJob(&spySyncEngine{})
	assert.NotPanics(t, func() { job.Stop() })
}

func TestSyncJob_Restart_ReplacesPreviousJob(t *testing.T) {
	spy := &spySyncEngine{}
	job := NewSyncJob(spy)

	job.Start(context.Background(), time.Hour)
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	job.Stop()

	require.GreaterOrEqual(t, spy.calls.Load(), int64(2))
}

func TestSyncJob_ContextCancelStopsJob(t *testing.T) {
	spy := &spySyncEngine{}
	job := NewSyncJob(spy)

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	cancel()

	time.Sleep(15 * time.Millisecond)
	callsAfterCancel := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, callsAfterCancel, spy.calls.Load())
	job.Stop()
}
