package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

func newTestAlerts(t *testing.T, cfg config.Alerts) (*alertService, *[]models.Event, func(time.Time)) {
	t.Helper()

	log := logger.Nop()
	b := bus.New(log)

	var published []models.Event
	b.Subscribe(func(e models.Event) { published = append(published, e) })

	svc := NewAlertService(cfg, b, log).(*alertService)

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	advance := func(to time.Time) { at = to }

	return svc, &published, advance
}

func TestRecordFailure_BelowThresholdStaysQuiet(t *testing.T) {
	svc, published, _ := newTestAlerts(t, config.Alerts{FailureThreshold: 5})

	for i := 0; i < 4; i++ {
		svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	}

	assert.Empty(t, *published)
}

func TestRecordFailure_ThresholdPublishesAlert(t *testing.T) {
	svc, published, _ := newTestAlerts(t, config.Alerts{FailureThreshold: 5, FailureWindow: 15 * time.Minute})

	for i := 0; i < 5; i++ {
		svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	}

	require.Len(t, *published, 1)
	alert, ok := (*published)[0].(models.ReconcileAlert)
	require.True(t, ok)
	assert.Equal(t, int64(7), alert.UserID)
	assert.Equal(t, models.RecordTypeSalary, alert.Type)
	assert.Equal(t, 5, alert.Failures)
	assert.Equal(t, 15*time.Minute, alert.Window)
}

func TestRecordFailure_CounterResetsAfterAlert(t *testing.T) {
	svc, published, _ := newTestAlerts(t, config.Alerts{FailureThreshold: 3})

	for i := 0; i < 4; i++ {
		svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	}

	// 3 fired one alert, the 4th starts a fresh burst
	assert.Len(t, *published, 1)
}

func TestRecordFailure_OldFailuresPrunedFromWindow(t *testing.T) {
	svc, published, advance := newTestAlerts(t, config.Alerts{FailureThreshold: 3, FailureWindow: 15 * time.Minute})

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)

	// the earlier pair ages out of the trailing window
	advance(base.Add(16 * time.Minute))
	svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)

	assert.Empty(t, *published)
}

func TestRecordFailure_KeysAreIndependent(t *testing.T) {
	svc, published, _ := newTestAlerts(t, config.Alerts{FailureThreshold: 3})

	svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	svc.RecordFailure(context.Background(), 7, models.RecordTypeBonus)
	svc.RecordFailure(context.Background(), 8, models.RecordTypeSalary)
	svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)

	assert.Empty(t, *published)
}

func TestRecordFailure_NilBusIsLogOnly(t *testing.T) {
	log := logger.Nop()
	svc := NewAlertService(config.Alerts{FailureThreshold: 1}, nil, log).(*alertService)

	assert.NotPanics(t, func() {
		svc.RecordFailure(context.Background(), 7, models.RecordTypeSalary)
	})
}
