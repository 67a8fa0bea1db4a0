// internal/server/scheduler_test.go
package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coincoach-backend/internal/common/config"
	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

type fakeEmailer struct {
	digests [][]models.Signal
	sentTo  []string
	sendErr error
}

func (f *fakeEmailer) SendDigest(ctx context.Context, recipients []string, signals []models.Signal) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.digests = append(f.digests, signals)
	f.sentTo = append(f.sentTo, recipients...)
	return nil
}

func newTestScheduler(mutate func(*config.Config)) (*Scheduler, *testDeps) {
	cfg := &config.Config{}
	cfg.Notifications.Push.Enabled = true
	cfg.Scheduler.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}

	deps := &testDeps{
		signals:  &fakeSignals{},
		notifier: &fakeNotifier{},
		devices:  &fakeDevices{},
		emailer:  &fakeEmailer{},
	}
	sched := NewScheduler(cfg, logger.NewNoOpLogger(), deps.signals, deps.devices, deps.notifier, deps.emailer)
	sched.now = func() time.Time {
		return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	}
	return sched, deps
}

func TestRunDailySignal(t *testing.T) {
	sched, deps := newTestScheduler(nil)
	deps.devices.registered = []models.Device{{Token: "arn:1"}}

	sched.RunDailySignal()

	require.Len(t, deps.signals.pushed, 1)
	assert.Equal(t, "Daily market signal generated at 2025-06-01T09:00:00Z", deps.signals.pushed[0])
	assert.Len(t, deps.notifier.fanouts, 1)
}

func TestRunDailySignal_PersistFailureSwallowed(t *testing.T) {
	sched, deps := newTestScheduler(nil)
	deps.signals.pushErr = apperrors.NewSignalPersistFailedError(assert.AnError)

	assert.NotPanics(t, func() { sched.RunDailySignal() })
	assert.Empty(t, deps.notifier.fanouts)
}

func TestRunDailySignal_FanoutFailureSwallowed(t *testing.T) {
	sched, deps := newTestScheduler(nil)
	deps.devices.listErr = assert.AnError

	assert.NotPanics(t, func() { sched.RunDailySignal() })
	assert.Len(t, deps.signals.pushed, 1, "the signal is still persisted")
}

func TestRunDailySignal_EmailDigest(t *testing.T) {
	sched, deps := newTestScheduler(func(cfg *config.Config) {
		cfg.Notifications.Email.Enabled = true
		cfg.Notifications.Email.Digest = "trader@example.com"
	})

	sched.RunDailySignal()

	require.Len(t, deps.emailer.digests, 1)
	require.Len(t, deps.emailer.digests[0], 1)
	assert.Equal(t, "Daily market signal generated at 2025-06-01T09:00:00Z", deps.emailer.digests[0][0].Strategy)
	assert.Equal(t, []string{"trader@example.com"}, deps.emailer.sentTo)
}

func TestRunDailySignal_EmailDisabledSkipsDigest(t *testing.T) {
	sched, deps := newTestScheduler(nil)

	sched.RunDailySignal()

	assert.Empty(t, deps.emailer.digests)
}

func TestRunDailySignal_EmailFailureSwallowed(t *testing.T) {
	sched, deps := newTestScheduler(func(cfg *config.Config) {
		cfg.Notifications.Email.Enabled = true
		cfg.Notifications.Email.Digest = "trader@example.com"
	})
	deps.emailer.sendErr = apperrors.NewNotificationSendFailedError("email", assert.AnError)
	deps.devices.registered = []models.Device{{Token: "arn:1"}}

	assert.NotPanics(t, func() { sched.RunDailySignal() })
	assert.Len(t, deps.signals.pushed, 1)
	assert.Len(t, deps.notifier.fanouts, 1, "push fan-out still happens")
}

func TestRunDailySignal_PushDisabledSkipsFanout(t *testing.T) {
	sched, deps := newTestScheduler(func(cfg *config.Config) {
		cfg.Notifications.Push.Enabled = false
	})
	deps.devices.registered = []models.Device{{Token: "arn:1"}}

	sched.RunDailySignal()

	assert.Len(t, deps.signals.pushed, 1)
	assert.Empty(t, deps.notifier.fanouts)
}

func TestScheduler_StartWithBadSpec(t *testing.T) {
	sched, _ := newTestScheduler(func(cfg *config.Config) {
		cfg.Scheduler.Spec = "not a cron spec"
	})

	err := sched.Start()
	assert.Error(t, err)
}

func TestScheduler_StartAndStop(t *testing.T) {
	sched, _ := newTestScheduler(nil)

	require.NoError(t, sched.Start())
	sched.Stop()
}
