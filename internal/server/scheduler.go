// internal/server/scheduler.go
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"coincoach-backend/internal/common/config"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

// Scheduler runs the daily signal job: build a fixed signal string stamped
// with the current time, persist it, fan it out. All failures are logged and
// swallowed so the job always completes from cron's point of view.
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	logger  logger.Logger
	signals SignalService
	devices DeviceStore
	pusher  Notifier
	emailer DigestSender
	now     func() time.Time
}

func NewScheduler(
	cfg *config.Config,
	log logger.Logger,
	signals SignalService,
	devices DeviceStore,
	pusher Notifier,
	emailer DigestSender,
) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		logger:  log,
		signals: signals,
		devices: devices,
		pusher:  pusher,
		emailer: emailer,
		now:     time.Now,
	}
}

// Start registers the daily job and launches the cron loop.
func (s *Scheduler) Start() error {
	spec := s.cfg.Scheduler.Spec
	if spec == "" {
		spec = "@every 24h"
	}
	if _, err := s.cron.AddFunc(spec, s.RunDailySignal); err != nil {
		return fmt.Errorf("failed to schedule daily signal job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"spec": spec,
	})
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunDailySignal is one firing of the daily job.
func (s *Scheduler) RunDailySignal() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	strategy := fmt.Sprintf("Daily market signal generated at %s", s.now().UTC().Format(time.RFC3339))

	signal, err := s.signals.Push(ctx, strategy)
	if err != nil {
		s.logger.WithError(err).Error("daily signal persist failed", nil)
		return
	}

	if s.cfg.Notifications.Email.Enabled && s.emailer != nil {
		recipient := s.cfg.Notifications.Email.Digest
		if err := s.emailer.SendDigest(ctx, []string{recipient}, []models.Signal{signal}); err != nil {
			s.logger.WithError(err).Warn("daily signal digest email failed", nil)
		}
	}

	if !s.cfg.Notifications.Push.Enabled {
		return
	}
	devices, err := s.devices.Devices(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("daily signal fan-out skipped", nil)
		return
	}
	result := s.pusher.Fanout(ctx, signal, devices)
	s.logger.Info("daily signal delivered", map[string]interface{}{
		"sent":   result.Sent,
		"failed": result.Failed,
	})
}
