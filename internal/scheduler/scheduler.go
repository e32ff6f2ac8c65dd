package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arenahq/arena/backend/internal/logger"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/services"
)

// Scheduler runs the recurring security jobs: lifting expired temporary bans
// and posting the daily activity summary to the admin inbox.
type Scheduler struct {
	cron     *cron.Cron
	flags    *services.FlagService
	events   *services.EventService
	notifier *services.NotificationService
}

func New(flags *services.FlagService, events *services.EventService, notifier *services.NotificationService) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		flags:    flags,
		events:   events,
		notifier: notifier,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.SweepExpiredBans); err != nil {
		return fmt.Errorf("register ban sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("@daily", s.DailySummary); err != nil {
		return fmt.Errorf("register daily summary: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepExpiredBans reactivates accounts whose temporary ban has run out.
func (s *Scheduler) SweepExpiredBans() {
	lifted, err := s.flags.ExpireTemporaryBans(time.Now())
	if err != nil {
		logger.Log().WithError(err).Error("ban expiry sweep failed")
		return
	}
	if lifted > 0 {
		logger.WithFields(map[string]interface{}{"lifted": lifted}).Info("expired temporary bans lifted")
	}
}

// DailySummary posts the trailing 24h statistics to the admin inbox.
func (s *Scheduler) DailySummary() {
	stats, err := s.events.Statistics("24h")
	if err != nil {
		logger.Log().WithError(err).Error("daily summary failed")
		return
	}
	s.notifier.TryCreate(0, models.NotificationTypeInfo, "Daily security summary",
		fmt.Sprintf("%d security events in the last 24h; %d screenshot submissions (%d suspicious)",
			stats.TotalEvents, stats.Verifications.Total, stats.Verifications.Suspicious))
}
