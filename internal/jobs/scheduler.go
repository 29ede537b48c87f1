package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	pkgerrors "github.com/pursue-app/pursue-backend/internal/pkg/errors"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/services"
)

// Config holds the cron expressions for the three engine entry points.
type Config struct {
	SendSpec          string // every 15 minutes
	EffectivenessSpec string // daily
	PatternSpec       string // weekly
}

// Scheduler drives the engine in-process for single-binary deployments. The
// same entry points are also exposed over HTTP for an external cron.
type Scheduler struct {
	log           *logger.Logger
	cron          *cron.Cron
	reminders     services.ReminderOrchestrator
	effectiveness services.EffectivenessService
	patterns      services.PatternService
}

func NewScheduler(baseLog *logger.Logger, cfg Config, reminders services.ReminderOrchestrator, effectiveness services.EffectivenessService, patterns services.PatternService) (*Scheduler, error) {
	s := &Scheduler{
		log:           baseLog.With("component", "Scheduler"),
		cron:          cron.New(),
		reminders:     reminders,
		effectiveness: effectiveness,
		patterns:      patterns,
	}

	if _, err := s.cron.AddFunc(cfg.SendSpec, s.runSend); err != nil {
		return nil, fmt.Errorf("schedule reminder run: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.EffectivenessSpec, s.runEffectiveness); err != nil {
		return nil, fmt.Errorf("schedule effectiveness run: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.PatternSpec, s.runPatterns); err != nil {
		return nil, fmt.Errorf("schedule pattern recalculation: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("Starting job scheduler")
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Job scheduler stopped")
}

func (s *Scheduler) runSend() {
	stats, err := s.reminders.ProcessReminders(context.Background())
	if errors.Is(err, pkgerrors.ErrRunInProgress) {
		s.log.Warn("Previous reminder run still in progress, skipping tick")
		return
	}
	if err != nil {
		s.log.Error("Reminder run failed", "error", err)
		return
	}
	s.log.Info("Scheduled reminder run finished",
		"sent", stats.Sent, "skipped", stats.Skipped, "errors", stats.Errors)
}

func (s *Scheduler) runEffectiveness() {
	stats, err := s.effectiveness.UpdateEffectiveness(context.Background())
	if err != nil {
		s.log.Error("Effectiveness run failed", "error", err)
		return
	}
	s.log.Info("Scheduled effectiveness run finished", "updated", stats.Updated)
}

func (s *Scheduler) runPatterns() {
	stats, err := s.patterns.RecalculateAll(context.Background())
	if err != nil {
		s.log.Error("Pattern recalculation run failed", "error", err)
		return
	}
	s.log.Info("Scheduled pattern recalculation finished",
		"updated", stats.Updated, "created", stats.Created, "removed", stats.Removed)
}
