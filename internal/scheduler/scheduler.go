package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
	"GoldSentinel/internal/model"
	"GoldSentinel/internal/report"
	"GoldSentinel/internal/store"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Store   store.Store
	Reports *report.Service
	Ctx     context.Context

	log *logger.Logger
}

// NewScheduler creates a new Scheduler whose specs are evaluated in loc.
func NewScheduler(ctx context.Context, st store.Store, reports *report.Service, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Store:   st,
		Reports: reports,
		Ctx:     ctx,
		log:     logger.Get().With("component", "scheduler"),
	}
}

// RegisterAll registers the daily counter reset and, when reportCron is not
// empty, the scheduled report delivery.
func (s *Scheduler) RegisterAll(dailyResetCron, reportCron string, delivery model.DeliveryOptions) error {
	if _, err := s.Cron.AddFunc(dailyResetCron, s.resetDaily); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	if reportCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(reportCron, func() { s.scheduledReport(delivery) }); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Infow("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) resetDaily() {
	if err := s.Store.ResetDaily(s.Ctx); err != nil {
		metrics.JobExecutions.WithLabelValues("daily_reset", "error").Inc()
		s.log.Errorw("daily reset failed", "error", err)
		return
	}
	metrics.JobExecutions.WithLabelValues("daily_reset", "success").Inc()
	s.log.Info("daily report counter reset")
}

func (s *Scheduler) scheduledReport(delivery model.DeliveryOptions) {
	payload, err := s.Reports.Forward(s.Ctx, delivery, "scheduler")
	switch {
	case errors.Is(err, store.ErrNoReport):
		metrics.JobExecutions.WithLabelValues("report", "skipped").Inc()
		s.log.Info("scheduled report skipped, nothing received yet")
	case err != nil:
		metrics.JobExecutions.WithLabelValues("report", "error").Inc()
		s.log.Errorw("scheduled report failed", "error", err)
	default:
		metrics.JobExecutions.WithLabelValues("report", "success").Inc()
		s.log.Infow("scheduled report sent", "report_id", payload.System.ReportID, "recipient", delivery.Recipient)
	}
}
