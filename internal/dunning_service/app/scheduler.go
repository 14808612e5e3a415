package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the batch dunning cycle on a cron cadence. An empty cron
// spec disables scheduling entirely, for deployments that drive batches over
// the API instead.
type Scheduler struct {
	cron    *cron.Cron
	dunning *DunningService
	logger  *slog.Logger
	spec    string
}

func NewScheduler(dunning *DunningService, logger *slog.Logger, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		dunning: dunning,
		logger:  logger.With("service", "scheduler"),
		spec:    spec,
	}
}

// Start registers the batch job and starts the cron loop. Returns without
// starting anything when no schedule is configured.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("Dunning schedule not configured, scheduler disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, s.runBatch)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Dunning scheduler started", "schedule", s.spec)
	return nil
}

func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.InfoContext(ctx, "Scheduled dunning batch starting")
	batch, err := s.dunning.ApplyAll(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled dunning batch failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Scheduled dunning batch finished",
		"total", batch.TotalCustomers,
		"successful", batch.Successful,
		"failed", batch.Failed,
		"skipped", batch.Skipped,
	)
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Dunning scheduler stopped")
}
