package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"blockon/api/internal/config"
)

// PendingPruner deletes email verification records that never left PENDING.
type PendingPruner interface {
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs periodic housekeeping. Verified and consumed email records
// are never touched.
type Scheduler struct {
	cron      *cron.Cron
	pruner    PendingPruner
	retention time.Duration
	schedule  string
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewScheduler(pruner PendingPruner, cfg config.AuthConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		pruner:    pruner,
		retention: cfg.PendingRetention,
		schedule:  cfg.CleanupSchedule,
		timeout:   time.Minute,
		now:       time.Now,
		log:       log,
	}
}

// Start registers the jobs and starts the cron loop. A zero retention
// disables pruning.
func (s *Scheduler) Start() error {
	if s.pruner == nil || s.retention <= 0 {
		s.log.Info().Msg("pending email pruning disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.prunePending); err != nil {
		return fmt.Errorf("schedule pending prune %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PrunePending removes PENDING records last touched before the retention
// window and returns how many were deleted.
func (s *Scheduler) PrunePending(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.pruner.DeletePendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pending email auths: %w", err)
	}
	return deleted, nil
}

func (s *Scheduler) prunePending() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deleted, err := s.PrunePending(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("pending email prune failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Msg("pending email prune finished")
}
