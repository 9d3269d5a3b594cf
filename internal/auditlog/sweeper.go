package auditlog

import (
	"context"
	"time"

	"confirmo-gateway/internal/logger"

	"go.uber.org/zap"
)

// Sweeper purges expired audit entries on a periodic trigger. The delete is
// idempotent: sweeping rows that are already gone is a no-op.
type Sweeper struct {
	repo      Repository
	interval  time.Duration
	retention time.Duration
}

func NewSweeper(repo Repository) *Sweeper {
	return &Sweeper{
		repo:      repo,
		interval:  24 * time.Hour,
		retention: RetentionPeriod,
	}
}

// Run blocks until ctx is cancelled, purging once immediately and then daily.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.repo.PurgeOlderThan(ctx, s.retention)
	if err != nil {
		logger.L().Error("audit log purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.L().Info("purged old audit entries", zap.Int64("deleted", n))
	}
}
