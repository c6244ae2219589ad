package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/internal/service"
)

const sweepLeaseKey = "pointhub:lease:listing-sweep"

// Sweeper periodically retires expired and stale listings. A lease in the
// lock store keeps instances from sweeping at the same moment; the sweep is
// safe to overlap, the lease only saves work.
type Sweeper struct {
	listings service.ListingService
	locks    repository.LockStore
	interval time.Duration
	leaseTTL time.Duration
	owner    string
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(listings service.ListingService, locks repository.LockStore, interval, leaseTTL time.Duration, logger *zap.Logger) *Sweeper {
	if leaseTTL <= 0 {
		leaseTTL = interval
	}
	return &Sweeper{
		listings: listings,
		locks:    locks,
		interval: interval,
		leaseTTL: leaseTTL,
		owner:    uuid.NewString(),
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("listing sweeper started", zap.Duration("interval", s.interval))
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("listing sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep if the lease can be taken. It reports whether
// this instance swept.
func (s *Sweeper) RunOnce(ctx context.Context) bool {
	acquired, err := s.locks.Acquire(ctx, sweepLeaseKey, s.owner, s.leaseTTL)
	if err != nil {
		s.logger.Error("acquire sweep lease failed", zap.Error(err))
		return false
	}
	if !acquired {
		s.logger.Debug("sweep lease held elsewhere, skipping")
		return false
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), sweepLeaseKey, s.owner); err != nil {
			s.logger.Warn("release sweep lease failed", zap.Error(err))
		}
	}()

	now := s.now()
	expired, err := s.listings.SweepExpired(ctx, now)
	if err != nil {
		s.logger.Error("expired listing sweep failed", zap.Error(err))
	} else {
		s.logger.Info("expired listing sweep finished",
			zap.Int("count", expired.Count),
			zap.Int64("refunded", totalRefund(expired)),
		)
	}

	stale, err := s.listings.SweepStale(ctx, now)
	if err != nil {
		s.logger.Error("stale listing sweep failed", zap.Error(err))
	} else {
		s.logger.Info("stale listing sweep finished",
			zap.Int("count", stale.Count),
			zap.Int64("refunded", totalRefund(stale)),
		)
	}
	return true
}

func totalRefund(r *service.SweepResult) int64 {
	var sum int64
	for _, item := range r.Results {
		sum += item.Refund
	}
	return sum
}
