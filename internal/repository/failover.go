package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const failoverRetryInterval = time.Minute

// FailoverQuotaStore uses primary until it fails, then serves from fallback
// and retries primary once per failoverRetryInterval.
type FailoverQuotaStore struct {
	primary   domain.QuotaStore
	fallback  domain.QuotaStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverQuotaStore(primary, fallback domain.QuotaStore, logger *zerolog.Logger) *FailoverQuotaStore {
	return &FailoverQuotaStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverQuotaStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary quota store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverQuotaStore) shouldRetry() bool {
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > failoverRetryInterval
}

func (r *FailoverQuotaStore) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.shouldRetry() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary quota store recovered")
			}
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
