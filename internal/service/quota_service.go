package service

import (
	"context"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

// QuotaService enforces a per-user request budget on top of a QuotaStore.
type QuotaService struct {
	store  domain.QuotaStore
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

func NewQuotaService(store domain.QuotaStore, limit int, window time.Duration, logger *zerolog.Logger) *QuotaService {
	return &QuotaService{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow fails open when the store is unavailable.
func (s *QuotaService) Allow(ctx context.Context, userID int64) bool {
	ok, err := s.store.CheckRateLimit(ctx, userID, s.limit, s.window)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("quota check failed")
		return true
	}
	if !ok {
		s.logger.Warn().Int64("user_id", userID).Int("limit", s.limit).Dur("window", s.window).Msg("user quota exceeded")
	}
	return ok
}
