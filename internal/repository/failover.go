package repository

import (
	"context"
	"sync/atomic"
	"time"

	"campusrooms/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLimiterRepository prefers the primary (Redis) limiter and
// falls back to the in-memory one when the primary errors. It retries
// the primary after a cooldown.
type FailoverLimiterRepository struct {
	primary   domain.RateLimiter
	fallback  domain.RateLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of last failed primary attempt
}

func NewFailoverLimiterRepository(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverLimiterRepository {
	return &FailoverLimiterRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

const recoveryInterval = time.Minute

func (r *FailoverLimiterRepository) CheckRateLimit(ctx context.Context, principalID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, principalID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("primary rate limiter failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck.Store(time.Now().UnixNano())
	}

	// Retry the primary after the cooldown elapsed.
	if r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval {
		allowed, err := r.primary.CheckRateLimit(ctx, principalID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.CheckRateLimit(ctx, principalID, limit, window)
}
