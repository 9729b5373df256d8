package heroku

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

const (
	defaultRateLimitRPS = 10
	maxRateLimitRPS     = 100
)

// Limiter throttles Platform API calls made by one client. A zero rate
// disables throttling.
type Limiter struct {
	limiter *rate.Limiter
	logger  ports.Logger
}

func NewLimiter(rps int, logger ports.Logger) *Limiter {
	switch {
	case rps == 0:
		logger.Debugf(nil, "Heroku API rate limiting disabled")
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0), logger: logger}
	case rps < 0 || rps > maxRateLimitRPS:
		logger.Warnf(nil, "Invalid Heroku API RPS configured (%d), using default %d RPS. Valid range: 0-%d.", rps, defaultRateLimitRPS, maxRateLimitRPS)
		rps = defaultRateLimitRPS
	}
	logger.Debugf(nil, "Initialized Heroku API rate limiter: %d RPS", rps)
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), rps), logger: logger}
}

func (l *Limiter) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		l.logger.Warnf(ctx, "Error waiting for Heroku API rate limiter: %v", err)
	}
	return err
}
