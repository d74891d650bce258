package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/repository"
)

// LoginLimiter counts failed logins per email in a shared cache and refuses
// further attempts once the limit is reached within the window.
// Unknown and registered emails are counted the same way.
type LoginLimiter struct {
	cache       repository.Cache
	maxAttempts int
	window      time.Duration
	logger      zerolog.Logger
}

// NewLoginLimiter creates a LoginLimiter. A maxAttempts of zero disables it.
func NewLoginLimiter(cache repository.Cache, maxAttempts int, window time.Duration, logger zerolog.Logger) *LoginLimiter {
	return &LoginLimiter{
		cache:       cache,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger.With().Str("component", "login_limiter").Logger(),
	}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.cache != nil && l.maxAttempts > 0
}

// Check returns ErrTooManyAttempts if email has used up its attempts.
// Cache failures let the attempt through.
func (l *LoginLimiter) Check(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}

	raw, err := l.cache.Get(ctx, repository.CacheKeys.LoginAttempts(email))
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			l.logger.Warn().Err(err).Msg("failed to read login attempts")
		}
		return nil
	}

	failures, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		l.logger.Warn().Err(err).Str("value", string(raw)).Msg("ignoring corrupt login attempt counter")
		return nil
	}
	if failures >= int64(l.maxAttempts) {
		return ErrTooManyAttempts
	}
	return nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, email string) {
	if !l.enabled() {
		return
	}

	key := repository.CacheKeys.LoginAttempts(email)
	failures, err := l.cache.Increment(ctx, key, 1)
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to count login failure")
		return
	}
	if failures == 1 {
		if err := l.cache.Expire(ctx, key, l.window); err != nil {
			l.logger.Warn().Err(err).Msg("failed to set login attempt window")
		}
	}
}

// Reset clears the failures of email after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if !l.enabled() {
		return
	}
	if err := l.cache.Delete(ctx, repository.CacheKeys.LoginAttempts(email)); err != nil {
		l.logger.Warn().Err(err).Msg("failed to reset login attempts")
	}
}
