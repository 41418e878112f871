package services

import (
	"context"
	"fmt"
	"time"

	"github.com/huntboard/team-lock-service/internal/config"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// RateLimiterService throttles verification attempts. Limits are keyed
// on the originating network address, never on the device hint: the
// hint is attacker-controllable, the address is much less so.
type RateLimiterService interface {
	CheckVerifyRateLimits(ctx context.Context, ip string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

// CheckVerifyRateLimits checks the global and per-IP limits for code
// verification attempts. On rejection it returns a RateLimitedError
// carrying the time until the counter window resets.
func (s *rateLimiterService) CheckVerifyRateLimits(ctx context.Context, ip string) error {
	// 1. Global limit
	globalKey := "verify:global"
	outcome, err := s.repo.IncrementAndCheck(ctx, globalKey, s.cfg.GlobalVerifyLimitPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !outcome.Allowed {
		utils.Logger.Warnf("Global verify rate limit exceeded (key: %s)", globalKey)
		return &utils.RateLimitedError{RetryAfter: retryAfter(outcome.ExpiresAt)}
	}

	// 2. Per-IP limit
	ipKey := fmt.Sprintf("verify:ip:%s", ip)
	outcome, err = s.repo.IncrementAndCheck(ctx, ipKey, s.cfg.VerifyLimitPerIPPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !outcome.Allowed {
		utils.Logger.Warnf("Per-IP verify rate limit exceeded (key: %s)", ipKey)
		return &utils.RateLimitedError{RetryAfter: retryAfter(outcome.ExpiresAt)}
	}

	return nil
}

func retryAfter(expiresAt time.Time) time.Duration {
	remaining := time.Until(expiresAt)
	if remaining < time.Second {
		remaining = time.Second
	}
	return remaining
}
