package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huntboard/team-lock-service/internal/config"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// stubRateLimits mirrors the atomic increment-and-check contract of the
// Postgres counter table.
type stubRateLimits struct {
	counts    map[string]int
	expiresAt time.Time
}

func newStubRateLimits() *stubRateLimits {
	return &stubRateLimits{
		counts:    make(map[string]int),
		expiresAt: time.Now().Add(time.Hour),
	}
}

func (s *stubRateLimits) IncrementAndCheck(
	_ context.Context,
	key string,
	limit int,
	_ time.Duration,
) (*repositories.RateLimitOutcome, error) {
	s.counts[key]++
	return &repositories.RateLimitOutcome{
		Allowed:   s.counts[key] <= limit,
		Count:     s.counts[key],
		ExpiresAt: s.expiresAt,
	}, nil
}

func (s *stubRateLimits) CleanupExpired(context.Context) error { return nil }

func rateLimiterFixture(perIP, global int) (RateLimiterService, *stubRateLimits) {
	repo := newStubRateLimits()
	svc := NewRateLimiterService(repo, &config.Config{
		VerifyLimitPerIPPerHour:  perIP,
		GlobalVerifyLimitPerHour: global,
		RateLimitWindow:          time.Hour,
	})
	return svc, repo
}

func TestPerIPLimitEnforced(t *testing.T) {
	svc, _ := rateLimiterFixture(3, 1000)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CheckVerifyRateLimits(ctx, "203.0.113.7"))
	}

	err := svc.CheckVerifyRateLimits(ctx, "203.0.113.7")
	var rl *utils.RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Greater(t, rl.RetryAfter, time.Duration(0))

	// A different address is unaffected.
	require.NoError(t, svc.CheckVerifyRateLimits(ctx, "198.51.100.4"))
}

func TestGlobalLimitEnforcedAcrossAddresses(t *testing.T) {
	svc, _ := rateLimiterFixture(1000, 2)
	ctx := context.Background()

	require.NoError(t, svc.CheckVerifyRateLimits(ctx, "203.0.113.1"))
	require.NoError(t, svc.CheckVerifyRateLimits(ctx, "203.0.113.2"))

	err := svc.CheckVerifyRateLimits(ctx, "203.0.113.3")
	var rl *utils.RateLimitedError
	require.ErrorAs(t, err, &rl)
}
