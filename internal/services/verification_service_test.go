package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huntboard/team-lock-service/internal/models"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// ---------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------

type stubCodeRegistry struct {
	byCode map[string]*models.CodeMapping
}

func (s *stubCodeRegistry) GetByCode(_ context.Context, code string) (*models.CodeMapping, error) {
	return s.byCode[code], nil
}

func (s *stubCodeRegistry) GetByTeamID(_ context.Context, teamID string) (*models.CodeMapping, error) {
	for _, m := range s.byCode {
		if m.TeamID == teamID {
			return m, nil
		}
	}
	return nil, nil
}

// stubDeviceLocks mirrors the conditional-upsert semantics of the
// Postgres repository: same atomic contract, guarded by a mutex instead
// of a storage-level statement.
type stubDeviceLocks struct {
	mu    sync.Mutex
	locks map[string]*models.DeviceLock
}

func newStubDeviceLocks() *stubDeviceLocks {
	return &stubDeviceLocks{locks: make(map[string]*models.DeviceLock)}
}

func (s *stubDeviceLocks) CheckAndLock(
	_ context.Context,
	deviceHint, teamID string,
	ttl time.Duration,
) (*repositories.LockOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.locks[deviceHint]
	if !ok || existing.IsExpired() || existing.TeamID == teamID {
		lock := &models.DeviceLock{
			DeviceHint: deviceHint,
			TeamID:     teamID,
			ExpiresAt:  time.Now().Add(ttl),
		}
		s.locks[deviceHint] = lock
		return &repositories.LockOutcome{
			Acquired:     true,
			HeldByTeamID: teamID,
			ExpiresAt:    lock.ExpiresAt,
		}, nil
	}

	return &repositories.LockOutcome{
		Acquired:     false,
		HeldByTeamID: existing.TeamID,
		ExpiresAt:    existing.ExpiresAt,
	}, nil
}

func (s *stubDeviceLocks) GetByHint(_ context.Context, deviceHint string) (*models.DeviceLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[deviceHint], nil
}

func (s *stubDeviceLocks) CleanupExpired(context.Context) error { return nil }

type stubRateLimiter struct {
	err error
}

func (s *stubRateLimiter) CheckVerifyRateLimits(context.Context, string) error { return s.err }

// ---------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------

func testVerificationService(t *testing.T) (VerificationService, *stubDeviceLocks, *stubRateLimiter) {
	t.Helper()

	cfg := testTokenConfig(24 * time.Hour)
	registry := &stubCodeRegistry{byCode: map[string]*models.CodeMapping{
		"ALPHA01": {Code: "ALPHA01", TeamID: "TEAM_alpha", TeamDisplayName: "Team Alpha", Active: true},
		"BETA02":  {Code: "BETA02", TeamID: "TEAM_beta", TeamDisplayName: "Team Beta", Active: true},
		"OLD99":   {Code: "OLD99", TeamID: "TEAM_old", TeamDisplayName: "Team Old", Active: false},
	}}
	locks := newStubDeviceLocks()
	limiter := &stubRateLimiter{}

	svc := NewVerificationService(registry, locks, limiter, NewTokenService(cfg), cfg)
	return svc, locks, limiter
}

// ---------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------

func TestVerifySuccessMintsBoundToken(t *testing.T) {
	svc, _, _ := testVerificationService(t)

	result, err := svc.Verify(context.Background(), "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)
	require.Equal(t, "TEAM_alpha", result.TeamID)
	require.Equal(t, "Team Alpha", result.TeamName)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), result.ExpiresAt, 5*time.Second)

	// The minted token resolves back to the same team.
	teamCtx, err := svc.Resolve(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, "TEAM_alpha", teamCtx.TeamID)
	require.Equal(t, "Team Alpha", teamCtx.TeamName)
}

func TestVerifyUnknownAndInactiveCodesFailIdentically(t *testing.T) {
	svc, _, _ := testVerificationService(t)

	_, unknownErr := svc.Verify(context.Background(), "ZZZZ99", "dev-1", "203.0.113.7")
	require.ErrorIs(t, unknownErr, utils.ErrTeamCodeInvalid)

	_, inactiveErr := svc.Verify(context.Background(), "OLD99", "dev-1", "203.0.113.7")
	require.ErrorIs(t, inactiveErr, utils.ErrTeamCodeInvalid)

	// Indistinguishable to the caller.
	require.Equal(t, unknownErr.Error(), inactiveErr.Error())
}

func TestVerifySecondTeamFromSameDeviceConflicts(t *testing.T) {
	svc, _, _ := testVerificationService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "BETA02", "dev-1", "203.0.113.7")
	var conflict *utils.LockConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "TEAM_alpha", conflict.ConflictingTeamID)
	require.Greater(t, conflict.RemainingTTL, 23*time.Hour)
	require.LessOrEqual(t, conflict.RemainingTTL, 24*time.Hour)
}

func TestVerifySameTeamIsIdempotentAndRefreshes(t *testing.T) {
	svc, locks, _ := testVerificationService(t)
	ctx := context.Background()

	first, err := svc.Verify(ctx, "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)

	second, err := svc.Verify(ctx, "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)
	require.Equal(t, first.TeamID, second.TeamID)

	hint := utils.DeviceFingerprint(testTokenConfig(0).FingerprintSalt, "dev-1", "203.0.113.7")
	lock, err := locks.GetByHint(ctx, hint)
	require.NoError(t, err)
	require.NotNil(t, lock)
	require.Equal(t, "TEAM_alpha", lock.TeamID)
}

func TestVerifyDifferentDevicesDoNotConflict(t *testing.T) {
	svc, _, _ := testVerificationService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)

	// Two teammates' phones for the same team, and an unrelated device
	// for another team: neither collides with dev-1.
	_, err = svc.Verify(ctx, "ALPHA01", "dev-2", "203.0.113.7")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "BETA02", "dev-3", "198.51.100.4")
	require.NoError(t, err)
}

func TestVerifyRateLimitedBeforeLockConsumed(t *testing.T) {
	svc, locks, limiter := testVerificationService(t)
	limiter.err = &utils.RateLimitedError{RetryAfter: 30 * time.Minute}

	_, err := svc.Verify(context.Background(), "ALPHA01", "dev-1", "203.0.113.7")
	var rl *utils.RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 30*time.Minute, rl.RetryAfter)

	// No conflict-detector slot was consumed by the throttled attempt.
	require.Empty(t, locks.locks)
}

func TestConcurrentVerifyDifferentTeamsExactlyOneWins(t *testing.T) {
	svc, _, _ := testVerificationService(t)
	ctx := context.Background()

	type outcome struct {
		result *VerificationResult
		err    error
	}

	var wg sync.WaitGroup
	results := make([]outcome, 2)
	codes := []string{"ALPHA01", "BETA02"}
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Verify(ctx, codes[i], "dev-race", "203.0.113.7")
			results[i] = outcome{result: r, err: err}
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, o := range results {
		if o.err == nil {
			wins++
			continue
		}
		var conflict *utils.LockConflictError
		require.ErrorAs(t, o.err, &conflict)
		conflicts++
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, conflicts)
}

func TestVerifyAfterLockExpiryAllowsNewTeam(t *testing.T) {
	cfg := testTokenConfig(50 * time.Millisecond)
	registry := &stubCodeRegistry{byCode: map[string]*models.CodeMapping{
		"ALPHA01": {Code: "ALPHA01", TeamID: "TEAM_alpha", TeamDisplayName: "Team Alpha", Active: true},
		"BETA02":  {Code: "BETA02", TeamID: "TEAM_beta", TeamDisplayName: "Team Beta", Active: true},
	}}
	locks := newStubDeviceLocks()
	svc := NewVerificationService(registry, locks, &stubRateLimiter{}, NewTokenService(cfg), cfg)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "ALPHA01", "dev-1", "203.0.113.7")
	require.NoError(t, err)

	// While the lock is live the device stays bound to Team Alpha.
	_, err = svc.Verify(ctx, "BETA02", "dev-1", "203.0.113.7")
	var conflict *utils.LockConflictError
	require.ErrorAs(t, err, &conflict)

	time.Sleep(120 * time.Millisecond)

	// The lock lapsed on its own, so the same device can now join
	// Team Beta without any release step.
	result, err := svc.Verify(ctx, "BETA02", "dev-1", "203.0.113.7")
	require.NoError(t, err)
	require.Equal(t, "TEAM_beta", result.TeamID)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	cfg := testTokenConfig(-time.Minute)
	registry := &stubCodeRegistry{byCode: map[string]*models.CodeMapping{
		"ALPHA01": {Code: "ALPHA01", TeamID: "TEAM_alpha", TeamDisplayName: "Team Alpha", Active: true},
	}}
	tokens := NewTokenService(cfg)
	svc := NewVerificationService(registry, newStubDeviceLocks(), &stubRateLimiter{}, tokens, cfg)

	expired, _, err := tokens.Mint("TEAM_alpha")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), expired)
	require.ErrorIs(t, err, utils.ErrTokenExpired)
}

func TestResolveTokenForUnknownTeamIsInvalid(t *testing.T) {
	cfg := testTokenConfig(24 * time.Hour)
	tokens := NewTokenService(cfg)
	svc := NewVerificationService(
		&stubCodeRegistry{byCode: map[string]*models.CodeMapping{}},
		newStubDeviceLocks(), &stubRateLimiter{}, tokens, cfg,
	)

	// An authentic token for a team the registry no longer lists, e.g.
	// a code retired mid-event. The client must treat it as invalid and
	// re-prompt, not retry against storage.
	orphan, _, err := tokens.Mint("TEAM_gone")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), orphan)
	require.ErrorIs(t, err, utils.ErrTokenInvalid)
}
