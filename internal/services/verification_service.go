package services

import (
	"context"
	"time"

	"github.com/huntboard/team-lock-service/internal/config"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// VerificationResult is what a device gets back for a correct code: the
// resolved team plus a freshly minted capability token.
type VerificationResult struct {
	TeamID    string
	TeamName  string
	Token     string
	ExpiresAt time.Time
}

// TeamContext is the token-bound team identity, used by clients to
// restore UI state after a reload without re-prompting for a code.
type TeamContext struct {
	TeamID   string
	TeamName string
}

// ---------------------------------------------------------------------
// VerificationService interface
// ---------------------------------------------------------------------

// VerificationService is the single entry point for acquiring a team
// capability. It never mutates team records; its only write is the
// device lock row.
type VerificationService interface {
	Verify(ctx context.Context, code, providedHint, clientIP string) (*VerificationResult, error)
	Resolve(ctx context.Context, token string) (*TeamContext, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type verificationService struct {
	registry    repositories.CodeRegistryRepository
	locks       repositories.DeviceLockRepository
	rateLimiter RateLimiterService
	tokens      TokenService
	cfg         *config.Config
}

func NewVerificationService(
	registry repositories.CodeRegistryRepository,
	locks repositories.DeviceLockRepository,
	rateLimiter RateLimiterService,
	tokens TokenService,
	cfg *config.Config,
) VerificationService {
	return &verificationService{
		registry:    registry,
		locks:       locks,
		rateLimiter: rateLimiter,
		tokens:      tokens,
		cfg:         cfg,
	}
}

// Verify runs the full acquisition sequence: rate limit, registry
// lookup, atomic conflict check-and-lock, token mint. The rate limit
// runs first so throttled attempts never consume a conflict-detector
// slot.
func (s *verificationService) Verify(
	ctx context.Context,
	code, providedHint, clientIP string,
) (*VerificationResult, error) {
	if err := s.rateLimiter.CheckVerifyRateLimits(ctx, clientIP); err != nil {
		return nil, err
	}

	mapping, err := s.registry.GetByCode(ctx, code)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Registry lookup failed (code prefix: %s)", utils.HashCodePrefix(code))
		return nil, err
	}
	// Unknown and inactive codes fail identically: the response must
	// not reveal whether the code ever existed.
	if mapping == nil || !mapping.Active {
		return nil, utils.ErrTeamCodeInvalid
	}

	deviceHint := utils.DeviceFingerprint(s.cfg.FingerprintSalt, providedHint, clientIP)

	outcome, err := s.locks.CheckAndLock(ctx, deviceHint, mapping.TeamID, s.cfg.LockTokenTTL)
	if err != nil {
		utils.Logger.WithError(err).Error("Device lock check-and-lock failed")
		return nil, err
	}
	if !outcome.Acquired {
		return nil, &utils.LockConflictError{
			ConflictingTeamID: outcome.HeldByTeamID,
			RemainingTTL:      time.Until(outcome.ExpiresAt),
		}
	}

	token, expiresAt, err := s.tokens.Mint(mapping.TeamID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to mint lock token")
		return nil, err
	}

	utils.Logger.Infof("Lock acquired for team %s (code prefix: %s)", mapping.TeamID, utils.HashCodePrefix(code))

	return &VerificationResult{
		TeamID:    mapping.TeamID,
		TeamName:  mapping.TeamDisplayName,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve maps a presented token back to its team identity. The team ID
// comes from the verified token, never from the caller.
func (s *verificationService) Resolve(ctx context.Context, token string) (*TeamContext, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	mapping, err := s.registry.GetByTeamID(ctx, claims.TeamID)
	if err != nil {
		return nil, err
	}
	// A token for a team the registry no longer knows is not worth
	// retrying: the client should discard it and re-prompt for a code.
	if mapping == nil {
		return nil, utils.ErrTokenInvalid
	}

	return &TeamContext{
		TeamID:   mapping.TeamID,
		TeamName: mapping.TeamDisplayName,
	}, nil
}
