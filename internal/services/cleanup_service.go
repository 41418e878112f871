package services

import (
	"context"

	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// CleanupService removes expired device locks and rate-limit counters.
// Expired rows are already ignored by every query that matters; this
// just keeps the tables from growing across events.
type CleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type cleanupService struct {
	locks      repositories.DeviceLockRepository
	rateLimits repositories.RateLimitRepository
}

func NewCleanupService(
	locks repositories.DeviceLockRepository,
	rateLimits repositories.RateLimitRepository,
) CleanupService {
	return &cleanupService{locks: locks, rateLimits: rateLimits}
}

func (s *cleanupService) CleanupDaily(ctx context.Context) error {
	if err := s.locks.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to clean up expired device locks")
		return err
	}
	if err := s.rateLimits.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to clean up expired rate limit counters")
		return err
	}
	utils.Logger.Info("Expired device locks and rate limit counters cleaned up")
	return nil
}
