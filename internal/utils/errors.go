package utils

import (
	"errors"
	"fmt"
	"time"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrTeamCodeInvalid = errors.New("team_code_invalid")
	ErrTokenInvalid    = errors.New("invalid_token")
	ErrTokenExpired    = errors.New("team_lock_expired")
	ErrTeamMismatch    = errors.New("team_mismatch")
	ErrTeamNotFound    = errors.New("team_not_found")

	// For concurrency conflicts on team records
	ErrVersionConflict = errors.New("version_conflict")

	// For backing-store failures and timeouts
	ErrStorage = errors.New("storage_error")
)

// LockConflictError is returned when a device already holds a live lock
// for a different team. RemainingTTL is taken from the existing lock so
// clients can render an accurate wait message.
type LockConflictError struct {
	ConflictingTeamID string
	RemainingTTL      time.Duration
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("team_lock_conflict: device bound to %s for another %s",
		e.ConflictingTeamID, e.RemainingTTL.Round(time.Second))
}

// RateLimitedError is returned when verification attempts from one network
// address exceed the configured threshold.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate_limited: retry after %s", e.RetryAfter.Round(time.Second))
}
