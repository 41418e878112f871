package repositories

import (
	"context"
	"time"
)

// RateLimitOutcome reports whether a request is allowed and, when it is
// not, when the window resets.
type RateLimitOutcome struct {
	Allowed   bool
	Count     int
	ExpiresAt time.Time
}

// RateLimitRepository provides an atomic way to check and increment rate limit counters.
type RateLimitRepository interface {
	// IncrementAndCheck atomically increments the counter for the given
	// key and checks it against the limit. The window resets itself when
	// the previous one has expired.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitOutcome, error)
	// CleanupExpired removes all counter keys that have expired.
	CleanupExpired(ctx context.Context) error
}

type rateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) IncrementAndCheck(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (*RateLimitOutcome, error) {
	query := `
        INSERT INTO rate_limit_attempts (key, attempt_count, expires_at)
        VALUES ($1, 1, NOW() + $2::interval)
        ON CONFLICT (key) DO UPDATE
        SET attempt_count = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN 1
            ELSE rate_limit_attempts.attempt_count + 1
        END,
        expires_at = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN NOW() + $2::interval
            ELSE rate_limit_attempts.expires_at
        END
        RETURNING attempt_count, expires_at;
    `

	var (
		currentCount int
		expiresAt    time.Time
	)
	if err := r.db.QueryRow(ctx, query, key, window).Scan(&currentCount, &expiresAt); err != nil {
		return nil, err
	}

	return &RateLimitOutcome{
		Allowed:   currentCount <= limit,
		Count:     currentCount,
		ExpiresAt: expiresAt,
	}, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rate_limit_attempts WHERE expires_at < NOW()`)
	return err
}
