package repositories

import (
	"context"
	"time"

	"github.com/huntboard/team-lock-service/internal/models"
	"github.com/jackc/pgx/v4"
)

// LockOutcome is the result of an atomic check-and-lock attempt. When
// Acquired is false, HeldByTeamID and ExpiresAt describe the existing
// lock that blocked the attempt.
type LockOutcome struct {
	Acquired     bool
	HeldByTeamID string
	ExpiresAt    time.Time
}

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

// DeviceLockRepository is the conflict-detection ledger. CheckAndLock is
// the only mutation path and must stay a single atomic statement: two
// concurrent calls for the same device hint and different teams must
// never both acquire.
type DeviceLockRepository interface {
	CheckAndLock(ctx context.Context, deviceHint, teamID string, ttl time.Duration) (*LockOutcome, error)

	// GetByHint fetches the current lock row for a device hint, expired
	// or not. Returns nil if absent.
	GetByHint(ctx context.Context, deviceHint string) (*models.DeviceLock, error)

	// CleanupExpired removes lock rows past their TTL.
	CleanupExpired(ctx context.Context) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type deviceLockRepo struct{ db DB }

func NewDeviceLockRepository(db DB) DeviceLockRepository {
	return &deviceLockRepo{db: db}
}

// CheckAndLock resolves all three cases in one conditional upsert:
//   - no row, or expired row: the caller's team takes the lock;
//   - live row for the same team: expires_at is refreshed (re-entry);
//   - live row for a different team: the row is left untouched.
//
// The RETURNING clause reports who holds the lock after the statement,
// so the caller decides conflict vs. success by comparing team IDs.
func (r *deviceLockRepo) CheckAndLock(
	ctx context.Context,
	deviceHint, teamID string,
	ttl time.Duration,
) (*LockOutcome, error) {
	query := `
        INSERT INTO device_locks (device_hint, team_id, expires_at)
        VALUES ($1, $2, NOW() + $3::interval)
        ON CONFLICT (device_hint) DO UPDATE
        SET team_id = CASE
            WHEN device_locks.expires_at < NOW() THEN EXCLUDED.team_id
            ELSE device_locks.team_id
        END,
        expires_at = CASE
            WHEN device_locks.expires_at < NOW() THEN EXCLUDED.expires_at
            WHEN device_locks.team_id = EXCLUDED.team_id THEN EXCLUDED.expires_at
            ELSE device_locks.expires_at
        END
        RETURNING team_id, expires_at;
    `

	var (
		holderTeamID string
		expiresAt    time.Time
	)
	if err := r.db.QueryRow(ctx, query, deviceHint, teamID, ttl).Scan(&holderTeamID, &expiresAt); err != nil {
		return nil, err
	}

	return &LockOutcome{
		Acquired:     holderTeamID == teamID,
		HeldByTeamID: holderTeamID,
		ExpiresAt:    expiresAt,
	}, nil
}

func (r *deviceLockRepo) GetByHint(ctx context.Context, deviceHint string) (*models.DeviceLock, error) {
	row := r.db.QueryRow(ctx, `
		SELECT device_hint,team_id,expires_at
		FROM device_locks WHERE device_hint=$1`, deviceHint)

	var l models.DeviceLock
	if err := row.Scan(&l.DeviceHint, &l.TeamID, &l.ExpiresAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *deviceLockRepo) CleanupExpired(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM device_locks WHERE expires_at < NOW()`)
	return err
}
