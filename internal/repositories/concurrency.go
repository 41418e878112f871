package repositories

import (
	"context"
	"fmt"

	"github.com/huntboard/team-lock-service/internal/models"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

type UpdateIfVersionFunc func(
	ctx context.Context,
	record *models.TeamRecord,
	expectedVersion int64,
) (pgconn.CommandTag, error)

type GetByIDFunc func(
	ctx context.Context,
	teamID string,
) (*models.TeamRecord, error)

/*
WithRetry runs a read-mutate-update loop with optimistic locking.
*/
func WithRetry(
	ctx context.Context,
	maxRetries int,
	teamID string,
	getByID GetByIDFunc,
	updateIfVersion UpdateIfVersionFunc,
	mutate func(*models.TeamRecord) error,
) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		current, err := getByID(ctx, teamID)
		if err != nil {
			return err
		}
		if current == nil {
			return pgx.ErrNoRows
		}

		oldVersion := current.GetRowVersion()

		if err := mutate(current); err != nil {
			return err
		}

		tag, err := updateIfVersion(ctx, current, oldVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		// someone else updated first – retry
	}
	return fmt.Errorf("too much contention updating %q", teamID)
}
