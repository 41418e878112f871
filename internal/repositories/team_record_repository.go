package repositories

import (
	"context"
	"encoding/json"

	"github.com/huntboard/team-lock-service/internal/models"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

// TeamRecordRepository stores the per-team mutable document under
// optimistic concurrency. Every write carries the row version observed
// at read time; a stale version affects zero rows and the caller must
// re-read and retry, never merge.
type TeamRecordRepository interface {
	GetByTeamID(ctx context.Context, teamID string) (*models.TeamRecord, error)

	// Create inserts an empty record for a team. Used when a team's
	// first write arrives before any admin seeding.
	Create(ctx context.Context, teamID string, state json.RawMessage) error

	// UpdateIfVersion performs the compare-and-swap write. The returned
	// CommandTag reports zero rows affected on a version conflict.
	UpdateIfVersion(ctx context.Context, record *models.TeamRecord, expectedVersion int64) (pgconn.CommandTag, error)

	// UpdateWithRetry runs a bounded read-mutate-CAS loop for
	// server-side mutations that can safely be recomputed.
	UpdateWithRetry(ctx context.Context, teamID string, mutate func(*models.TeamRecord) error) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type teamRecordRepo struct{ db DB }

func NewTeamRecordRepository(db DB) TeamRecordRepository {
	return &teamRecordRepo{db: db}
}

func (r *teamRecordRepo) GetByTeamID(ctx context.Context, teamID string) (*models.TeamRecord, error) {
	row := r.db.QueryRow(ctx, baseSelectTeamRecord()+" WHERE team_id=$1", teamID)
	return scanTeamRecord(row)
}

func (r *teamRecordRepo) Create(ctx context.Context, teamID string, state json.RawMessage) error {
	if state == nil {
		state = json.RawMessage(`{}`)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO team_records (team_id, state, row_version, updated_at)
		VALUES ($1,$2,1,NOW())
		ON CONFLICT (team_id) DO NOTHING
	`, teamID, state)
	return err
}

func (r *teamRecordRepo) UpdateIfVersion(
	ctx context.Context,
	record *models.TeamRecord,
	expectedVersion int64,
) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE team_records
		SET state=$1, row_version=row_version+1, updated_at=NOW()
		WHERE team_id=$2 AND row_version=$3
	`, record.State, record.TeamID, expectedVersion)
}

func (r *teamRecordRepo) UpdateWithRetry(
	ctx context.Context,
	teamID string,
	mutate func(*models.TeamRecord) error,
) error {
	return WithRetry(ctx, 3, teamID, r.GetByTeamID, r.UpdateIfVersion, mutate)
}

/* ---------- internals ---------- */

func baseSelectTeamRecord() string {
	return `
		SELECT team_id,state,row_version,updated_at
		FROM team_records`
}

func scanTeamRecord(row pgx.Row) (*models.TeamRecord, error) {
	var t models.TeamRecord
	if err := row.Scan(
		&t.TeamID, &t.State, &t.RowVersion, &t.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
