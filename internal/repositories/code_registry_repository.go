package repositories

import (
	"context"

	"github.com/huntboard/team-lock-service/internal/models"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

// CodeRegistryRepository reads the code→team registry. The registry is
// maintained by the event-admin process; this service never writes it.
type CodeRegistryRepository interface {
	// GetByCode looks up a mapping by its exact code (no case folding).
	// Returns nil if not found.
	GetByCode(ctx context.Context, code string) (*models.CodeMapping, error)

	// GetByTeamID fetches the mapping for a team, used to resolve the
	// display name when restoring client state from a token.
	GetByTeamID(ctx context.Context, teamID string) (*models.CodeMapping, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type codeRegistryRepo struct{ db DB }

func NewCodeRegistryRepository(db DB) CodeRegistryRepository {
	return &codeRegistryRepo{db: db}
}

func (r *codeRegistryRepo) GetByCode(ctx context.Context, code string) (*models.CodeMapping, error) {
	row := r.db.QueryRow(ctx, baseSelectCodeMapping()+" WHERE code=$1", code)
	return scanCodeMapping(row)
}

func (r *codeRegistryRepo) GetByTeamID(ctx context.Context, teamID string) (*models.CodeMapping, error) {
	row := r.db.QueryRow(ctx, baseSelectCodeMapping()+" WHERE team_id=$1 LIMIT 1", teamID)
	return scanCodeMapping(row)
}

/* ---------- internals ---------- */

func baseSelectCodeMapping() string {
	return `
		SELECT code,team_id,team_display_name,active
		FROM team_codes`
}

func scanCodeMapping(row pgx.Row) (*models.CodeMapping, error) {
	var m models.CodeMapping
	if err := row.Scan(
		&m.Code, &m.TeamID, &m.TeamDisplayName, &m.Active,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
