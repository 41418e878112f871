package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/huntboard/team-lock-service/internal/dtos"
	"github.com/huntboard/team-lock-service/internal/middleware"
	"github.com/huntboard/team-lock-service/internal/repositories"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// TeamRecordController serves the per-team mutable document. Every
// route is behind TeamLockMiddleware, so the team identity is always
// taken from the verified token on the request context.
type TeamRecordController struct {
	records repositories.TeamRecordRepository
}

func NewTeamRecordController(records repositories.TeamRecordRepository) *TeamRecordController {
	return &TeamRecordController{records: records}
}

var teamValidate = validator.New()

func teamIDFromContext(r *http.Request) string {
	teamID, _ := r.Context().Value(middleware.ContextKeyTeamID).(string)
	return teamID
}

// GetRecord handles GET /teams/v1/{teamId}/record. A team's first read
// lazily creates an empty document, so the read-modify-write loop works
// without any seeding step.
func (c *TeamRecordController) GetRecord(w http.ResponseWriter, r *http.Request) {
	teamID := teamIDFromContext(r)

	record, err := c.records.GetByTeamID(r.Context(), teamID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
		)
		return
	}
	if record == nil {
		if err := c.records.Create(r.Context(), teamID, nil); err != nil {
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
			)
			return
		}
		record, err = c.records.GetByTeamID(r.Context(), teamID)
		if err != nil || record == nil {
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
			)
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.TeamRecordResponse{
		TeamID:     record.TeamID,
		State:      record.State,
		VersionTag: record.RowVersion,
	})
}

// UpdateRecord handles PUT /teams/v1/{teamId}/record. The write only
// succeeds if the caller's versionTag still matches the stored row; a
// stale tag gets VERSION_CONFLICT plus the current tag, and the caller
// re-reads and retries. Nothing is ever merged server-side.
func (c *TeamRecordController) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	teamID := teamIDFromContext(r)

	var req dtos.UpdateTeamRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := teamValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid record payload", nil, err,
		)
		return
	}

	current, err := c.records.GetByTeamID(r.Context(), teamID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
		)
		return
	}
	if current == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Team record not found", nil,
		)
		return
	}

	current.State = req.State
	tag, err := c.records.UpdateIfVersion(r.Context(), current, req.VersionTag)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
		)
		return
	}
	if tag.RowsAffected() == 0 {
		// Lost the race: report the winner's version so the client can
		// re-read and retry.
		latest, lerr := c.records.GetByTeamID(r.Context(), teamID)
		details := dtos.VersionConflictDetails{}
		if lerr == nil && latest != nil {
			details.CurrentVersionTag = latest.RowVersion
		}
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeVersionConflict,
			"Record was updated by someone else. Reload and try again.", details,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.UpdateTeamRecordResponse{
		TeamID:     teamID,
		VersionTag: req.VersionTag + 1,
	})
}
