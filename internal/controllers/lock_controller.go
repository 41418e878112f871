package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/huntboard/team-lock-service/internal/dtos"
	"github.com/huntboard/team-lock-service/internal/middleware"
	"github.com/huntboard/team-lock-service/internal/services"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// LockController owns the verification endpoints: acquiring a team lock
// from a code, and resolving an existing token back to a team.
type LockController struct {
	verification services.VerificationService
}

func NewLockController(verification services.VerificationService) *LockController {
	return &LockController{verification: verification}
}

var lockValidate = validator.New()

// Verify handles POST /lock/v1/verify.
func (c *LockController) Verify(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := lockValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid code format", nil, err,
		)
		return
	}

	clientIP := utils.DetectIP(r)

	result, err := c.verification.Verify(r.Context(), req.Code, req.DeviceHint, clientIP)
	if err != nil {
		respondVerifyError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.VerifyResponse{
		TeamID:     result.TeamID,
		TeamName:   result.TeamName,
		LockToken:  result.Token,
		TTLSeconds: int64(time.Until(result.ExpiresAt).Round(time.Second).Seconds()),
	})
}

// Context handles GET /lock/v1/context: given a valid token, it returns
// the bound team without performing any write, so clients can restore
// state after a reload.
func (c *LockController) Context(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.Header.Get(middleware.LockTokenHeader)
	if tokenStr == "" {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Missing lock token", nil,
		)
		return
	}

	teamCtx, err := c.verification.Resolve(r.Context(), tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTokenExpired):
			utils.RespondErrorWithCode(
				w, utils.StatusLockExpired, utils.ErrCodeLockExpired, "Team lock expired", nil,
			)
		case errors.Is(err, utils.ErrTokenInvalid):
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Invalid lock token", nil,
			)
		default:
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
			)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.TeamContextResponse{
		TeamID:   teamCtx.TeamID,
		TeamName: teamCtx.TeamName,
	})
}

func respondVerifyError(w http.ResponseWriter, err error) {
	var (
		conflictErr  *utils.LockConflictError
		rateLimitErr *utils.RateLimitedError
	)
	switch {
	case errors.As(err, &rateLimitErr):
		utils.RespondErrorWithCode(
			w, http.StatusTooManyRequests, utils.ErrCodeRateLimited,
			"Too many attempts. Please try again later.",
			dtos.RateLimitedDetails{RetryAfterSeconds: ceilSeconds(rateLimitErr.RetryAfter)},
		)
	case errors.As(err, &conflictErr):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeLockConflict,
			"This device is already locked to another team.",
			dtos.LockConflictDetails{RemainingTTLSeconds: ceilSeconds(conflictErr.RemainingTTL)},
		)
	case errors.Is(err, utils.ErrTeamCodeInvalid):
		// One message for unknown and inactive codes alike.
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeTeamCodeInvalid, "Team code is not valid", nil,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Please try again", nil, err,
		)
	}
}

func ceilSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return secs
}
