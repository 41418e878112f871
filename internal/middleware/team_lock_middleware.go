package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huntboard/team-lock-service/internal/services"
	"github.com/huntboard/team-lock-service/internal/utils"
)

type contextKey string

// ContextKeyTeamID holds the team ID taken from the verified lock
// token. Handlers must read the team identity from here, never from the
// request alone.
const ContextKeyTeamID = contextKey("teamID")

// LockTokenHeader is the dedicated header every team-scoped request
// must carry.
const LockTokenHeader = "X-Team-Lock"

// TeamLockMiddleware guards every team-scoped endpoint with the same
// three checks, in order:
//   - missing or unverifiable token       → 401 INVALID_TOKEN
//   - verified but expired token          → 419 TEAM_LOCK_EXPIRED
//   - token team ≠ {teamId} path target   → 403 TEAM_MISMATCH
//
// On success the verified team ID is attached to the request context.
func TeamLockMiddleware(tokens services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get(LockTokenHeader)
			if tokenStr == "" {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Missing lock token", nil,
				)
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, utils.StatusLockExpired, utils.ErrCodeLockExpired, "Team lock expired", nil, err,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Invalid lock token", nil, err,
				)
				return
			}

			// The path target is only ever cross-checked against the
			// token; it never grants access on its own.
			targetTeamID := mux.Vars(r)["teamId"]
			if targetTeamID == "" || targetTeamID != claims.TeamID {
				// Logged distinctly: a valid token aimed at another
				// team's record is a tampering signal, not user error.
				utils.Logger.Warnf(
					"Team mismatch: token for %s targeted %s (%s %s)",
					claims.TeamID, targetTeamID, r.Method, r.URL.Path,
				)
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeTeamMismatch, "Token does not authorize this team", nil,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyTeamID, claims.TeamID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
