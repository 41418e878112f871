package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Stable machine-readable error codes. Clients branch on these, never on
// the human-readable message.
const (
	ErrCodeInvalidPayload  = "INVALID_PAYLOAD"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeTeamCodeInvalid = "TEAM_CODE_INVALID"
	ErrCodeLockConflict    = "TEAM_LOCK_CONFLICT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeLockExpired     = "TEAM_LOCK_EXPIRED"
	ErrCodeTeamMismatch    = "TEAM_MISMATCH"
	ErrCodeVersionConflict = "VERSION_CONFLICT"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeStorage         = "STORAGE_ERROR"
	ErrCodeInternal        = "INTERNAL_SERVER_ERROR"
)

// StatusLockExpired is the non-standard 419 used for recognized-but-expired
// lock tokens, so clients can show "your session expired" instead of a
// generic auth failure.
const StatusLockExpired = 419

// ErrorResponse carries a stable code, a human message, and an optional
// Details field for additional info (remaining TTLs, current versions, ...).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	// devErr is optional; only handle if provided
	if len(devErrs) > 0 && devErrs[0] != nil {
		Logger.WithFields(logrus.Fields{
			"status": status,
			"error":  devErrs[0].Error(),
		}).Error(publicMessage)
	} else {
		Logger.WithFields(logrus.Fields{
			"status": status,
		}).Error(publicMessage)
	}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
