package dtos

// VerifyRequest is the payload for acquiring a team lock. DeviceHint is
// optional client-side entropy; the server always folds it into its own
// salted fingerprint and never trusts it for identity.
type VerifyRequest struct {
	Code       string `json:"code" validate:"required,min=4,max=64"`
	DeviceHint string `json:"deviceHint,omitempty" validate:"max=128"`
}

type VerifyResponse struct {
	TeamID     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	LockToken  string `json:"lockToken"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

// LockConflictDetails rides the TEAM_LOCK_CONFLICT error response so
// the client can render "try again in Xh".
type LockConflictDetails struct {
	RemainingTTLSeconds int64 `json:"remainingTtlSeconds"`
}

// RateLimitedDetails rides the RATE_LIMITED error response.
type RateLimitedDetails struct {
	RetryAfterSeconds int64 `json:"retryAfterSeconds"`
}

type TeamContextResponse struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}
