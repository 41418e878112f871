package dtos

import "encoding/json"

// TeamRecordResponse returns the current document with the version tag
// the client must echo back on its next write.
type TeamRecordResponse struct {
	TeamID     string          `json:"teamId"`
	State      json.RawMessage `json:"state"`
	VersionTag int64           `json:"versionTag"`
}

// UpdateTeamRecordRequest proposes a full replacement of the team
// document at the observed version.
type UpdateTeamRecordRequest struct {
	State      json.RawMessage `json:"state" validate:"required"`
	VersionTag int64           `json:"versionTag" validate:"gte=1"`
}

type UpdateTeamRecordResponse struct {
	TeamID     string `json:"teamId"`
	VersionTag int64  `json:"versionTag"`
}

// VersionConflictDetails rides the VERSION_CONFLICT error response so
// the caller can re-read, re-apply, and retry.
type VersionConflictDetails struct {
	CurrentVersionTag int64 `json:"currentVersionTag"`
}
