package models

import (
	"encoding/json"
	"time"
)

// TeamRecord is the authoritative per-team mutable document. State is an
// arbitrary JSON document owned by the clients; this service only
// guarantees that concurrent writers cannot silently overwrite each
// other (RowVersion advances on every successful write).
type TeamRecord struct {
	Versioned
	TeamID    string          `json:"team_id"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (t *TeamRecord) GetID() string { return t.TeamID }
