package models

// CodeMapping maps an opaque human-readable code to a team. Rows are
// owned by the external event-admin process; this service only reads
// them. Inactive mappings behave exactly like unknown codes.
type CodeMapping struct {
	Code            string `json:"code"`
	TeamID          string `json:"team_id"`
	TeamDisplayName string `json:"team_display_name"`
	Active          bool   `json:"active"`
}
