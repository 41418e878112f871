package models

import "time"

// DeviceLock records that one device currently holds a capability for
// one team. At most one unexpired row may exist per device hint; the
// row is the conflict-detection ledger, nothing else reads it.
type DeviceLock struct {
	DeviceHint string    `json:"device_hint"`
	TeamID     string    `json:"team_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired reports whether the lock has passed its TTL.
func (l *DeviceLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// RemainingTTL returns the time left on the lock, floored at zero.
func (l *DeviceLock) RemainingTTL() time.Duration {
	remaining := time.Until(l.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
