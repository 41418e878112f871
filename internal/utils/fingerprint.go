package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeviceFingerprintLength is the number of hex characters kept from the
// hash. Truncation is intentional: the fingerprint only needs enough
// entropy to tell devices apart for the lifetime of a lock, and keeping
// it lossy means it can never be reversed into connection metadata.
const DeviceFingerprintLength = 16

// DeviceFingerprint derives the conflict-detection hint for a device.
// It is a pure function of the server salt, the client-supplied hint
// (may be empty), and the client IP. Nothing permanently identifying a
// human (email, account ID) may ever be fed into it.
func DeviceFingerprint(salt []byte, providedHint, clientIP string) string {
	hasher := sha256.New()
	hasher.Write(salt)
	hasher.Write([]byte(providedHint))
	hasher.Write([]byte("|"))
	hasher.Write([]byte(clientIP))
	return hex.EncodeToString(hasher.Sum(nil))[:DeviceFingerprintLength]
}

// HashCodePrefix returns a short hash of a team code for log lines.
// Raw codes are credentials and must never reach the logs.
func HashCodePrefix(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])[:8]
}
