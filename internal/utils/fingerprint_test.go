package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceFingerprintIsDeterministic(t *testing.T) {
	salt := []byte("fedcba9876543210fedcba9876543210")

	a := DeviceFingerprint(salt, "dev-1", "203.0.113.7")
	b := DeviceFingerprint(salt, "dev-1", "203.0.113.7")
	require.Equal(t, a, b)
	require.Len(t, a, DeviceFingerprintLength)
}

func TestDeviceFingerprintVariesWithInputs(t *testing.T) {
	salt := []byte("fedcba9876543210fedcba9876543210")
	base := DeviceFingerprint(salt, "dev-1", "203.0.113.7")

	require.NotEqual(t, base, DeviceFingerprint(salt, "dev-2", "203.0.113.7"))
	require.NotEqual(t, base, DeviceFingerprint(salt, "dev-1", "198.51.100.4"))
	require.NotEqual(t, base, DeviceFingerprint([]byte("another-salt-another-salt-32byte"), "dev-1", "203.0.113.7"))
}

func TestDeviceFingerprintNeverEchoesInputs(t *testing.T) {
	salt := []byte("fedcba9876543210fedcba9876543210")
	fp := DeviceFingerprint(salt, "dev-1", "203.0.113.7")

	require.NotContains(t, fp, "dev-1")
	require.NotContains(t, fp, "203.0.113.7")
}

func TestHashCodePrefixHidesRawCode(t *testing.T) {
	prefix := HashCodePrefix("ALPHA01")
	require.Len(t, prefix, 8)
	require.False(t, strings.Contains("ALPHA01", prefix))
	require.Equal(t, prefix, HashCodePrefix("ALPHA01"))
	require.NotEqual(t, prefix, HashCodePrefix("BETA02"))
}
