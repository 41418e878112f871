package config

import (
	"encoding/base64"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/huntboard/team-lock-service/internal/utils"
)

// Config holds all application configuration, including secrets, TTLs
// and rate limits.
type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	// LockTokenSecret signs capability tokens (HMAC). FingerprintSalt
	// is a separate secret so device fingerprints cannot be correlated
	// with anything outside this service.
	LockTokenSecret []byte
	FingerprintSalt []byte

	LockTokenTTL             time.Duration
	VerifyLimitPerIPPerHour  int
	GlobalVerifyLimitPerHour int
	RateLimitWindow          time.Duration

	ShortLockTTL bool
}

const AppName = "team-lock-service"

// Constants for time-based configuration defaults.
const (
	DefaultLockTokenTTL             = 24 * time.Hour
	TestShortLockTokenTTL           = 2 * time.Second
	DefaultVerifyLimitPerIPPerHour  = 30
	DefaultGlobalVerifyLimitPerHour = 5000
	TestShortGlobalVerifyLimit      = 50
	DefaultRateLimitWindow          = 1 * time.Hour
	MinSecretLength                 = 32
)

// LoadConfig reads the environment (optionally seeded from a .env file)
// and returns a *Config. Missing required values are fatal: the service
// must never start with a default signing secret.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found; relying on process environment")
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}
	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	lockTokenSecret := decodeSecret("LOCK_TOKEN_SECRET_BASE64")
	fingerprintSalt := decodeSecret("FINGERPRINT_SALT_BASE64")

	lockTokenTTL := DefaultLockTokenTTL
	globalVerifyLimit := DefaultGlobalVerifyLimitPerHour

	// Short TTLs let the expiry paths be exercised in test runs without
	// waiting a day.
	shortLockTTL := os.Getenv("SHORT_LOCK_TTL") == "true"
	if shortLockTTL {
		lockTokenTTL = TestShortLockTokenTTL
		globalVerifyLimit = TestShortGlobalVerifyLimit
		utils.Logger.Warn("SHORT_LOCK_TTL enabled; lock tokens expire in seconds")
	}

	return &Config{
		AppName:                  AppName,
		AppPort:                  appPort,
		AppUrl:                   appUrl,
		DBUrl:                    dbUrl,
		LockTokenSecret:          lockTokenSecret,
		FingerprintSalt:          fingerprintSalt,
		LockTokenTTL:             lockTokenTTL,
		VerifyLimitPerIPPerHour:  DefaultVerifyLimitPerIPPerHour,
		GlobalVerifyLimitPerHour: globalVerifyLimit,
		RateLimitWindow:          DefaultRateLimitWindow,
		ShortLockTTL:             shortLockTTL,
	}
}

func decodeSecret(envVar string) []byte {
	raw, ok := os.LookupEnv(envVar)
	if !ok || raw == "" {
		utils.Logger.Fatalf("%s env var is missing", envVar)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("Failed to decode %s from base64", envVar)
	}
	if len(decoded) < MinSecretLength {
		utils.Logger.Fatalf("%s must decode to at least %d bytes", envVar, MinSecretLength)
	}
	return decoded
}
