package session

import (
	"os"
	"strconv"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls access-token TTL, session lifetime, clock skew tolerance,
// refresh entropy size, and the HS256 signing secret.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of JWT access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of a session (and therefore of
	// the refresh token bound to it).
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// RefreshTokenBytes defines the number of random bytes used
	// to generate opaque refresh tokens.
	RefreshTokenBytes int

	// AccessTokenSecret is the HS256 signing key for access tokens.
	AccessTokenSecret []byte
}

// minAccessSecretBytes is the minimum HS256 key length accepted.
const minAccessSecretBytes = 32

// DefaultConfig returns defaults suitable for development.
//
// The signing secret is deliberately absent; production values come from
// the environment.
func DefaultConfig() Config {
	return Config{
		Issuer:            "webchat",
		AccessTokenTTL:    30 * time.Minute,
		RefreshTokenTTL:   14 * 24 * time.Hour,
		ClockSkew:         30 * time.Second,
		RefreshTokenBytes: 32,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - WEBCHAT_AUTH_ACCESS_TOKEN_SECRET (at least 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - WEBCHAT_AUTH_ISSUER
//   - WEBCHAT_AUTH_ACCESS_TTL
//   - WEBCHAT_AUTH_REFRESH_TTL
//   - WEBCHAT_AUTH_CLOCK_SKEW
//   - WEBCHAT_AUTH_REFRESH_TOKEN_BYTES (32..64)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("WEBCHAT_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("WEBCHAT_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("WEBCHAT_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("WEBCHAT_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("WEBCHAT_AUTH_REFRESH_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenBytes = n
	}

	secret := os.Getenv("WEBCHAT_AUTH_ACCESS_TOKEN_SECRET")
	if len(secret) < minAccessSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.AccessTokenSecret = []byte(secret)

	return cfg, nil
}
