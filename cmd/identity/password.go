package identity

import (
	"github.com/lephu240905/webchat/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string.
//
// Parameters and policy come from cmd/security/password (env + defaults)
// so identity can never drift from the configured hashing cost. Policy
// violations (too short, too long, weak) surface as errors for the caller
// to map to a validation failure.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, not a weak fallback.
		return "", err
	}
	return cfg.Hash(plain)
}

// VerifyPassword checks a password against a PHC Argon2id hash.
//
// It never returns an error to the caller: a malformed or oversized hash
// verifies as false, exactly like a wrong password, so sign-in failure
// handling stays uniform.
func VerifyPassword(plain string, encodedPHC string) bool {
	cfg, err := password.FromEnv()
	if err != nil {
		cfg = password.DefaultConfig()
	}

	ok, err := cfg.Verify(encodedPHC, plain)
	if err != nil {
		return false
	}
	return ok
}
