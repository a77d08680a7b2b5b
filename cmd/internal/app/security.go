package app

import (
	"errors"

	"github.com/lephu240905/webchat/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
// Fail-fast: silently falling back to weaker refresh-token hashing in
// production is not acceptable, so the same module that performs the hashing
// is interrogated here.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// 32 bytes minimum for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: WEBCHAT_REQUIRE_TOKEN_HMAC=true but WEBCHAT_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: WEBCHAT_REQUIRE_TOKEN_HMAC=true but WEBCHAT_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: WEBCHAT_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
