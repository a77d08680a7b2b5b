package token

import (
	"errors"
	"testing"
)

func TestHashSHA256Hex(t *testing.T) {
	got := HashSHA256Hex("abc")
	if len(got) != 64 {
		t.Fatalf("digest length = %d, want 64", len(got))
	}
	// Stable, well-known vector.
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestHashRefreshTokenHex_Modes(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	plainMode := HashRefreshTokenHex("refresh-token-value")
	if plainMode != HashSHA256Hex("refresh-token-value") {
		t.Fatalf("expected SHA-256 fallback without HMAC key")
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	hmacMode := HashRefreshTokenHex("refresh-token-value")
	if len(hmacMode) != 64 {
		t.Fatalf("digest length = %d, want 64", len(hmacMode))
	}
	if hmacMode == plainMode {
		t.Fatalf("HMAC digest must differ from plain SHA-256 digest")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyMissing) {
		t.Fatalf("err=%v want ErrHMACKeyMissing", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyTooShort) {
		t.Fatalf("err=%v want ErrHMACKeyTooShort", err)
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	key, err := HMACKeyFromEnv(32)
	if err != nil {
		t.Fatalf("HMACKeyFromEnv: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("key length = %d, want 32", len(key))
	}
}
