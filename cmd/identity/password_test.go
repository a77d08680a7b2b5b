package identity

import "testing"

// cheapArgon2 lowers the hashing cost so tests stay fast without changing
// the verification path.
func cheapArgon2(t *testing.T) {
	t.Helper()
	t.Setenv("WEBCHAT_ARGON2_MEMORY_KIB", "16384")
	t.Setenv("WEBCHAT_ARGON2_ITERATIONS", "1")
	t.Setenv("WEBCHAT_ARGON2_PARALLELISM", "1")
}

func TestHashAndVerifyPassword(t *testing.T) {
	cheapArgon2(t)

	hash, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("pw123456", hash) {
		t.Fatalf("verify of correct password failed")
	}
	if VerifyPassword("pw123457", hash) {
		t.Fatalf("verify of wrong password succeeded")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cheapArgon2(t)

	for _, hash := range []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=3,p=2$short",
		"$2b$10$bcrypt-style-hash-not-supported",
	} {
		if VerifyPassword("pw123456", hash) {
			t.Fatalf("verify succeeded for malformed hash %q", hash)
		}
	}
}

func TestHashPasswordPolicy(t *testing.T) {
	cheapArgon2(t)

	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("hash of too-short password succeeded")
	}
}
