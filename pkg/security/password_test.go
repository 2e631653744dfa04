package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd!":   true,
		"Aa1@aaaa":    true,
		"Aa1@aaa":     false,
		"password1!":  false,
		"PASSWORD1!":  false,
		"Password!!":  false,
		"Password11":  false,
		"Passw0rd#":   false,
		"Pass w0rd!":  false,
		"Zz9&Zz9&Zz9": true,
	}
	for input, want := range cases {
		if got := security.IsStrongPassword(input); got != want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestHashesSurviveCostChanges(t *testing.T) {
	cheap := config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("Fi3ld@Force", cheap)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected encoding %s", hash)
	}

	// Verification reads the cost from the hash, not from the current config.
	if ok, err := security.VerifyPassword("Fi3ld@Force", hash); err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordRejectsTamperedHeader(t *testing.T) {
	hash, err := security.HashPassword("Fi3ld@Force", config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	for _, broken := range []string{
		strings.Replace(hash, "v=19", "v=16", 1),
		strings.Replace(hash, "m=64", "m=0", 1),
		strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
	} {
		if _, err := security.VerifyPassword("Fi3ld@Force", broken); !errors.Is(err, security.ErrInvalidHash) {
			t.Errorf("%s: expected ErrInvalidHash, got %v", broken, err)
		}
	}
}
