package password

import (
	"errors"
	"strings"
	"testing"
)

func cheapConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(cheapConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !IsHash(hash) {
		t.Fatalf("IsHash rejected %s", hash)
	}

	ok, err := hasher.Verify("admin123", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, got %v / %v", ok, err)
	}
	ok, err = hasher.Verify("admin124", hash)
	if err != nil || ok {
		t.Fatalf("expected wrong secret to fail, got %v / %v", ok, err)
	}
}

func TestHashLengthBounds(t *testing.T) {
	hasher, err := NewArgon2(cheapConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrSecretLength) {
		t.Fatalf("expected ErrSecretLength for short secret, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("x", MaxSecretBytes+1)); !errors.Is(err, ErrSecretLength) {
		t.Fatalf("expected ErrSecretLength for long secret, got %v", err)
	}
	if _, err := hasher.Verify(strings.Repeat("x", MaxSecretBytes+1), "$argon2id$"); !errors.Is(err, ErrSecretLength) {
		t.Fatalf("expected ErrSecretLength on verify, got %v", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(cheapConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := weak.Hash("operator-secret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if up, err := weak.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("same params should not need upgrade, got %v / %v", up, err)
	}

	strong, err := NewArgon2(DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("stronger params should need upgrade, got %v / %v", up, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(cheapConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	for _, bad := range []string{
		"",
		"admin123",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaGhhc2hoYXNoaGFzaA",
	} {
		if _, err := hasher.Verify("admin123", bad); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", bad, err)
		}
		if IsHash(bad) {
			t.Fatalf("IsHash accepted %q", bad)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cfg := cheapConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected low memory to be rejected")
	}
}
