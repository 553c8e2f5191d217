package goGate

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/password"
)

func TestConfigValidate(t *testing.T) {
	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	hash, err := hasher.Hash("secret-admin")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "max sessions zero invalid",
			mutate: func(c *Config) {
				c.Session.MaxSessions = 0
			},
			wantValid: false,
		},
		{
			name: "janitor slower than idle ttl invalid",
			mutate: func(c *Config) {
				c.Session.IdleTTL = time.Minute
				c.Session.JanitorInterval = 2 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "tick interval zero invalid",
			mutate: func(c *Config) {
				c.Flow.TickInterval = 0
			},
			wantValid: false,
		},
		{
			name: "no secret invalid",
			mutate: func(c *Config) {
				c.Admin.Secret = ""
			},
			wantValid: false,
		},
		{
			name: "hash only valid",
			mutate: func(c *Config) {
				c.Admin.Secret = ""
				c.Admin.SecretHash = hash
			},
			wantValid: true,
		},
		{
			name: "malformed hash invalid",
			mutate: func(c *Config) {
				c.Admin.SecretHash = "plain-text"
			},
			wantValid: false,
		},
		{
			name: "blank subject invalid",
			mutate: func(c *Config) {
				c.Admin.Subject = "  "
			},
			wantValid: false,
		},
		{
			name: "login window zero invalid",
			mutate: func(c *Config) {
				c.Admin.LoginWindow = 0
			},
			wantValid: false,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "short hs256 key invalid",
			mutate: func(c *Config) {
				c.JWT.PrivateKey = []byte("short")
			},
			wantValid: false,
		},
		{
			name: "hs256 key valid",
			mutate: func(c *Config) {
				c.JWT.PrivateKey = []byte(strings.Repeat("k", 32))
			},
			wantValid: true,
		},
		{
			name: "ed25519 without keys invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "unknown signing method invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.MaxSessions = -1
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to fail")
	}
}

func TestBuilderCannotBeReused(t *testing.T) {
	b := New()
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestConfigCloneDetachesKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte(strings.Repeat("a", 32))

	clone := cloneConfig(cfg)
	clone.JWT.PrivateKey[0] = 'b'
	if cfg.JWT.PrivateKey[0] != 'a' {
		t.Fatal("clone must not share key bytes")
	}
}
