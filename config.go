package goGate

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/password"
)

// DefaultAdminSecret is the shared admin secret used when none is configured.
const DefaultAdminSecret = "admin123"

// Config defines a public type used by goGate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Flow    FlowConfig
	Admin   AdminConfig
	JWT     JWTConfig
	Store   StoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goGate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	MaxSessions     int
	IdleTTL         time.Duration
	JanitorInterval time.Duration
}

/*
====================================
FLOW CONFIG
====================================
*/

// FlowConfig controls checkpoint countdowns. TickInterval is the length of
// one countdown second; tests and dry runs may shorten it.
type FlowConfig struct {
	TickInterval time.Duration
}

/*
====================================
ADMIN CONFIG
====================================
*/

// AdminConfig defines a public type used by goGate APIs.
//
// When SecretHash is set it takes precedence over Secret. MaxLoginAttempts
// and LoginWindow only apply when the builder has a Redis client.
type AdminConfig struct {
	Secret           string
	SecretHash       string
	Subject          string
	MaxLoginAttempts int
	LoginWindow      time.Duration
	RedisPrefix      string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goGate APIs.
//
// With hs256 and an empty PrivateKey the builder generates a random key, so
// admin tokens do not survive a restart.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig controls where the gate configuration is persisted when the
// builder creates the store itself.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goGate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goGate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled             bool
	EnableFlowHistogram bool
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			MaxSessions:     10000,
			IdleTTL:         30 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Flow: FlowConfig{
			TickInterval: time.Second,
		},
		Admin: AdminConfig{
			Secret:           DefaultAdminSecret,
			Subject:          "admin",
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
			RedisPrefix:      "gg:",
		},
		JWT: JWTConfig{
			TTL:           15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "gogate",
		},
		Store: StoreConfig{
			RedisPrefix: "",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:             false,
			EnableFlowHistogram: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Session
	if c.Session.MaxSessions <= 0 {
		return errors.New("Session MaxSessions must be > 0")
	}
	if c.Session.IdleTTL <= 0 {
		return errors.New("Session IdleTTL must be > 0")
	}
	if c.Session.JanitorInterval <= 0 {
		return errors.New("Session JanitorInterval must be > 0")
	}
	if c.Session.JanitorInterval > c.Session.IdleTTL {
		return errors.New("Session JanitorInterval must not exceed IdleTTL")
	}

	// Flow
	if c.Flow.TickInterval <= 0 {
		return errors.New("Flow TickInterval must be > 0")
	}

	// Admin
	if c.Admin.Secret == "" && c.Admin.SecretHash == "" {
		return errors.New("Admin Secret or SecretHash must be set")
	}
	if c.Admin.SecretHash != "" && !password.IsHash(c.Admin.SecretHash) {
		return errors.New("Admin SecretHash must be an argon2id PHC string")
	}
	if strings.TrimSpace(c.Admin.Subject) == "" {
		return errors.New("Admin Subject must be set")
	}
	if c.Admin.MaxLoginAttempts <= 0 {
		return errors.New("Admin MaxLoginAttempts must be > 0")
	}
	if c.Admin.LoginWindow <= 0 {
		return errors.New("Admin LoginWindow must be > 0")
	}

	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) > 0 && len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 PrivateKey must be at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
