package goGate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/MrEthical07/goGate/configstore"
	internalaudit "github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/issuer"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/password"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goGate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	backend configstore.Backend

	clock     clock.Clock
	random    io.Reader
	logger    *slog.Logger
	auditSink AuditSink
	navigate  func(targetURL string)

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a builder holding [DefaultConfig]. No I/O happens before Build.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole engine configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// The client backs the admin login limiter and, unless WithConfigBackend is
// used, the persisted gate configuration.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithConfigBackend sets where the gate configuration is read at Build and
// written on every accepted admin edit. It takes precedence over Redis.
func (b *Builder) WithConfigBackend(backend configstore.Backend) *Builder {
	b.backend = backend
	return b
}

// WithClock replaces the system clock. Countdowns, idle eviction, key
// timestamps and admin token times all follow it.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithRandom replaces crypto/rand as the source for issued keys.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithLogger sets the structured logger. A nil logger discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink also enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithNavigator sets the callback that receives each checkpoint target URL
// when its link is opened. It runs while the session is locked and must not
// call back into the engine for the same session.
func (b *Builder) WithNavigator(fn func(targetURL string)) *Builder {
	b.navigate = fn
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithFlowHistogram enables the Start-to-issuance histogram.
func (b *Builder) WithFlowHistogram(enabled bool) *Builder {
	b.config.Metrics.EnableFlowHistogram = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, loads the persisted gate configuration
// (falling back to defaults, never failing on it) and starts the idle
// session janitor. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := b.clock
	if clk == nil {
		clk = clock.System{}
	}

	// -------- ADMIN TOKENS --------
	ephemeralKey := false
	if cfg.JWT.SigningMethod == "hs256" && len(cfg.JWT.PrivateKey) == 0 {
		key := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("generate admin signing key: %w", err)
		}
		cfg.JWT.PrivateKey = key
		ephemeralKey = true
	}

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           clk.Now,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}

	// -------- CONFIGURATION STORE --------
	backend := b.backend
	switch {
	case backend != nil:
	case b.redis != nil:
		backend = configstore.NewRedisBackend(b.redis, cfg.Store.RedisPrefix)
	default:
		backend = configstore.NewMemoryBackend()
	}

	engine := &Engine{
		config:       cfg,
		clock:        clk,
		logger:       logger,
		issuer:       issuer.New(b.random),
		store:        configstore.New(backend, logger),
		navigate:     b.navigate,
		sessions:     make(map[string]*gateSession),
		jwtManager:   jm,
		secretHasher: hasher,
		ephemeralKey: ephemeralKey,
		metrics:      NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	if b.redis != nil {
		engine.adminLimiter = rate.New(b.redis, rate.Config{
			KeyPrefix:   cfg.Admin.RedisPrefix,
			MaxAttempts: cfg.Admin.MaxLoginAttempts,
			Window:      cfg.Admin.LoginWindow,
		})
	}

	ctx := context.Background()
	loaded, status, loadErr := engine.store.LoadWithStatus(ctx)
	engine.active.Store(&loaded)
	engine.emitAudit(ctx, auditEventConfigLoaded, loadErr == nil, "", "", loadErr, func() map[string]string {
		return map[string]string{
			"status":      status.String(),
			"checkpoints": strconv.Itoa(len(loaded.Checkpoints)),
		}
	})
	logger.Info("gate configuration active",
		"status", status.String(),
		"app_name", loaded.AppName,
		"checkpoints", len(loaded.Checkpoints),
	)
	if ephemeralKey {
		logger.Warn("admin tokens are signed with a generated key and will not survive a restart")
	}
	if cfg.Admin.SecretHash == "" && cfg.Admin.Secret == DefaultAdminSecret {
		logger.Warn("admin secret is the built-in default")
	}

	engine.janitor = clk.Every(cfg.Session.JanitorInterval, engine.evictIdle)

	b.built = true

	return engine, nil
}
