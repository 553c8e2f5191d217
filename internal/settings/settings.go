// Package settings loads the gogate server settings file.
//
// Settings are TOML. Secrets may be supplied through GOGATE_* environment
// variables instead, which win over the file.
package settings

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/pelletier/go-toml/v2"
)

// RedisMemory selects an in-process Redis for local runs.
const RedisMemory = "memory"

// Backend names accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Duration is a time.Duration written as a Go duration string ("15m").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Settings is the root of the settings file.
type Settings struct {
	Server  ServerSettings  `toml:"server"`
	Log     LogSettings     `toml:"log"`
	Store   StoreSettings   `toml:"store"`
	Redis   RedisSettings   `toml:"redis"`
	Admin   AdminSettings   `toml:"admin"`
	Session SessionSettings `toml:"session"`
	Audit   AuditSettings   `toml:"audit"`
	Metrics MetricsSettings `toml:"metrics"`
}

type ServerSettings struct {
	Addr            string   `toml:"addr"`
	SessionRate     float64  `toml:"session_rate"`
	SessionBurst    int      `toml:"session_burst"`
	TrustProxy      bool     `toml:"trust_proxy"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StoreSettings struct {
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
	KeyPrefix  string `toml:"key_prefix"`
}

type RedisSettings struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type AdminSettings struct {
	Secret           string   `toml:"secret"`
	SecretHash       string   `toml:"secret_hash"`
	SigningKey       string   `toml:"signing_key"`
	TokenTTL         Duration `toml:"token_ttl"`
	MaxLoginAttempts int      `toml:"max_login_attempts"`
	LoginWindow      Duration `toml:"login_window"`
}

type SessionSettings struct {
	MaxSessions int      `toml:"max_sessions"`
	IdleTTL     Duration `toml:"idle_ttl"`
}

type AuditSettings struct {
	Enabled bool   `toml:"enabled"`
	Output  string `toml:"output"`
}

type MetricsSettings struct {
	Enabled bool `toml:"enabled"`
}

// Default returns settings for a local run with no settings file.
func Default() Settings {
	var s Settings
	applyDefaults(&s)
	return s
}

// Load reads path, applies defaults and environment overrides, and
// validates the result. An empty path skips the file.
func Load(path string) (*Settings, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Settings, error) {
	var s Settings
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := Parse(data, &s); err != nil {
			return nil, err
		}
	}

	applyDefaults(&s)
	applyEnv(&s, lookup)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Parse decodes TOML settings into s without applying defaults.
func Parse(data []byte, s *Settings) error {
	if err := toml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}
	return nil
}

func applyDefaults(s *Settings) {
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}
	if s.Server.SessionRate == 0 {
		s.Server.SessionRate = 5
	}
	if s.Server.SessionBurst == 0 {
		s.Server.SessionBurst = 20
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "text"
	}

	if s.Store.Backend == "" {
		s.Store.Backend = BackendMemory
		if s.Redis.Addr != "" {
			s.Store.Backend = BackendRedis
		}
	}
	if s.Store.SQLitePath == "" {
		s.Store.SQLitePath = "gogate.db"
	}

	defaults := goGate.DefaultConfig()
	if s.Admin.TokenTTL == 0 {
		s.Admin.TokenTTL = Duration(defaults.JWT.TTL)
	}
	if s.Admin.MaxLoginAttempts == 0 {
		s.Admin.MaxLoginAttempts = defaults.Admin.MaxLoginAttempts
	}
	if s.Admin.LoginWindow == 0 {
		s.Admin.LoginWindow = Duration(defaults.Admin.LoginWindow)
	}
	if s.Session.MaxSessions == 0 {
		s.Session.MaxSessions = defaults.Session.MaxSessions
	}
	if s.Session.IdleTTL == 0 {
		s.Session.IdleTTL = Duration(defaults.Session.IdleTTL)
	}

	if s.Audit.Output == "" {
		s.Audit.Output = "log"
	}
}

func applyEnv(s *Settings, lookup func(string) (string, bool)) {
	if v, ok := lookup("GOGATE_ADDR"); ok && v != "" {
		s.Server.Addr = v
	}
	if v, ok := lookup("GOGATE_ADMIN_SECRET"); ok && v != "" {
		s.Admin.Secret = v
	}
	if v, ok := lookup("GOGATE_ADMIN_SECRET_HASH"); ok && v != "" {
		s.Admin.SecretHash = v
	}
	if v, ok := lookup("GOGATE_SIGNING_KEY"); ok && v != "" {
		s.Admin.SigningKey = v
	}
	if v, ok := lookup("GOGATE_REDIS_ADDR"); ok && v != "" {
		s.Redis.Addr = v
	}
	if v, ok := lookup("GOGATE_REDIS_PASSWORD"); ok && v != "" {
		s.Redis.Password = v
	}
}

// Validate checks settings that the engine does not check itself.
func (s *Settings) Validate() error {
	if s.Server.SessionRate < 0 || s.Server.SessionBurst < 0 {
		return errors.New("server.session_rate and server.session_burst must be >= 0")
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		return err
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", s.Log.Format)
	}

	switch s.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if s.Redis.Addr == "" {
			return errors.New("store.backend redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", s.Store.Backend)
	}

	if s.Admin.SigningKey != "" && len(s.Admin.SigningKey) < 32 {
		return errors.New("admin.signing_key must be at least 32 bytes")
	}
	if s.Session.MaxSessions < 0 {
		return errors.New("session.max_sessions must be >= 0")
	}
	return nil
}

// EngineConfig maps the settings onto an engine configuration.
func (s *Settings) EngineConfig() goGate.Config {
	cfg := goGate.DefaultConfig()

	if s.Admin.Secret != "" {
		cfg.Admin.Secret = s.Admin.Secret
	}
	cfg.Admin.SecretHash = s.Admin.SecretHash
	cfg.Admin.MaxLoginAttempts = s.Admin.MaxLoginAttempts
	cfg.Admin.LoginWindow = time.Duration(s.Admin.LoginWindow)
	if s.Admin.SigningKey != "" {
		cfg.JWT.PrivateKey = []byte(s.Admin.SigningKey)
	}
	cfg.JWT.TTL = time.Duration(s.Admin.TokenTTL)

	cfg.Session.MaxSessions = s.Session.MaxSessions
	cfg.Session.IdleTTL = time.Duration(s.Session.IdleTTL)
	if cfg.Session.JanitorInterval > cfg.Session.IdleTTL {
		cfg.Session.JanitorInterval = cfg.Session.IdleTTL
	}

	cfg.Store.RedisPrefix = s.Store.KeyPrefix
	cfg.Audit.Enabled = s.Audit.Enabled
	cfg.Metrics.Enabled = s.Metrics.Enabled
	cfg.Metrics.EnableFlowHistogram = s.Metrics.Enabled
	return cfg
}

// Logger builds the process logger from the log section.
func (s *Settings) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(s.Log.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if s.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log.level %q", raw)
	}
}
