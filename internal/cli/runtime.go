package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/settings"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// runtime holds the resources shared by commands that talk to a backend.
type runtime struct {
	settings *settings.Settings
	logger   *slog.Logger
	redis    redis.UniversalClient
	backend  configstore.Backend
	closers  []func()
}

func openRuntime(ctx context.Context, opts *rootOptions, logOut io.Writer) (*runtime, error) {
	s, err := settings.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.redisAddr != "" {
		s.Redis.Addr = opts.redisAddr
		if opts.backend == "" && s.Store.Backend == settings.BackendMemory {
			s.Store.Backend = settings.BackendRedis
		}
	}
	if opts.backend != "" {
		s.Store.Backend = opts.backend
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := s.Logger(logOut)
	if err != nil {
		return nil, err
	}

	rt := &runtime{settings: s, logger: logger}
	if err := rt.openRedis(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.openBackend(); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) openRedis(ctx context.Context) error {
	addr := rt.settings.Redis.Addr
	switch addr {
	case "":
		return nil
	case settings.RedisMemory:
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start in-process redis: %w", err)
		}
		rt.closers = append(rt.closers, mr.Close)
		addr = mr.Addr()
		rt.logger.Warn("using in-process redis, state is lost on exit")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: rt.settings.Redis.Password,
		DB:       rt.settings.Redis.DB,
	})
	rt.closers = append(rt.closers, func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	rt.redis = client
	return nil
}

func (rt *runtime) openBackend() error {
	switch rt.settings.Store.Backend {
	case settings.BackendRedis:
		if rt.redis == nil {
			return fmt.Errorf("store backend redis requires --redis or redis.addr")
		}
		rt.backend = configstore.NewRedisBackend(rt.redis, rt.settings.Store.KeyPrefix)
	case settings.BackendSQLite:
		db, err := configstore.OpenSQLite(rt.settings.Store.SQLitePath)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		rt.backend = db
	default:
		rt.backend = configstore.NewMemoryBackend()
		rt.logger.Warn("using in-memory configuration backend, admin edits are lost on exit")
	}
	return nil
}

func (rt *runtime) store() *configstore.Store {
	return configstore.New(rt.backend, rt.logger)
}

// builder returns an engine builder for cfg wired to the runtime's
// resources.
func (rt *runtime) builder(cfg goGate.Config) (*goGate.Builder, error) {
	b := goGate.New().
		WithConfig(cfg).
		WithLogger(rt.logger).
		WithConfigBackend(rt.backend)
	if rt.redis != nil {
		b = b.WithRedis(rt.redis)
	}

	if rt.settings.Audit.Enabled {
		sink, err := rt.auditSink()
		if err != nil {
			return nil, err
		}
		b = b.WithAuditSink(sink)
	}
	return b, nil
}

func (rt *runtime) auditSink() (goGate.AuditSink, error) {
	switch out := rt.settings.Audit.Output; out {
	case "log":
		return goGate.NewSlogSink(rt.logger.With("component", "audit")), nil
	case "stderr":
		return goGate.NewJSONWriterSink(os.Stderr), nil
	case "stdout":
		return goGate.NewJSONWriterSink(os.Stdout), nil
	default:
		f, err := os.OpenFile(out, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit output: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = f.Close() })
		return goGate.NewJSONWriterSink(f), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
