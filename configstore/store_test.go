package configstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStoreLoadAbsentUsesDefault(t *testing.T) {
	store := New(NewMemoryBackend(), nil)

	cfg, status, err := store.LoadWithStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != LoadedDefaultAbsent {
		t.Fatalf("expected default_absent, got %s", status)
	}
	if cfg.AppName != Default().AppName {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}

func TestStoreLoadMalformedUsesDefault(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.Put(context.Background(), []byte("{broken")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	store := New(backend, nil)

	cfg, status, err := store.LoadWithStatus(context.Background())
	if status != LoadedDefaultMalformed || !errors.Is(err, ErrConfigMalformed) {
		t.Fatalf("expected malformed status, got %s / %v", status, err)
	}
	if cfg.KeyPrefix != "BURAT-" {
		t.Fatalf("expected default prefix, got %q", cfg.KeyPrefix)
	}

	// Load hides the reason entirely.
	if got := store.Load(context.Background()); got.KeyPrefix != "BURAT-" {
		t.Fatalf("Load should return defaults, got %+v", got)
	}
}

func TestStoreLoadInvalidUsesDefault(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.Put(context.Background(), []byte(`{"appName":"x","keyPrefix":"K-","keyExpiryHours":0}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, status, err := New(backend, nil).LoadWithStatus(context.Background())
	if status != LoadedDefaultInvalid || !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected invalid status, got %s / %v", status, err)
	}
}

func TestRedisBackendSaveLoad(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := New(NewRedisBackend(rdb, ""), nil)

	cfg := Default()
	cfg.AppName = "Nexus"
	cfg.Checkpoints = cfg.Checkpoints[:1]
	if err := store.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists(StorageKey) {
		t.Fatalf("expected record under %q", StorageKey)
	}

	got, status, err := store.LoadWithStatus(context.Background())
	if err != nil || status != LoadedPersisted {
		t.Fatalf("expected persisted load, got %s / %v", status, err)
	}
	if got.AppName != "Nexus" || len(got.Checkpoints) != 1 {
		t.Fatalf("unexpected loaded config %+v", got)
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := New(NewRedisBackend(rdb, "gogate:"), nil)
	mr.Close()

	cfg, status, err := store.LoadWithStatus(context.Background())
	if status != LoadedDefaultUnavailable || !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected unavailable status, got %s / %v", status, err)
	}
	if cfg.AppName != Default().AppName {
		t.Fatalf("expected defaults when backend is down")
	}
	if err := store.Save(context.Background(), cfg); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected save to fail with ErrBackendUnavailable, got %v", err)
	}
}

func TestSQLiteBackendUpsert(t *testing.T) {
	backend, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer backend.Close()

	if _, err := backend.Get(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty table, got %v", err)
	}

	store := New(backend, nil)
	first := Default()
	first.KeyExpiryHours = 3
	if err := store.Save(context.Background(), first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second := Default()
	second.KeyExpiryHours = 7
	if err := store.Save(context.Background(), second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got := store.Load(context.Background())
	if got.KeyExpiryHours != 7 {
		t.Fatalf("expected upserted expiry 7, got %d", got.KeyExpiryHours)
	}
}
