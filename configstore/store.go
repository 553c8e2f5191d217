package configstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// LoadStatus reports where a loaded configuration came from.
type LoadStatus int

const (
	// LoadedPersisted means the stored record was decoded and valid.
	LoadedPersisted LoadStatus = iota
	// LoadedDefaultAbsent means no record existed.
	LoadedDefaultAbsent
	// LoadedDefaultMalformed means the record could not be decoded.
	LoadedDefaultMalformed
	// LoadedDefaultInvalid means the record decoded but failed Validate.
	LoadedDefaultInvalid
	// LoadedDefaultUnavailable means the backend could not be read.
	LoadedDefaultUnavailable
)

func (s LoadStatus) String() string {
	switch s {
	case LoadedPersisted:
		return "persisted"
	case LoadedDefaultAbsent:
		return "default_absent"
	case LoadedDefaultMalformed:
		return "default_malformed"
	case LoadedDefaultInvalid:
		return "default_invalid"
	case LoadedDefaultUnavailable:
		return "default_unavailable"
	default:
		return "unknown"
	}
}

// Store reads and writes the active configuration through a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps backend. A nil logger discards output.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns the persisted configuration, or Default when it is absent or
// unusable. It never fails.
func (s *Store) Load(ctx context.Context) Configuration {
	cfg, _, _ := s.LoadWithStatus(ctx)
	return cfg
}

// LoadWithStatus is Load plus the reason a default was substituted. The
// returned error is informational; the configuration is always usable.
func (s *Store) LoadWithStatus(ctx context.Context) (Configuration, LoadStatus, error) {
	if s == nil || s.backend == nil {
		return Default(), LoadedDefaultAbsent, nil
	}

	data, err := s.backend.Get(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Info("configuration not found, using defaults", "key", StorageKey)
		return Default(), LoadedDefaultAbsent, nil
	case err != nil:
		s.logger.Warn("configuration backend unavailable, using defaults", "key", StorageKey, "error", err)
		return Default(), LoadedDefaultUnavailable, err
	}

	cfg, err := Decode(data)
	if err != nil {
		s.logger.Warn("failed to parse configuration, using defaults", "key", StorageKey, "error", err)
		return Default(), LoadedDefaultMalformed, err
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("stored configuration rejected, using defaults", "key", StorageKey, "error", err)
		return Default(), LoadedDefaultInvalid, err
	}

	s.logger.Debug("configuration loaded", "key", StorageKey, "checkpoints", len(cfg.Checkpoints))
	return cfg, LoadedPersisted, nil
}

// Save persists c. It does not validate; callers validate before activating.
func (s *Store) Save(ctx context.Context, c Configuration) error {
	if s == nil || s.backend == nil {
		return ErrBackendUnavailable
	}

	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, data); err != nil {
		s.logger.Error("failed to persist configuration", "key", StorageKey, "error", err)
		return err
	}
	return nil
}
