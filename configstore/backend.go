package configstore

import (
	"context"
	"sync"
)

// Backend persists the raw configuration record under StorageKey.
//
// Get returns ErrNotFound when no record exists. Transport failures are
// wrapped with ErrBackendUnavailable.
type Backend interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
}

// MemoryBackend keeps the record in process memory. It is used by tests and
// dry runs.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryBackend) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0], data...)
	m.set = true
	return nil
}
