package preferences

import (
	"context"
	"sync"
)

// Keys under which a user's preferences are persisted.
const (
	KeyWatchlist  = "watchlist"
	KeyLiked      = "liked"
	KeySkipped    = "skipped"
	KeyRatedCount = "rated_count"
)

// AllKeys lists every persisted key.
var AllKeys = []string{KeyWatchlist, KeyLiked, KeySkipped, KeyRatedCount}

// KV is a durable key-value store scoped to a single user.
type KV interface {
	// Get returns the stored value. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryKV is a KV held in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
