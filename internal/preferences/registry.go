package preferences

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// KVFactory opens the KV that backs one user's preferences.
type KVFactory func(userID uuid.UUID) KV

// Registry lazily loads and caches a Store per user.
type Registry struct {
	open   KVFactory
	logger zerolog.Logger

	// loads collapses concurrent first loads of the same user; mu only guards stores
	loads singleflight.Group

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

// NewRegistry creates a new Registry
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRegistry(open KVFactory, logger zerolog.Logger) *Registry {
	return &Registry{
		open:   open,
		logger: logger,
		stores: make(map[uuid.UUID]*Store),
	}
}

func (r *Registry) cached(userID uuid.UUID) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[userID]
	return s, ok
}

// Get returns the user's store, loading it on first use.
// A slow backend for one user never blocks other users.
func (r *Registry) Get(ctx context.Context, userID uuid.UUID) (*Store, error) {
	if s, ok := r.cached(userID); ok {
		return s, nil
	}

	v, err, _ := r.loads.Do(userID.String(), func() (any, error) {
		if s, ok := r.cached(userID); ok {
			return s, nil
		}

		s, err := Load(ctx, r.open(userID), r.logger.With().Str("user_id", userID.String()).Logger())
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.stores[userID]; ok {
			return existing, nil
		}
		r.stores[userID] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}
