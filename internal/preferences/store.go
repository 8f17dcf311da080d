// Package preferences owns a user's Watchlist, Liked and Skipped lists and the
// onboarding rated count. In-memory state is authoritative; every mutation is
// written through to a KV and write failures are logged, not returned.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
)

// MaxSkipped caps the Skipped list; the oldest entries are evicted first.
const MaxSkipped = 100

var (
	// ErrNotFound is returned when an entry is not in the list.
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidMove is returned for moves other than watchlist <-> liked.
	ErrInvalidMove = errors.New("entries can only move between watchlist and liked")
)

// Snapshot is a point-in-time copy of a user's lists.
type Snapshot struct {
	Watchlist  []models.ListEntry `json:"watchlist"`
	Liked      []models.ListEntry `json:"liked"`
	Skipped    []models.ListEntry `json:"skipped"`
	RatedCount int                `json:"ratedCount"`
}

// Store holds one user's preferences.
type Store struct {
	kv     KV
	logger zerolog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	watchlist  []models.ListEntry
	liked      []models.ListEntry
	skipped    []models.ListEntry
	ratedCount int
}

// NewStore creates an empty store backed by kv.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:        kv,
		logger:    logger.With().Str("component", "preferences").Logger(),
		now:       time.Now,
		watchlist: []models.ListEntry{},
		liked:     []models.ListEntry{},
		skipped:   []models.ListEntry{},
	}
}

// Load creates a store from the values persisted in kv. Missing keys are
// empty lists. Undecodable values are logged and treated as empty.
//
//nolint:gocritic // zerolog.Logger is passed by value
func Load(ctx context.Context, kv KV, logger zerolog.Logger) (*Store, error) {
	s := NewStore(kv, logger)

	lists := map[string]*[]models.ListEntry{
		KeyWatchlist: &s.watchlist,
		KeyLiked:     &s.liked,
		KeySkipped:   &s.skipped,
	}
	for key, dst := range lists {
		raw, found, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			continue
		}
		var entries []models.ListEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable list")
			continue
		}
		if entries != nil {
			*dst = entries
		}
	}

	raw, found, err := kv.Get(ctx, KeyRatedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", KeyRatedCount, err)
	}
	if found {
		n, err := strconv.Atoi(string(raw))
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding undecodable rated count")
		} else {
			s.ratedCount = n
		}
	}

	if len(s.skipped) > MaxSkipped {
		s.skipped = s.skipped[:MaxSkipped]
	}
	return s, nil
}

func copyEntries(entries []models.ListEntry) []models.ListEntry {
	out := make([]models.ListEntry, len(entries))
	copy(out, entries)
	return out
}

// Watchlist returns a copy of the watchlist, most recent first.
func (s *Store) Watchlist() []models.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.watchlist)
}

// Liked returns a copy of the liked list, most recent first.
func (s *Store) Liked() []models.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.liked)
}

// Skipped returns a copy of the skipped list, most recent first.
func (s *Store) Skipped() []models.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.skipped)
}

// RatedCount returns the number of onboarding likes and dislikes recorded.
func (s *Store) RatedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratedCount
}

// Snapshot returns a consistent copy of every list.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Watchlist:  copyEntries(s.watchlist),
		Liked:      copyEntries(s.liked),
		Skipped:    copyEntries(s.skipped),
		RatedCount: s.ratedCount,
	}
}

// List returns a copy of the named list.
func (s *Store) List(kind models.ListKind) ([]models.ListEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.listLocked(kind)
	if err != nil {
		return nil, err
	}
	return copyEntries(*list), nil
}

// Contains reports whether the list holds the identity.
func (s *Store) Contains(kind models.ListKind, key models.ContentKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.listLocked(kind)
	if err != nil {
		return false
	}
	return indexOf(*list, key) >= 0
}

func (s *Store) listLocked(kind models.ListKind) (*[]models.ListEntry, error) {
	switch kind {
	case models.ListWatchlist:
		return &s.watchlist, nil
	case models.ListLiked:
		return &s.liked, nil
	case models.ListSkipped:
		return &s.skipped, nil
	}
	return nil, fmt.Errorf("unknown list: %s", kind)
}

func indexOf(entries []models.ListEntry, key models.ContentKey) int {
	for i, e := range entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

func without(entries []models.ListEntry, key models.ContentKey) []models.ListEntry {
	out := make([]models.ListEntry, 0, len(entries))
	for _, e := range entries {
		if e.Key() != key {
			out = append(out, e)
		}
	}
	return out
}

func prepend(entries []models.ListEntry, e models.ListEntry) []models.ListEntry {
	out := make([]models.ListEntry, 0, len(entries)+1)
	out = append(out, e)
	return append(out, entries...)
}

// AddToWatchlist inserts the item at the front of the watchlist and removes it
// from liked.
func (s *Store) AddToWatchlist(ctx context.Context, item models.ContentItem) models.ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := models.ListEntry{ContentItem: item, AddedAt: &now}
	s.watchlist = prepend(without(s.watchlist, item.Key()), e)
	s.liked = without(s.liked, item.Key())
	s.persistLocked(ctx, KeyWatchlist, KeyLiked)
	return e
}

// AddToLiked inserts the item at the front of liked and removes it from the
// watchlist.
func (s *Store) AddToLiked(ctx context.Context, item models.ContentItem) models.ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := models.ListEntry{ContentItem: item, AddedAt: &now}
	s.liked = prepend(without(s.liked, item.Key()), e)
	s.watchlist = without(s.watchlist, item.Key())
	s.persistLocked(ctx, KeyLiked, KeyWatchlist)
	return e
}

// AddToSkipped records a skip at the front of the skipped list.
func (s *Store) AddToSkipped(ctx context.Context, item models.ContentItem) models.ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := models.ListEntry{ContentItem: item, SkippedAt: &now}
	s.skipped = capSkipped(prepend(without(s.skipped, item.Key()), e))
	s.persistLocked(ctx, KeySkipped)
	return e
}

func capSkipped(entries []models.ListEntry) []models.ListEntry {
	if len(entries) > MaxSkipped {
		return entries[:MaxSkipped]
	}
	return entries
}

// Swipe records a discovery-card gesture and returns the list it landed in.
func (s *Store) Swipe(ctx context.Context, dir models.SwipeDirection, item models.ContentItem) (models.ListKind, models.ListEntry, error) {
	kind, err := dir.Target()
	if err != nil {
		return "", models.ListEntry{}, err
	}
	switch kind {
	case models.ListWatchlist:
		return kind, s.AddToWatchlist(ctx, item), nil
	case models.ListLiked:
		return kind, s.AddToLiked(ctx, item), nil
	default:
		return kind, s.AddToSkipped(ctx, item), nil
	}
}

// Remove deletes an entry from a list and returns it so the caller can undo.
func (s *Store) Remove(ctx context.Context, kind models.ListKind, key models.ContentKey) (models.ListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.listLocked(kind)
	if err != nil {
		return models.ListEntry{}, err
	}
	i := indexOf(*list, key)
	if i < 0 {
		return models.ListEntry{}, ErrNotFound
	}
	removed := (*list)[i]
	*list = without(*list, key)
	s.persistLocked(ctx, kind.String())
	return removed, nil
}

// Move transfers an entry between the watchlist and liked.
func (s *Store) Move(ctx context.Context, key models.ContentKey, from, to models.ListKind) (models.ListEntry, error) {
	valid := (from == models.ListWatchlist && to == models.ListLiked) ||
		(from == models.ListLiked && to == models.ListWatchlist)
	if !valid {
		return models.ListEntry{}, ErrInvalidMove
	}

	s.mu.RLock()
	src, _ := s.listLocked(from)
	i := indexOf(*src, key)
	var item models.ContentItem
	if i >= 0 {
		item = (*src)[i].ContentItem
	}
	s.mu.RUnlock()

	if i < 0 {
		return models.ListEntry{}, ErrNotFound
	}
	if to == models.ListLiked {
		return s.AddToLiked(ctx, item), nil
	}
	return s.AddToWatchlist(ctx, item), nil
}

// Clear empties one list.
func (s *Store) Clear(ctx context.Context, kind models.ListKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.listLocked(kind)
	if err != nil {
		return err
	}
	*list = []models.ListEntry{}
	s.persistLocked(ctx, kind.String())
	return nil
}

// Reset deletes every list and the rated count. Unlike other mutations it
// reports persistence failures.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, AllKeys...); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}
	s.watchlist = []models.ListEntry{}
	s.liked = []models.ListEntry{}
	s.skipped = []models.ListEntry{}
	s.ratedCount = 0
	return nil
}

// RecordOnboarding stores onboarding ratings: likes go to liked, dislikes to
// skipped, both flagged as onboarding entries. The rated count grows by the
// number of likes plus dislikes.
func (s *Store) RecordOnboarding(ctx context.Context, liked, disliked []models.ContentItem) {
	if len(liked) == 0 && len(disliked) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := []string{KeyRatedCount}

	if len(liked) > 0 {
		fresh := make([]models.ListEntry, 0, len(liked)+len(s.liked))
		for _, item := range liked {
			fresh = append(fresh, models.ListEntry{ContentItem: item, AddedAt: &now, FromOnboarding: true})
		}
		for _, e := range s.liked {
			if !containsItem(liked, e.Key()) {
				fresh = append(fresh, e)
			}
		}
		s.liked = fresh
		keys = append(keys, KeyLiked)
	}

	if len(disliked) > 0 {
		fresh := make([]models.ListEntry, 0, len(disliked)+len(s.skipped))
		for _, item := range disliked {
			fresh = append(fresh, models.ListEntry{ContentItem: item, SkippedAt: &now, FromOnboarding: true})
		}
		for _, e := range s.skipped {
			if !containsItem(disliked, e.Key()) {
				fresh = append(fresh, e)
			}
		}
		s.skipped = capSkipped(fresh)
		keys = append(keys, KeySkipped)
	}

	s.ratedCount += len(liked) + len(disliked)
	s.persistLocked(ctx, keys...)
}

func containsItem(items []models.ContentItem, key models.ContentKey) bool {
	for _, it := range items {
		if it.Key() == key {
			return true
		}
	}
	return false
}

// persistLocked writes the named keys. Failures are logged and counted.
func (s *Store) persistLocked(ctx context.Context, keys ...string) {
	for _, key := range keys {
		var (
			raw []byte
			err error
		)
		switch key {
		case KeyWatchlist:
			raw, err = json.Marshal(s.watchlist)
		case KeyLiked:
			raw, err = json.Marshal(s.liked)
		case KeySkipped:
			raw, err = json.Marshal(s.skipped)
		case KeyRatedCount:
			raw = []byte(strconv.Itoa(s.ratedCount))
		default:
			continue
		}
		if err == nil {
			err = s.kv.Set(ctx, key, raw)
		}
		if err != nil {
			metrics.PersistenceErrors.WithLabelValues(key).Inc()
			s.logger.Error().Err(err).Str("key", key).Msg("failed to persist preferences")
		}
	}
}
