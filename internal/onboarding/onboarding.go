// Package onboarding runs the cold-start flow: users with too few ratings
// rate a small batch of curated titles before recommendations begin.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	// Threshold is the number of ratings after which onboarding stops.
	Threshold = 20
	// InitialBatch is the batch size for users who never rated anything.
	InitialBatch = 10
	// FollowUpBatch is the batch size for every later session.
	FollowUpBatch = 3
)

// State is a stage of an onboarding session.
type State string

const (
	StateInactive   State = "inactive"
	StateLoading    State = "loading"
	StatePresenting State = "presenting"
	StateCompleted  State = "completed"
	StateSkipped    State = "skipped"
)

// Rating is the user's answer for one presented title.
type Rating string

const (
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
	// RatingSkip means "haven't seen"; it is recorded but never persisted.
	RatingSkip Rating = "skip"
)

// IsValid checks if the rating is known
func (r Rating) IsValid() bool {
	return r == RatingLike || r == RatingDislike || r == RatingSkip
}

var (
	// ErrNotPresenting is returned when rating outside the presenting state.
	ErrNotPresenting = errors.New("onboarding is not presenting a title")
	// ErrInvalidRating is returned for unknown ratings.
	ErrInvalidRating = errors.New("invalid onboarding rating")
)

// Store is the slice of the preference store onboarding reads and writes.
type Store interface {
	Watchlist() []models.ListEntry
	Liked() []models.ListEntry
	Skipped() []models.ListEntry
	RatedCount() int
	RecordOnboarding(ctx context.Context, liked, disliked []models.ContentItem)
}

// DetailsFetcher loads full details for a catalog id.
type DetailsFetcher interface {
	Details(ctx context.Context, mediaType models.MediaType, id int) (*models.ContentDetails, error)
}

func onboardingLikes(liked []models.ListEntry) int {
	n := 0
	for _, e := range liked {
		if e.FromOnboarding {
			n++
		}
	}
	return n
}

// NeedsOnboarding reports whether the user has rated fewer than Threshold
// titles. Onboarding likes are counted on top of the persisted rated count.
func NeedsOnboarding(ratedCount int, liked []models.ListEntry) bool {
	return ratedCount+onboardingLikes(liked) < Threshold
}

// remaining counts the ratings still needed, on the same sum NeedsOnboarding uses.
func remaining(ratedCount int, liked []models.ListEntry) int {
	return max(Threshold-(ratedCount+onboardingLikes(liked)), 0)
}

// BatchSize returns InitialBatch on a first run and FollowUpBatch otherwise.
func BatchSize(ratedCount int, liked []models.ListEntry) int {
	if ratedCount == 0 && onboardingLikes(liked) == 0 {
		return InitialBatch
	}
	return FollowUpBatch
}

// Status is a read-only view of a session.
type Status struct {
	State     State               `json:"state"`
	MediaType models.MediaType    `json:"mediaType"`
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	Current   *models.ContentItem `json:"current,omitempty"`
	// Remaining is how many more ratings are needed to reach Threshold.
	Remaining int `json:"remaining"`
}

// Session is one user's onboarding run. It is safe for concurrent use.
type Session struct {
	store Store

	mu        sync.Mutex
	state     State
	mediaType models.MediaType
	batch     []models.ContentItem
	index     int
	ratings   map[models.ContentKey]Rating
}

// Controller starts onboarding sessions.
type Controller struct {
	fetcher DetailsFetcher
	timeout time.Duration
	logger  zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewController creates a new Controller. A zero timeout means 10s and a
// zero seed seeds from the clock.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewController(fetcher DetailsFetcher, timeout time.Duration, seed int64, logger zerolog.Logger) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Controller{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger.With().Str("component", "onboarding").Logger(),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // shuffling, not security
	}
}

// sample returns up to n curated ids not already in any list, shuffled.
func (c *Controller) sample(mediaType models.MediaType, store Store, n int) []CuratedTitle {
	seen := make(map[int]struct{})
	for _, list := range [][]models.ListEntry{store.Liked(), store.Skipped(), store.Watchlist()} {
		for _, e := range list {
			seen[e.ID] = struct{}{}
		}
	}

	pool := make([]CuratedTitle, 0, len(Curated[mediaType]))
	for _, t := range Curated[mediaType] {
		if _, ok := seen[t.ID]; !ok {
			pool = append(pool, t)
		}
	}

	c.rngMu.Lock()
	c.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	c.rngMu.Unlock()

	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// Start begins onboarding for the media type. The returned session is
// Inactive when the user is already past the threshold, Completed when
// nothing could be presented, and Presenting otherwise.
func (c *Controller) Start(ctx context.Context, store Store, mediaType models.MediaType) (*Session, error) {
	if !mediaType.IsValid() {
		return nil, fmt.Errorf("invalid media type: %s", mediaType)
	}

	s := &Session{
		store:     store,
		state:     StateInactive,
		mediaType: mediaType,
		ratings:   make(map[models.ContentKey]Rating),
	}

	rated, liked := store.RatedCount(), store.Liked()
	if !NeedsOnboarding(rated, liked) {
		return s, nil
	}

	s.state = StateLoading
	picks := c.sample(mediaType, store, BatchSize(rated, liked))
	if len(picks) == 0 {
		c.logger.Info().Str("media_type", mediaType.String()).Msg("curated pool exhausted")
		s.finish(StateCompleted)
		return s, nil
	}

	s.batch = c.fetch(ctx, mediaType, picks)
	if len(s.batch) == 0 {
		c.logger.Warn().Str("media_type", mediaType.String()).Msg("every onboarding fetch failed")
		s.finish(StateCompleted)
		return s, nil
	}

	s.state = StatePresenting
	return s, nil
}

// fetch loads details in parallel, dropping failures and keeping pick order.
func (c *Controller) fetch(ctx context.Context, mediaType models.MediaType, picks []CuratedTitle) []models.ContentItem {
	results := make([]*models.ContentItem, len(picks))

	g, gctx := errgroup.WithContext(ctx)
	for i, pick := range picks {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			d, err := c.fetcher.Details(fctx, mediaType, pick.ID)
			if err != nil {
				c.logger.Warn().Err(err).Int("id", pick.ID).Msg("onboarding title unavailable")
				return nil
			}
			item := d.ContentItem
			item.MediaType = mediaType
			results[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.ContentItem, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *Session) finish(state State) {
	s.state = state
	metrics.OnboardingTransitions.WithLabelValues(string(state)).Inc()
}

// Status returns the current view of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		State:     s.state,
		MediaType: s.mediaType,
		Index:     s.index,
		Total:     len(s.batch),
	}
	if s.state == StatePresenting {
		item := s.batch[s.index]
		st.Current = &item
	}
	if s.store != nil {
		st.Remaining = remaining(s.store.RatedCount(), s.store.Liked())
	}
	return st
}

// Rate answers the current title. Rating the last title completes the
// session and persists every like and dislike.
func (s *Session) Rate(ctx context.Context, rating Rating) (Status, error) {
	if !rating.IsValid() {
		return Status{}, ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePresenting {
		return s.statusLocked(), ErrNotPresenting
	}

	s.ratings[s.batch[s.index].Key()] = rating
	if s.index < len(s.batch)-1 {
		s.index++
		return s.statusLocked(), nil
	}

	var liked, disliked []models.ContentItem
	for _, item := range s.batch {
		switch s.ratings[item.Key()] {
		case RatingLike:
			liked = append(liked, item)
		case RatingDislike:
			disliked = append(disliked, item)
		}
	}
	s.store.RecordOnboarding(ctx, liked, disliked)
	s.finish(StateCompleted)
	return s.statusLocked(), nil
}

// Skip abandons the session without persisting anything.
func (s *Session) Skip() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePresenting || s.state == StateLoading {
		s.finish(StateSkipped)
	}
	return s.statusLocked()
}
