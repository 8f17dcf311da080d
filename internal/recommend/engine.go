package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
)

// Config holds engine settings.
type Config struct {
	// WatchRegion selects which country's streaming providers are reported.
	WatchRegion string
	// UserLanguage is used for the "my language" option when the user has none.
	UserLanguage string
	// RequestTimeout bounds every catalog call.
	RequestTimeout time.Duration
	// Seed seeds the random source. Zero seeds from the clock.
	Seed int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WatchRegion:    "PT",
		UserLanguage:   "en",
		RequestTimeout: 10 * time.Second,
	}
}

// Request is one recommendation attempt. The lists are snapshots ordered most
// recent first.
type Request struct {
	Selection    models.MoodSelection
	Watchlist    []models.ListEntry
	Liked        []models.ListEntry
	Skipped      []models.ListEntry
	UserLanguage string
	Session      *Session
}

// Engine produces one explained recommendation per request.
// It is safe for concurrent use.
type Engine struct {
	search    ContentSearch
	retriever *Retriever
	booster   *Booster
	cfg       Config
	logger    zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewEngine(search ContentSearch, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.WatchRegion == "" {
		cfg.WatchRegion = "PT"
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		search:    search,
		retriever: NewRetriever(search, cfg.RequestTimeout, logger),
		booster:   NewBooster(search, cfg.RequestTimeout, logger),
		cfg:       cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // selection randomness, not security
	}
}

func (e *Engine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

func (e *Engine) pick(scored []ScoredCandidate) ScoredCandidate {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return PickTop(scored, e.rng)
}

// Recommend runs retrieval, scoring, boosting and selection for req.
// It returns ErrNoCandidates, ErrDetailsUnavailable or ErrStaleRequest on the
// corresponding failures.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	start := time.Now()
	sel := req.Selection
	session := req.Session
	if session == nil {
		session = NewSession()
	}
	gen := session.Begin()

	rec, err := e.recommend(ctx, req, session, gen)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrNoCandidates):
		outcome = "no_candidates"
	case errors.Is(err, ErrDetailsUnavailable):
		outcome = "details_unavailable"
	case errors.Is(err, ErrStaleRequest):
		outcome = "stale"
	case err != nil:
		outcome = "error"
	}
	metrics.RecommendationsTotal.WithLabelValues(sel.MediaType.String(), outcome).Inc()
	metrics.RecommendationDuration.WithLabelValues(sel.MediaType.String()).Observe(time.Since(start).Seconds())

	return rec, err
}

func (e *Engine) recommend(ctx context.Context, req Request, session *Session, gen uint64) (*Recommendation, error) {
	sel := req.Selection
	profile := Analyze(req.Liked, req.Skipped)
	weights := CalculateWeights(sel.Mood, sel.Duration, len(req.Liked))

	owned := make(map[models.ContentKey]struct{}, len(req.Watchlist)+len(req.Liked))
	for _, list := range [][]models.ListEntry{req.Watchlist, req.Liked} {
		for _, entry := range list {
			owned[entry.Key()] = struct{}{}
		}
	}
	exclude := session.Suggested()
	for k := range owned {
		exclude[k] = struct{}{}
	}
	for _, entry := range req.Skipped {
		exclude[entry.Key()] = struct{}{}
	}

	language := req.UserLanguage
	if language == "" {
		language = e.cfg.UserLanguage
	}

	candidates, err := e.retriever.Retrieve(ctx, RetrieveRequest{
		Selection:    sel,
		Profile:      profile,
		UserLanguage: language,
		Exclude:      exclude,
		FallbackPage: e.intn(FallbackPages) + 1,
	})
	if err != nil {
		return nil, err
	}

	in := ScoreInput{
		Profile:    profile,
		Weights:    weights,
		MoodGenres: sel.Genres(),
		MoodLabel:  sel.MoodLabel(),
		Owned:      owned,
	}
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Score(c, in))
	}

	boosted := e.booster.Boost(ctx, scored, req.Liked, sel.MediaType)
	viable := KeepViable(boosted)
	if len(viable) == 0 {
		return nil, ErrNoCandidates
	}

	selected := e.pick(viable)

	dctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	details, err := e.search.Details(dctx, sel.MediaType, selected.Item.ID)
	if err != nil {
		e.logger.Error().Err(err).Int("id", selected.Item.ID).Msg("failed to fetch details")
		return nil, fmt.Errorf("%w: %v", ErrDetailsUnavailable, err)
	}
	if details.MediaType == "" {
		details.MediaType = sel.MediaType
	}

	if !session.CompleteIfCurrent(gen, selected.Item.Key()) {
		e.logger.Debug().Uint64("generation", gen).Msg("discarding stale recommendation")
		return nil, ErrStaleRequest
	}

	explanation := Explain(selected, details, ExplainInput{
		Selection:   sel,
		Weights:     weights,
		Profile:     profile,
		WatchRegion: e.cfg.WatchRegion,
	})

	e.logger.Info().
		Int("id", selected.Item.ID).
		Str("media_type", sel.MediaType.String()).
		Str("mood", sel.Mood).
		Int("candidates", len(candidates)).
		Float64("score", selected.Score).
		Msg("recommendation selected")

	return &Recommendation{
		Item:        details,
		Score:       selected.Score,
		Explanation: explanation,
		Generation:  gen,
	}, nil
}
