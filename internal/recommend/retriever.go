package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	sortByPopularity = "popularity.desc"
	minVoteCount     = 50
	// enoughCandidates stops the broader strategies from running.
	enoughCandidates = 5
	// relaxBelow triggers the duration-relaxed strategy.
	relaxBelow = 3
	// FallbackPages bounds the random page used by the popular fallback.
	FallbackPages = 5
)

// RetrievalState is the accumulator shared by the cascade.
type RetrievalState struct {
	Selection       models.MoodSelection
	MoodGenres      []int
	Profile         TasteProfile
	Base            DiscoverFilters
	RuntimeFiltered bool
	FallbackPage    int
	Count           int
}

// Strategy is one step of the retrieval cascade.
type Strategy struct {
	Name string
	// ShouldRun decides from the running tally whether this step executes.
	ShouldRun func(st *RetrievalState) bool
	// Queries returns the pages to fetch concurrently.
	Queries func(st *RetrievalState) []DiscoverFilters
}

// DefaultStrategies returns the cascade from most to least specific.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "and-genres",
			ShouldRun: func(st *RetrievalState) bool {
				return len(st.MoodGenres) > 0 && !st.Selection.IsSurprise()
			},
			Queries: func(st *RetrievalState) []DiscoverFilters {
				return genrePages(st.Base, st.MoodGenres, JoinAll, 3)
			},
		},
		{
			Name: "or-genres",
			ShouldRun: func(st *RetrievalState) bool {
				return st.Count < enoughCandidates && len(st.MoodGenres) > 1 && !st.Selection.IsSurprise()
			},
			Queries: func(st *RetrievalState) []DiscoverFilters {
				return genrePages(st.Base, st.MoodGenres, JoinAny, 2)
			},
		},
		{
			Name: "primary-genre",
			ShouldRun: func(st *RetrievalState) bool {
				return st.Count < enoughCandidates && len(st.MoodGenres) > 0
			},
			Queries: func(st *RetrievalState) []DiscoverFilters {
				return genrePages(st.Base, st.MoodGenres[:1], JoinAll, 2)
			},
		},
		{
			Name: "popular-fallback",
			ShouldRun: func(st *RetrievalState) bool {
				return st.Count < enoughCandidates || st.Selection.IsSurprise()
			},
			Queries: func(st *RetrievalState) []DiscoverFilters {
				f := st.Base
				f.Page = st.FallbackPage
				if st.Selection.IsSurprise() && len(st.Profile.TopGenres) > 0 {
					top := st.Profile.TopGenres
					if len(top) > 2 {
						top = top[:2]
					}
					ids := make([]int, 0, len(top))
					for _, g := range top {
						ids = append(ids, g.ID)
					}
					f.GenreIDs = ids
					f.GenreJoin = JoinAny
				}
				return []DiscoverFilters{f}
			},
		},
		{
			Name: "relaxed-duration",
			ShouldRun: func(st *RetrievalState) bool {
				return st.Selection.MediaType == models.MediaMovie && st.Count < relaxBelow && st.RuntimeFiltered
			},
			Queries: func(st *RetrievalState) []DiscoverFilters {
				f := st.Base
				f.RuntimeMin = 0
				f.RuntimeMax = 0
				f.Page = 1
				if len(st.MoodGenres) > 0 {
					f.GenreIDs = []int{st.MoodGenres[0]}
					f.GenreJoin = JoinAll
				}
				return []DiscoverFilters{f}
			},
		},
	}
}

func genrePages(base DiscoverFilters, genres []int, join GenreJoin, pages int) []DiscoverFilters {
	out := make([]DiscoverFilters, 0, pages)
	for p := 1; p <= pages; p++ {
		f := base
		f.GenreIDs = append([]int(nil), genres...)
		f.GenreJoin = join
		f.Page = p
		out = append(out, f)
	}
	return out
}

// RetrieveRequest carries one cascade's inputs.
type RetrieveRequest struct {
	Selection    models.MoodSelection
	Profile      TasteProfile
	UserLanguage string
	// Exclude holds watchlist, liked, skipped and already-suggested identities.
	Exclude      map[models.ContentKey]struct{}
	FallbackPage int
}

// Retriever runs the strategy cascade against a ContentSearch.
type Retriever struct {
	search     ContentSearch
	strategies []Strategy
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewRetriever creates a retriever using the default cascade.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRetriever(search ContentSearch, timeout time.Duration, logger zerolog.Logger) *Retriever {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Retriever{
		search:     search,
		strategies: DefaultStrategies(),
		timeout:    timeout,
		logger:     logger.With().Str("component", "retriever").Logger(),
	}
}

// BaseFilters builds the filters shared by every strategy.
func BaseFilters(sel models.MoodSelection, userLanguage string) (DiscoverFilters, bool) {
	f := DiscoverFilters{
		SortBy:       sortByPopularity,
		MinVoteCount: minVoteCount,
	}

	switch sel.Language {
	case models.LanguageOriginal:
		if opt, ok := models.FindLanguage(models.LanguageOriginal); ok {
			f.OriginalLanguage = opt.Code
		}
	case models.LanguageLocal:
		f.OriginalLanguage = userLanguage
	}

	minRuntime, maxRuntime, ok := sel.RuntimeBounds()
	if ok {
		f.RuntimeMin = minRuntime
		f.RuntimeMax = maxRuntime
	}
	return f, ok
}

// Retrieve runs the cascade and returns deduplicated, displayable candidates
// not present in req.Exclude. Page failures count as empty pages.
func (r *Retriever) Retrieve(ctx context.Context, req RetrieveRequest) ([]models.ContentItem, error) {
	base, runtimeFiltered := BaseFilters(req.Selection, req.UserLanguage)
	fallbackPage := req.FallbackPage
	if fallbackPage < 1 || fallbackPage > FallbackPages {
		fallbackPage = 1
	}

	st := &RetrievalState{
		Selection:       req.Selection,
		MoodGenres:      req.Selection.Genres(),
		Profile:         req.Profile,
		Base:            base,
		RuntimeFiltered: runtimeFiltered,
		FallbackPage:    fallbackPage,
	}

	seen := make(map[models.ContentKey]struct{})
	var candidates []models.ContentItem

	for _, s := range r.strategies {
		if !s.ShouldRun(st) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		pages := r.fetchPages(ctx, req.Selection.MediaType, s.Queries(st))

		added := 0
		for _, page := range pages {
			for _, item := range page {
				if item.MediaType == "" {
					item.MediaType = req.Selection.MediaType
				}
				if !item.HasPoster() {
					continue
				}
				key := item.Key()
				if _, excluded := req.Exclude[key]; excluded {
					continue
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				candidates = append(candidates, item)
				added++
			}
		}
		st.Count = len(candidates)

		metrics.StrategyRuns.WithLabelValues(s.Name).Inc()
		metrics.StrategyCandidates.WithLabelValues(s.Name).Add(float64(added))
		r.logger.Debug().
			Str("strategy", s.Name).
			Int("added", added).
			Int("total", st.Count).
			Msg("strategy complete")
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

// fetchPages runs the queries concurrently. Results keep query order so the
// merge is deterministic.
func (r *Retriever) fetchPages(ctx context.Context, mediaType models.MediaType, queries []DiscoverFilters) [][]models.ContentItem {
	results := make([][]models.ContentItem, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			items, err := r.search.Discover(pctx, mediaType, q)
			if err != nil {
				r.logger.Warn().Err(err).Int("page", q.Page).Msg("discover page failed")
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()
	return results
}
