package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/recommend"
	"github.com/R-Vicente/watchnext/internal/services"
)

const (
	maxSimilar   = 10
	deckMaxPage  = 5
	deckMinVotes = 100
)

// sortOptions maps deck sort ids to catalog sort fields per media type
var sortOptions = map[string]map[models.MediaType]string{
	"popular": {models.MediaMovie: "popularity.desc", models.MediaTV: "popularity.desc"},
	"rating":  {models.MediaMovie: "vote_average.desc", models.MediaTV: "vote_average.desc"},
	"recent":  {models.MediaMovie: "primary_release_date.desc", models.MediaTV: "first_air_date.desc"},
}

// ContentHandler handles catalog browsing: search, title pages and the swipe deck
type ContentHandler struct {
	search recommend.ContentSearch
	prefs  PreferenceStores
	region string
	logger zerolog.Logger
}

// NewContentHandler creates a new content handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewContentHandler(search recommend.ContentSearch, prefs PreferenceStores, region string, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		search: search,
		prefs:  prefs,
		region: region,
		logger: logger.With().Str("handler", "content").Logger(),
	}
}

// Catalog handles GET /api/catalog
func (h *ContentHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"moods":       models.Moods,
		"durations":   models.DurationOptions,
		"commitments": models.CommitmentOptions,
		"languages":   models.LanguageOptions,
		"genres": map[string]map[int]string{
			"movie": models.MovieGenres,
			"tv":    models.TVGenres,
		},
		"region": h.region,
	})
}

// Search handles GET /api/search
func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		http.Error(w, `{"error":"Query parameter is required"}`, http.StatusBadRequest)
		return
	}

	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Str("query", query).Msg("search failed")
		http.Error(w, `{"error":"Failed to search"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

// Title handles GET /api/titles/{mediaType}/{id}
// It returns the full details, the streaming providers for the configured
// region, up to ten similar titles and which of the user's lists hold it.
func (h *ContentHandler) Title(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	key, ok := pathContentKey(r)
	if !ok {
		http.Error(w, `{"error":"Invalid title"}`, http.StatusBadRequest)
		return
	}
	logger := requestLogger(r, h.logger)

	var (
		details *models.ContentDetails
		similar []models.ContentItem
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		details, err = h.search.Details(ctx, key.MediaType, key.ID)
		return err
	})
	g.Go(func() error {
		items, err := h.search.Similar(ctx, key.MediaType, key.ID)
		if err != nil {
			logger.Warn().Err(err).Int("id", key.ID).Msg("similar titles unavailable")
			return nil
		}
		similar = items
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Error(w, `{"error":"Title not found"}`, http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int("id", key.ID).Msg("failed to fetch title")
		http.Error(w, `{"error":"Failed to fetch title"}`, http.StatusBadGateway)
		return
	}
	if details.MediaType == "" {
		details.MediaType = key.MediaType
	}
	if len(similar) > maxSimilar {
		similar = similar[:maxSimilar]
	}
	if similar == nil {
		similar = []models.ContentItem{}
	}

	lists := []models.ListKind{}
	if store, err := h.prefs.Get(r.Context(), userID); err == nil {
		for _, kind := range []models.ListKind{models.ListWatchlist, models.ListLiked, models.ListSkipped} {
			if store.Contains(kind, key) {
				lists = append(lists, kind)
			}
		}
	} else {
		logger.Warn().Err(err).Msg("failed to load preferences")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"item":      details,
		"providers": details.FlatrateProviders(h.region),
		"similar":   similar,
		"lists":     lists,
	})
}

// Discover handles GET /api/discover
// Query: mediaType, provider, minRating, genres (comma separated), sort, page.
// Titles already in any of the user's lists are left out of the deck.
func (h *ContentHandler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	mediaType, filters, err := h.deckFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger := requestLogger(r, h.logger)

	items, err := h.search.Discover(r.Context(), mediaType, filters)
	if err != nil {
		logger.Error().Err(err).Msg("discover failed")
		http.Error(w, `{"error":"Failed to load titles"}`, http.StatusBadGateway)
		return
	}

	deck := make([]models.ContentItem, 0, len(items))
	store, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load preferences")
	}
	for _, item := range items {
		if !item.HasPoster() {
			continue
		}
		if store != nil && inAnyList(store, item.Key()) {
			continue
		}
		deck = append(deck, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mediaType": mediaType,
		"page":      filters.Page,
		"items":     deck,
	})
}

type listChecker interface {
	Contains(kind models.ListKind, key models.ContentKey) bool
}

func inAnyList(store listChecker, key models.ContentKey) bool {
	return store.Contains(models.ListWatchlist, key) ||
		store.Contains(models.ListLiked, key) ||
		store.Contains(models.ListSkipped, key)
}

// deckFilters parses the discover deck query string
func (h *ContentHandler) deckFilters(r *http.Request) (models.MediaType, recommend.DiscoverFilters, error) {
	q := r.URL.Query()

	mediaType := models.MediaType(q.Get("mediaType"))
	if mediaType == "" {
		mediaType = models.MediaMovie
	}
	if !mediaType.IsValid() {
		return "", recommend.DiscoverFilters{}, errors.New("mediaType must be movie or tv")
	}

	filters := recommend.DiscoverFilters{
		MinVoteCount: deckMinVotes,
		GenreJoin:    recommend.JoinAny,
		SortBy:       sortOptions["popular"][mediaType],
	}

	if v := q.Get("provider"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return "", recommend.DiscoverFilters{}, errors.New("provider must be a positive id")
		}
		filters.WatchProviderID = id
		filters.WatchRegion = h.region
	}
	if v := q.Get("minRating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 10 {
			return "", recommend.DiscoverFilters{}, errors.New("minRating must be between 0 and 10")
		}
		filters.MinRating = rating
	}
	if v := q.Get("genres"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return "", recommend.DiscoverFilters{}, errors.New("genres must be comma separated ids")
			}
			filters.GenreIDs = append(filters.GenreIDs, id)
		}
	}
	if v := q.Get("sort"); v != "" {
		fields, ok := sortOptions[v]
		if !ok {
			return "", recommend.DiscoverFilters{}, errors.New("sort must be popular, rating or recent")
		}
		filters.SortBy = fields[mediaType]
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return "", recommend.DiscoverFilters{}, errors.New("page must be a positive number")
		}
		filters.Page = page
	} else {
		filters.Page = rand.IntN(deckMaxPage) + 1 //nolint:gosec // deck variety, not security
	}

	return mediaType, filters, nil
}
