package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/recommend"
)

// ErrNotFound is returned when TMDB has no record for the id.
var ErrNotFound = errors.New("tmdb: not found")

// maxCast is how many cast members are kept from the credits.
const maxCast = 10

const defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// maxSearchResults caps the merged movie and TV search results.
const maxSearchResults = 20

var _ recommend.ContentSearch = (*TMDBService)(nil)

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client       *http.Client
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	limiter      *rate.Limiter
	cb           *gobreaker.CircuitBreaker[[]byte]
	logger       zerolog.Logger
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// NewTMDBService creates a new TMDB service
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewTMDBService(cfg TMDBConfig, logger zerolog.Logger) *TMDBService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = defaultImageBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger = logger.With().Str("component", "tmdb").Logger()

	const cbName = "tmdb-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// a missing title or a cancelled caller says nothing about TMDB health
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &TMDBService{
		client:       &http.Client{Timeout: cfg.Timeout},
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		language:     cfg.Language,
		limiter:      limiter,
		cb:           cb,
		logger:       logger,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// tmdbListItem is a movie or TV entry in a paged TMDB response
type tmdbListItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
}

// tmdbPage is a paged TMDB list response
type tmdbPage struct {
	Page         int            `json:"page"`
	Results      []tmdbListItem `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbProvider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// tmdbDetails is a /movie/{id} or /tv/{id} response with
// credits, watch/providers and videos appended
type tmdbDetails struct {
	tmdbListItem
	Genres          []tmdbGenre `json:"genres"`
	Runtime         *int        `json:"runtime"`
	NumberOfSeasons *int        `json:"number_of_seasons"`
	EpisodeRunTime  []int       `json:"episode_run_time"`
	Tagline         string      `json:"tagline"`
	Status          string      `json:"status"`
	Credits         struct {
		Cast []struct {
			ID          int     `json:"id"`
			Name        string  `json:"name"`
			Character   string  `json:"character"`
			ProfilePath *string `json:"profile_path"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	WatchProviders struct {
		Results map[string]struct {
			Flatrate []tmdbProvider `json:"flatrate"`
		} `json:"results"`
	} `json:"watch/providers"`
	Videos struct {
		Results []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
			Site string `json:"site"`
			Type string `json:"type"`
		} `json:"results"`
	} `json:"videos"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toItem normalizes a TMDB entry; TV names and air dates map onto title and release date
func (t *tmdbListItem) toItem(mediaType models.MediaType) models.ContentItem {
	item := models.ContentItem{
		ID:          t.ID,
		MediaType:   mediaType,
		Title:       t.Title,
		Overview:    t.Overview,
		PosterPath:  deref(t.PosterPath),
		ReleaseDate: t.ReleaseDate,
		VoteAverage: t.VoteAverage,
		Popularity:  t.Popularity,
		GenreIDs:    t.GenreIDs,
	}
	if mediaType == models.MediaTV {
		item.Title = t.Name
		item.ReleaseDate = t.FirstAirDate
	}
	if item.GenreIDs == nil {
		item.GenreIDs = []int{}
	}
	return item
}

func (t *tmdbDetails) toDetails(mediaType models.MediaType) *models.ContentDetails {
	d := &models.ContentDetails{
		ContentItem: t.toItem(mediaType),
		Tagline:     t.Tagline,
		Status:      t.Status,
	}

	d.GenreIDs = make([]int, 0, len(t.Genres))
	for _, g := range t.Genres {
		d.GenreIDs = append(d.GenreIDs, g.ID)
	}

	if mediaType == models.MediaTV {
		d.NumberOfSeasons = t.NumberOfSeasons
		if len(t.EpisodeRunTime) > 0 {
			rt := t.EpisodeRunTime[0]
			d.EpisodeRuntime = &rt
		}
	} else {
		d.Runtime = t.Runtime
	}

	for i, c := range t.Credits.Cast {
		if i == maxCast {
			break
		}
		d.Cast = append(d.Cast, models.CastMember{
			ID:          c.ID,
			Name:        c.Name,
			Character:   c.Character,
			ProfilePath: deref(c.ProfilePath),
		})
	}
	for _, c := range t.Credits.Crew {
		if c.Job == "Director" {
			d.Director = c.Name
			break
		}
	}

	for region, r := range t.WatchProviders.Results {
		if len(r.Flatrate) == 0 {
			continue
		}
		if d.WatchProviders == nil {
			d.WatchProviders = make(map[string][]models.WatchProvider)
		}
		providers := make([]models.WatchProvider, 0, len(r.Flatrate))
		for _, p := range r.Flatrate {
			providers = append(providers, models.WatchProvider{ID: p.ProviderID, Name: p.ProviderName, LogoPath: p.LogoPath})
		}
		d.WatchProviders[region] = providers
	}

	for _, v := range t.Videos.Results {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			d.Trailers = append(d.Trailers, models.Trailer{Key: v.Key, Name: v.Name, Type: v.Type})
		}
	}

	return d
}

// doRequest performs a throttled, circuit-broken GET against the TMDB API.
// endpointLabel is the low-cardinality name used in metrics.
func (s *TMDBService) doRequest(ctx context.Context, endpointLabel, endpoint string, params url.Values) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := s.cb.Execute(func() ([]byte, error) {
		return s.get(ctx, endpoint, params)
	})

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	metrics.UpstreamRequests.WithLabelValues(endpointLabel, status).Inc()

	return body, err
}

func (s *TMDBService) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", s.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	q.Set("language", s.language)
	q.Set("include_adult", "false")
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDB API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (s *TMDBService) getPage(ctx context.Context, label, endpoint string, params url.Values, mediaType models.MediaType) ([]models.ContentItem, error) {
	body, err := s.doRequest(ctx, label, endpoint, params)
	if err != nil {
		return nil, err
	}

	var page tmdbPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s results: %w", label, err)
	}

	items := make([]models.ContentItem, 0, len(page.Results))
	for i := range page.Results {
		item := page.Results[i].toItem(mediaType)
		item.PosterURL = s.GetImageURL(item.PosterPath)
		items = append(items, item)
	}
	return items, nil
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, sep)
}

// DiscoverParams converts filters into TMDB discover query parameters
func DiscoverParams(mediaType models.MediaType, f recommend.DiscoverFilters) url.Values {
	params := url.Values{}

	if len(f.GenreIDs) > 0 {
		sep := ","
		if f.GenreJoin == recommend.JoinAny {
			sep = "|"
		}
		params.Set("with_genres", joinInts(f.GenreIDs, sep))
	}
	if f.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(f.MinVoteCount))
	}
	if f.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if mediaType == models.MediaMovie {
		if f.RuntimeMin > 0 {
			params.Set("with_runtime.gte", strconv.Itoa(f.RuntimeMin))
		}
		if f.RuntimeMax > 0 {
			params.Set("with_runtime.lte", strconv.Itoa(f.RuntimeMax))
		}
	}
	if f.OriginalLanguage != "" {
		params.Set("with_original_language", f.OriginalLanguage)
	}
	if f.WatchProviderID > 0 {
		params.Set("with_watch_providers", strconv.Itoa(f.WatchProviderID))
		params.Set("watch_region", f.WatchRegion)
	}
	if f.SortBy != "" {
		params.Set("sort_by", f.SortBy)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	return params
}

// Discover runs a filtered discover query
func (s *TMDBService) Discover(ctx context.Context, mediaType models.MediaType, filters recommend.DiscoverFilters) ([]models.ContentItem, error) {
	return s.getPage(ctx, "discover", fmt.Sprintf("/discover/%s", mediaType), DiscoverParams(mediaType, filters), mediaType)
}

// Similar returns titles TMDB considers similar to id
func (s *TMDBService) Similar(ctx context.Context, mediaType models.MediaType, id int) ([]models.ContentItem, error) {
	params := url.Values{"page": {"1"}}
	return s.getPage(ctx, "similar", fmt.Sprintf("/%s/%d/similar", mediaType, id), params, mediaType)
}

// Details retrieves a title with credits, watch providers and trailers
func (s *TMDBService) Details(ctx context.Context, mediaType models.MediaType, id int) (*models.ContentDetails, error) {
	params := url.Values{"append_to_response": {"credits,watch/providers,videos"}}
	body, err := s.doRequest(ctx, "details", fmt.Sprintf("/%s/%d", mediaType, id), params)
	if err != nil {
		return nil, err
	}

	var raw tmdbDetails
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal details: %w", err)
	}

	d := raw.toDetails(mediaType)
	d.PosterURL = s.GetImageURL(d.PosterPath)
	return d, nil
}

// Search queries movies and TV in parallel and merges the results that have
// a poster, most popular first
func (s *TMDBService) Search(ctx context.Context, query string) ([]models.ContentItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ContentItem{}, nil
	}

	var movies, shows []models.ContentItem
	params := url.Values{"query": {query}, "page": {"1"}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = s.getPage(gctx, "search", "/search/movie", params, models.MediaMovie)
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = s.getPage(gctx, "search", "/search/tv", params, models.MediaTV)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	combined := make([]models.ContentItem, 0, len(movies)+len(shows))
	for _, it := range append(movies, shows...) {
		if it.HasPoster() {
			combined = append(combined, it)
		}
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Popularity > combined[j].Popularity
	})
	if len(combined) > maxSearchResults {
		combined = combined[:maxSearchResults]
	}
	return combined, nil
}

// GetImageURL returns the full URL for an image path
func (s *TMDBService) GetImageURL(path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.imageBaseURL + path
}
