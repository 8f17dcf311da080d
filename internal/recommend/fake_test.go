package recommend

import (
	"context"
	"errors"
	"sync"

	"github.com/R-Vicente/watchnext/internal/models"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSearch is an in-memory ContentSearch.
type fakeSearch struct {
	mu sync.Mutex

	discover   func(f DiscoverFilters) ([]models.ContentItem, error)
	similar    map[int][]models.ContentItem
	similarErr map[int]error
	details    map[int]*models.ContentDetails
	detailsErr error

	discoverCalls []DiscoverFilters
	similarCalls  []int
}

func (f *fakeSearch) Discover(_ context.Context, _ models.MediaType, filters DiscoverFilters) ([]models.ContentItem, error) {
	f.mu.Lock()
	f.discoverCalls = append(f.discoverCalls, filters)
	fn := f.discover
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(filters)
}

func (f *fakeSearch) Similar(_ context.Context, _ models.MediaType, id int) ([]models.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.similarCalls = append(f.similarCalls, id)
	if err := f.similarErr[id]; err != nil {
		return nil, err
	}
	return f.similar[id], nil
}

func (f *fakeSearch) Details(_ context.Context, _ models.MediaType, id int) (*models.ContentDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return &models.ContentDetails{ContentItem: models.ContentItem{ID: id}}, nil
}

func (f *fakeSearch) Search(context.Context, string) ([]models.ContentItem, error) {
	return nil, nil
}

func (f *fakeSearch) calls() []DiscoverFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DiscoverFilters(nil), f.discoverCalls...)
}

// movie builds a displayable movie.
func movie(id int, genres ...int) models.ContentItem {
	return models.ContentItem{
		ID:          id,
		MediaType:   models.MediaMovie,
		Title:       "Title",
		PosterPath:  "/poster.jpg",
		VoteAverage: 7,
		Popularity:  50,
		GenreIDs:    genres,
	}
}

func entry(item models.ContentItem) models.ListEntry {
	return models.ListEntry{ContentItem: item}
}

// itemsFrom returns n movies with ids starting at from.
func itemsFrom(from, n int, genres ...int) []models.ContentItem {
	out := make([]models.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, movie(from+i, genres...))
	}
	return out
}

func intPtr(v int) *int { return &v }
