package recommend

import (
	"context"
	"errors"

	"github.com/R-Vicente/watchnext/internal/models"
)

var (
	// ErrNoCandidates is returned when every retrieval strategy came back empty.
	ErrNoCandidates = errors.New("no matching candidates")

	// ErrDetailsUnavailable is returned when the chosen item's details could not be fetched.
	ErrDetailsUnavailable = errors.New("details unavailable for selected item")

	// ErrStaleRequest is returned when a newer request superseded this one.
	ErrStaleRequest = errors.New("recommendation request superseded")
)

// GenreJoin selects how multiple genre ids are combined in a discover query.
type GenreJoin int

const (
	// JoinAll requires every genre (comma-joined).
	JoinAll GenreJoin = iota
	// JoinAny accepts any of the genres (pipe-joined).
	JoinAny
)

// DiscoverFilters is the query sent to the catalog's discover endpoint.
// Zero values mean "no filter".
type DiscoverFilters struct {
	GenreIDs         []int
	GenreJoin        GenreJoin
	MinVoteCount     int
	MinRating        float64
	RuntimeMin       int
	RuntimeMax       int
	OriginalLanguage string
	// WatchProviderID limits results to one streaming service in WatchRegion.
	WatchProviderID int
	WatchRegion     string
	SortBy          string
	Page            int
}

// ContentSearch is the remote catalog the engine pulls candidates from.
// Implementations normalize raw payloads into models types.
type ContentSearch interface {
	Discover(ctx context.Context, mediaType models.MediaType, filters DiscoverFilters) ([]models.ContentItem, error)
	Similar(ctx context.Context, mediaType models.MediaType, id int) ([]models.ContentItem, error)
	Details(ctx context.Context, mediaType models.MediaType, id int) (*models.ContentDetails, error)
	Search(ctx context.Context, query string) ([]models.ContentItem, error)
}
