package models

// MediaType distinguishes movies from TV shows
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// String returns the string representation of MediaType
func (m MediaType) String() string {
	return string(m)
}

// IsValid checks if the media type is known
func (m MediaType) IsValid() bool {
	return m == MediaMovie || m == MediaTV
}

// Noun returns the human word used in reason text
func (m MediaType) Noun() string {
	if m == MediaTV {
		return "show"
	}
	return "movie"
}

// ContentKey identifies a catalog entry across media types
type ContentKey struct {
	ID        int
	MediaType MediaType
}

// ContentItem is a normalized catalog entry
type ContentItem struct {
	ID              int       `json:"id"`
	MediaType       MediaType `json:"mediaType"`
	Title           string    `json:"title"`
	Overview        string    `json:"overview,omitempty"`
	PosterPath      string    `json:"posterPath,omitempty"`
	PosterURL       string    `json:"posterUrl,omitempty"`
	ReleaseDate     string    `json:"releaseDate,omitempty"`
	VoteAverage     float64   `json:"voteAverage"`
	Popularity      float64   `json:"popularity"`
	GenreIDs        []int     `json:"genreIds"`
	Runtime         *int      `json:"runtime,omitempty"`
	NumberOfSeasons *int      `json:"numberOfSeasons,omitempty"`
}

// Key returns the identity of the item
func (c ContentItem) Key() ContentKey {
	return ContentKey{ID: c.ID, MediaType: c.MediaType}
}

// HasPoster reports whether the item can be displayed on a card
func (c ContentItem) HasPoster() bool {
	return c.PosterPath != ""
}

// HasGenre reports whether the item is tagged with the genre
func (c ContentItem) HasGenre(genreID int) bool {
	for _, id := range c.GenreIDs {
		if id == genreID {
			return true
		}
	}
	return false
}

// HasAnyGenre reports whether the item shares at least one genre with ids
func (c ContentItem) HasAnyGenre(ids []int) bool {
	for _, id := range ids {
		if c.HasGenre(id) {
			return true
		}
	}
	return false
}

// WatchProvider is a streaming service offering the title
type WatchProvider struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logoPath,omitempty"`
}

// CastMember is a credited actor
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profilePath,omitempty"`
}

// Trailer is a YouTube trailer or teaser for a title
type Trailer struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ContentDetails extends ContentItem with the fields shown on the result screen
type ContentDetails struct {
	ContentItem
	Tagline        string                     `json:"tagline,omitempty"`
	Status         string                     `json:"status,omitempty"`
	Cast           []CastMember               `json:"cast,omitempty"`
	Director       string                     `json:"director,omitempty"`
	EpisodeRuntime *int                       `json:"episodeRuntime,omitempty"`
	WatchProviders map[string][]WatchProvider `json:"watchProviders,omitempty"`
	Trailers       []Trailer                  `json:"trailers,omitempty"`
}

// FlatrateProviders returns the subscription providers for a region
func (d *ContentDetails) FlatrateProviders(region string) []WatchProvider {
	if d == nil || d.WatchProviders == nil {
		return nil
	}
	return d.WatchProviders[region]
}
