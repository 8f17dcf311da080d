package models

import (
	"fmt"
	"time"
)

// ListKind names one of the user's persisted lists
type ListKind string

const (
	ListWatchlist ListKind = "watchlist"
	ListLiked     ListKind = "liked"
	ListSkipped   ListKind = "skipped"
)

// String returns the string representation of ListKind
func (k ListKind) String() string {
	return string(k)
}

// IsValid checks if the list kind is known
func (k ListKind) IsValid() bool {
	return k == ListWatchlist || k == ListLiked || k == ListSkipped
}

// ListEntry is a content item recorded in one of the user's lists
type ListEntry struct {
	ContentItem
	AddedAt        *time.Time `json:"addedAt,omitempty"`
	SkippedAt      *time.Time `json:"skippedAt,omitempty"`
	FromOnboarding bool       `json:"fromOnboarding,omitempty"`
}

// SwipeDirection is the gesture used on a discovery card
type SwipeDirection string

const (
	SwipeRight SwipeDirection = "right"
	SwipeUp    SwipeDirection = "up"
	SwipeLeft  SwipeDirection = "left"
)

// Target returns the list a swipe lands in
func (d SwipeDirection) Target() (ListKind, error) {
	switch d {
	case SwipeRight:
		return ListWatchlist, nil
	case SwipeUp:
		return ListLiked, nil
	case SwipeLeft:
		return ListSkipped, nil
	}
	return "", fmt.Errorf("invalid swipe direction: %s", d)
}

// SwipeInput is the request body for recording a swipe
type SwipeInput struct {
	Direction SwipeDirection `json:"direction" validate:"required,oneof=right up left"`
	Item      ContentItem    `json:"item"`
}

// MoveInput is the request body for moving an entry between lists
type MoveInput struct {
	ID        int       `json:"id" validate:"required,gt=0"`
	MediaType MediaType `json:"mediaType" validate:"required,oneof=movie tv"`
	From      ListKind  `json:"from" validate:"required,oneof=watchlist liked"`
	To        ListKind  `json:"to" validate:"required,oneof=watchlist liked"`
}

// Stats summarizes the user's lists
type Stats struct {
	TotalWatchlist         int      `json:"totalWatchlist"`
	TotalLiked             int      `json:"totalLiked"`
	TotalSkipped           int      `json:"totalSkipped"`
	WatchlistMovies        int      `json:"watchlistMovies"`
	WatchlistTV            int      `json:"watchlistTv"`
	LikedMovies            int      `json:"likedMovies"`
	LikedTV                int      `json:"likedTv"`
	EstimatedWatchlistTime string   `json:"estimatedWatchlistTime"`
	EstimatedLikedTime     string   `json:"estimatedLikedTime"`
	AvgRating              float64  `json:"avgRating"`
	TopGenres              []string `json:"topGenres"`
}
