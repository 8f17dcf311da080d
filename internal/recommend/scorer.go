package recommend

import (
	"fmt"
	"math"

	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	// excludedScore marks items already in the watchlist or liked list.
	excludedScore = -1

	skippedGenrePenalty   = 0.2
	skippedReasonMinPct   = 30
	highRatingThreshold   = 7.5
	ratingTolerance       = 0.5
	popularityNormalizer  = 100.0
	ratingSimilarityShare = 0.5
)

// Reasons are the human-readable explanations attached to a score.
type Reasons struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// ScoredCandidate is a candidate with its unclamped score.
type ScoredCandidate struct {
	Item    models.ContentItem `json:"item"`
	Score   float64            `json:"score"`
	Reasons Reasons            `json:"reasons"`
}

// ScoreInput holds everything the scorer needs besides the item.
type ScoreInput struct {
	Profile    TasteProfile
	Weights    Weights
	MoodGenres []int
	MoodLabel  string
	// Owned holds watchlist and liked identities.
	Owned map[models.ContentKey]struct{}
}

// Score computes a candidate's weighted score and reasons.
func Score(item models.ContentItem, in ScoreInput) ScoredCandidate {
	var score float64
	reasons := Reasons{Positive: []string{}, Negative: []string{}}

	// genre affinity
	var matchedPct int
	var firstMatch *GenreStat
	for i, g := range in.Profile.TopGenres {
		if !item.HasGenre(g.ID) {
			continue
		}
		matchedPct += g.Percentage
		if firstMatch == nil {
			firstMatch = &in.Profile.TopGenres[i]
		}
	}
	if firstMatch != nil {
		score += float64(matchedPct) / 100 * in.Weights.Genre
		if name, ok := models.GenreName(firstMatch.ID); ok {
			reasons.Positive = append(reasons.Positive,
				fmt.Sprintf("Matches your love for %s (%d%% of liked)", name, firstMatch.Percentage))
		}
	}

	// mood
	if len(in.MoodGenres) > 0 && item.HasAnyGenre(in.MoodGenres) {
		score += in.Weights.Mood
		reasons.Positive = append(reasons.Positive, fmt.Sprintf("Fits your \"%s\" mood", in.MoodLabel))
	}

	// rating relative to the user's average
	if in.Profile.AvgRating > 0 && item.VoteAverage >= in.Profile.AvgRating-ratingTolerance {
		score += in.Weights.Similarity * ratingSimilarityShare
		if item.VoteAverage >= highRatingThreshold {
			reasons.Positive = append(reasons.Positive, fmt.Sprintf("High rating: %.1f⭐", item.VoteAverage))
		}
	}

	score += math.Min(item.Popularity/popularityNormalizer, 1) * in.Weights.Popularity

	// skipped genres
	var skippedHits int
	var firstSkipped *GenreStat
	for i, g := range in.Profile.SkippedGenres {
		if !item.HasGenre(g.ID) {
			continue
		}
		skippedHits++
		if firstSkipped == nil {
			firstSkipped = &in.Profile.SkippedGenres[i]
		}
	}
	if skippedHits > 0 {
		score -= skippedGenrePenalty * float64(skippedHits)
		if name, ok := models.GenreName(firstSkipped.ID); ok && firstSkipped.Percentage > skippedReasonMinPct {
			reasons.Negative = append(reasons.Negative,
				fmt.Sprintf("Contains %s (you skip this %d%% of times)", name, firstSkipped.Percentage))
		}
	}

	if _, owned := in.Owned[item.Key()]; owned {
		score = excludedScore
	}

	return ScoredCandidate{Item: item, Score: score, Reasons: reasons}
}
