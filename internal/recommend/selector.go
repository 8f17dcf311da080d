package recommend

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	fallbackPoolSize = 10
	fallbackScore    = 0.5
	pickFromTop      = 3
	minConfidence    = 0.60
	maxConfidence    = 0.95
	maxNegatives     = 1
)

// ProfileSummary is the slice of the taste profile shown with a result.
type ProfileSummary struct {
	TotalLiked int     `json:"totalLiked"`
	AvgRating  float64 `json:"avgRating"`
}

// Explanation tells the user why an item was picked.
type Explanation struct {
	Positive        []string       `json:"positive"`
	Negative        []string       `json:"negative"`
	Confidence      float64        `json:"confidence"`
	ConfidenceLabel string         `json:"confidenceLabel"`
	Weights         Weights        `json:"weights"`
	UserPrefs       ProfileSummary `json:"userPrefs"`
}

// Recommendation is the selected item with its details and explanation.
type Recommendation struct {
	Item        *models.ContentDetails `json:"item"`
	Score       float64                `json:"score"`
	Explanation Explanation            `json:"explanation"`
	Generation  uint64                 `json:"generation"`
}

// KeepViable drops non-positive scores. When nothing is left it falls back to
// the most popular candidates with a flat score.
func KeepViable(scored []ScoredCandidate) []ScoredCandidate {
	positive := make([]ScoredCandidate, 0, len(scored))
	for _, s := range scored {
		if s.Score > 0 {
			positive = append(positive, s)
		}
	}
	if len(positive) > 0 {
		return positive
	}

	pool := append([]ScoredCandidate(nil), scored...)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Item.Popularity > pool[j].Item.Popularity
	})
	if len(pool) > fallbackPoolSize {
		pool = pool[:fallbackPoolSize]
	}
	for i := range pool {
		pool[i].Score = fallbackScore
	}
	return pool
}

// PickTop sorts by score and picks uniformly among the best three.
// scored must not be empty.
func PickTop(scored []ScoredCandidate, rng *rand.Rand) ScoredCandidate {
	ranked := append([]ScoredCandidate(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	n := pickFromTop
	if len(ranked) < n {
		n = len(ranked)
	}
	return ranked[rng.Intn(n)]
}

// Confidence clamps a score into the displayed confidence range.
func Confidence(score float64) float64 {
	return math.Min(maxConfidence, math.Max(minConfidence, score))
}

// ConfidenceLabel maps a confidence value to its display text.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.85:
		return "Very confident"
	case confidence >= 0.70:
		return "Confident"
	case confidence >= 0.55:
		return "Good match"
	default:
		return "Worth a try"
	}
}

// ExplainInput carries the context an explanation is built from.
type ExplainInput struct {
	Selection   models.MoodSelection
	Weights     Weights
	Profile     TasteProfile
	WatchRegion string
}

// Explain builds the explanation for the selected candidate.
func Explain(selected ScoredCandidate, details *models.ContentDetails, in ExplainInput) Explanation {
	positive := append([]string{}, selected.Reasons.Positive...)

	if providers := details.FlatrateProviders(in.WatchRegion); len(providers) > 0 {
		positive = append(positive, fmt.Sprintf("Available on %s", providers[0].Name))
	}

	sel := in.Selection
	switch sel.MediaType {
	case models.MediaMovie:
		if details.Runtime != nil && *details.Runtime > 0 && sel.Duration != "" && sel.Duration != models.DurationAny {
			positive = append(positive, fmt.Sprintf("%d min - fits your time", *details.Runtime))
		}
	case models.MediaTV:
		if details.NumberOfSeasons != nil && sel.Commitment != "" {
			if opt, ok := models.FindCommitment(sel.Commitment); ok && opt.Fits(*details.NumberOfSeasons) {
				positive = append(positive, seasonsReason(*details.NumberOfSeasons))
			}
		}
	}

	negative := append([]string{}, selected.Reasons.Negative...)
	if len(negative) > maxNegatives {
		negative = negative[:maxNegatives]
	}

	confidence := Confidence(selected.Score)
	return Explanation{
		Positive:        positive,
		Negative:        negative,
		Confidence:      confidence,
		ConfidenceLabel: ConfidenceLabel(confidence),
		Weights:         in.Weights,
		UserPrefs: ProfileSummary{
			TotalLiked: in.Profile.TotalLiked,
			AvgRating:  math.Round(in.Profile.AvgRating*10) / 10,
		},
	}
}

func seasonsReason(seasons int) string {
	if seasons == 1 {
		return "1 season - fits your commitment"
	}
	return fmt.Sprintf("%d seasons - fits your commitment", seasons)
}
