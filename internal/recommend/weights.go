package recommend

import "github.com/R-Vicente/watchnext/internal/models"

// coldStartLikes is the liked-count below which popularity dominates.
const coldStartLikes = 5

// Weights is the per-request scoring weight vector.
type Weights struct {
	Genre      float64 `json:"genres"`
	Mood       float64 `json:"mood"`
	Similarity float64 `json:"similarToLiked"`
	Popularity float64 `json:"popularity"`
	Recency    float64 `json:"recency"`
}

// CalculateWeights derives the weight vector from the questionnaire and the
// size of the liked history. Rules apply in order; the cold-start rule runs
// last and overwrites earlier adjustments.
func CalculateWeights(mood, duration string, likedCount int) Weights {
	w := Weights{
		Genre:      0.35,
		Mood:       0.25,
		Similarity: 0.25,
		Popularity: 0.10,
		Recency:    0.05,
	}

	if mood != "" && mood != models.MoodSurprise {
		w.Mood = 0.40
		w.Genre = 0.25
	}

	if mood == models.MoodSurprise {
		w.Mood = 0
		w.Popularity = 0.30
		w.Recency = 0.15
	}

	if duration == models.DurationAny {
		w.Genre += 0.05
		w.Similarity += 0.05
	}

	if likedCount < coldStartLikes {
		w.Popularity = 0.35
		w.Similarity = 0.10
		w.Genre = 0.30
	}

	return w
}
