package recommend

import (
	"math"
	"sort"

	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	maxTopGenres     = 5
	maxSkippedGenres = 3
	// skipped genres are only meaningful past this many skips
	minSkippedForSignal = 3
)

// GenreStat is one genre's share of a list.
type GenreStat struct {
	ID         int `json:"id"`
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// TasteProfile summarizes the user's liked and skipped history.
type TasteProfile struct {
	TopGenres        []GenreStat `json:"topGenres"`
	AvgRating        float64     `json:"avgRating"`
	SkippedGenres    []GenreStat `json:"skippedGenres"`
	PreferredRuntime float64     `json:"preferredRuntime,omitempty"`
	TotalLiked       int         `json:"totalLiked"`
	TotalSkipped     int         `json:"totalSkipped"`
}

// Analyze builds a TasteProfile from list snapshots. It has no side effects.
func Analyze(liked, skipped []models.ListEntry) TasteProfile {
	profile := TasteProfile{
		TopGenres:     []GenreStat{},
		SkippedGenres: []GenreStat{},
		TotalLiked:    len(liked),
		TotalSkipped:  len(skipped),
	}

	if len(liked) > 0 {
		var totalRating, totalRuntime float64
		var runtimeCount int
		for _, e := range liked {
			totalRating += e.VoteAverage
			if e.Runtime != nil && *e.Runtime > 0 {
				totalRuntime += float64(*e.Runtime)
				runtimeCount++
			}
		}

		profile.TopGenres = rankGenres(countGenres(liked), len(liked), nil, maxTopGenres)
		profile.AvgRating = totalRating / float64(len(liked))
		if runtimeCount > 0 {
			profile.PreferredRuntime = totalRuntime / float64(runtimeCount)
		}
	}

	if len(skipped) > minSkippedForSignal {
		exclude := make(map[int]struct{}, len(profile.TopGenres))
		for _, g := range profile.TopGenres {
			exclude[g.ID] = struct{}{}
		}
		profile.SkippedGenres = rankGenres(countGenres(skipped), len(skipped), exclude, maxSkippedGenres)
	}

	return profile
}

// countGenres tallies one vote per (entry, genre).
func countGenres(entries []models.ListEntry) map[int]int {
	counts := make(map[int]int)
	for _, e := range entries {
		seen := make(map[int]struct{}, len(e.GenreIDs))
		for _, id := range e.GenreIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}
	return counts
}

// rankGenres sorts by count desc, ties by genre id asc, and keeps limit entries.
func rankGenres(counts map[int]int, total int, exclude map[int]struct{}, limit int) []GenreStat {
	stats := make([]GenreStat, 0, len(counts))
	for id, count := range counts {
		if _, skip := exclude[id]; skip {
			continue
		}
		stats = append(stats, GenreStat{
			ID:         id,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].ID < stats[j].ID
	})

	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
