package preferences

import (
	"fmt"
	"math"
	"sort"

	"github.com/R-Vicente/watchnext/internal/models"
)

// Estimated minutes per title, used for the "time to watch" figures.
const (
	movieMinutes = 120
	showMinutes  = 10 * 45
)

// Stats summarizes the user's lists.
func (s *Store) Stats() models.Stats {
	snap := s.Snapshot()

	st := models.Stats{
		TotalWatchlist: len(snap.Watchlist),
		TotalLiked:     len(snap.Liked),
		TotalSkipped:   len(snap.Skipped),
		TopGenres:      []string{},
	}
	st.WatchlistMovies, st.WatchlistTV = countByType(snap.Watchlist)
	st.LikedMovies, st.LikedTV = countByType(snap.Liked)
	st.EstimatedWatchlistTime = formatMinutes(st.WatchlistMovies*movieMinutes + st.WatchlistTV*showMinutes)
	st.EstimatedLikedTime = formatMinutes(st.LikedMovies*movieMinutes + st.LikedTV*showMinutes)

	if len(snap.Liked) > 0 {
		var sum float64
		for _, e := range snap.Liked {
			sum += e.VoteAverage
		}
		st.AvgRating = math.Round(sum/float64(len(snap.Liked))*10) / 10
	}

	st.TopGenres = topGenreNames(snap.Liked, 3)
	return st
}

func countByType(entries []models.ListEntry) (movies, shows int) {
	for _, e := range entries {
		if e.MediaType == models.MediaTV {
			shows++
		} else {
			movies++
		}
	}
	return movies, shows
}

func topGenreNames(entries []models.ListEntry, limit int) []string {
	counts := make(map[int]int)
	for _, e := range entries {
		for _, id := range e.GenreIDs {
			counts[id]++
		}
	}

	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, ok := models.GenreName(id)
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return names
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dd %dh", hours/24, hours%24)
}
