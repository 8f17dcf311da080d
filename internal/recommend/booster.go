package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	minLikedForBoost = 3
	boostSources     = 3
	boostPerMatch    = 0.15
)

// Booster raises candidates that appear in "similar to" lists of liked items.
type Booster struct {
	search  ContentSearch
	timeout time.Duration
	logger  zerolog.Logger
}

// NewBooster creates a collaborative booster.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewBooster(search ContentSearch, timeout time.Duration, logger zerolog.Logger) *Booster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Booster{
		search:  search,
		timeout: timeout,
		logger:  logger.With().Str("component", "booster").Logger(),
	}
}

// Boost returns candidates with similarity boosts applied. liked must be
// ordered most recent first. With fewer than three likes the input slice is
// returned unchanged.
func (b *Booster) Boost(ctx context.Context, candidates []ScoredCandidate, liked []models.ListEntry, mediaType models.MediaType) []ScoredCandidate {
	if len(liked) < minLikedForBoost {
		return candidates
	}

	sources := make([]int, 0, boostSources)
	for _, e := range liked {
		if e.MediaType != mediaType {
			continue
		}
		sources = append(sources, e.ID)
		if len(sources) == boostSources {
			break
		}
	}
	if len(sources) == 0 {
		return candidates
	}

	lists := make([][]models.ContentItem, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, b.timeout)
			defer cancel()

			items, err := b.search.Similar(sctx, mediaType, id)
			if err != nil {
				b.logger.Warn().Err(err).Int("id", id).Msg("similar lookup failed")
				return nil
			}
			lists[i] = items
			return nil
		})
	}
	_ = g.Wait()

	// matches counts how many source lists contain each id
	matches := make(map[int]int)
	for _, list := range lists {
		inList := make(map[int]struct{}, len(list))
		for _, item := range list {
			inList[item.ID] = struct{}{}
		}
		for id := range inList {
			matches[id]++
		}
	}

	out := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		n := matches[c.Item.ID]
		if n == 0 {
			out[i] = c
			continue
		}
		boosted := c
		boosted.Score += boostPerMatch * float64(n)
		boosted.Reasons = Reasons{
			Positive: append(append([]string(nil), c.Reasons.Positive...), similarReason(mediaType, n)),
			Negative: c.Reasons.Negative,
		}
		out[i] = boosted
	}
	return out
}

func similarReason(mediaType models.MediaType, matches int) string {
	if matches > 1 {
		return fmt.Sprintf("Similar to multiple %ss you loved", mediaType.Noun())
	}
	return fmt.Sprintf("Similar to a %s you loved", mediaType.Noun())
}
