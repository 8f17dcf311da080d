package recommend

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/models"
)

func scoredOf(items ...models.ContentItem) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(items))
	for _, it := range items {
		out = append(out, ScoredCandidate{Item: it, Score: 0.5, Reasons: Reasons{Positive: []string{}, Negative: []string{}}})
	}
	return out
}

func TestBoost_NoopBelowThreeLikes(t *testing.T) {
	fs := &fakeSearch{similar: map[int][]models.ContentItem{1: {movie(100)}}}
	b := NewBooster(fs, time.Second, zerolog.Nop())
	in := scoredOf(movie(100), movie(101))

	got := b.Boost(context.Background(), in, []models.ListEntry{entry(movie(1)), entry(movie(2))}, models.MediaMovie)

	if !reflect.DeepEqual(got, in) {
		t.Errorf("Boost() = %+v, want input unchanged", got)
	}
	if len(fs.similarCalls) != 0 {
		t.Errorf("similar lookups = %d, want 0", len(fs.similarCalls))
	}
}

func TestBoost_AppliesMatchesFromRecentLikes(t *testing.T) {
	fs := &fakeSearch{
		similar: map[int][]models.ContentItem{
			1: {movie(100), movie(101)},
			2: {movie(100)},
			3: {movie(999)},
			4: {movie(102)},
		},
		similarErr: map[int]error{3: errUpstream},
	}
	b := NewBooster(fs, time.Second, zerolog.Nop())
	liked := []models.ListEntry{
		entry(movie(1)),
		entry(models.ContentItem{ID: 50, MediaType: models.MediaTV}),
		entry(movie(2)),
		entry(movie(3)),
		entry(movie(4)),
	}
	in := scoredOf(movie(100), movie(101), movie(102), movie(103))

	got := b.Boost(context.Background(), in, liked, models.MediaMovie)

	tests := []struct {
		id         int
		wantScore  float64
		wantReason string
	}{
		{id: 100, wantScore: 0.8, wantReason: "Similar to multiple movies you loved"},
		{id: 101, wantScore: 0.65, wantReason: "Similar to a movie you loved"},
		{id: 102, wantScore: 0.5},
		{id: 103, wantScore: 0.5},
	}
	for i, tt := range tests {
		c := got[i]
		if c.Item.ID != tt.id {
			t.Fatalf("got[%d].ID = %d, want %d", i, c.Item.ID, tt.id)
		}
		if !approx(c.Score, tt.wantScore) {
			t.Errorf("score for %d = %f, want %f", tt.id, c.Score, tt.wantScore)
		}
		if tt.wantReason != "" && !hasReason(c.Reasons.Positive, tt.wantReason) {
			t.Errorf("reasons for %d = %v, want %q", tt.id, c.Reasons.Positive, tt.wantReason)
		}
	}

	// the input must not be mutated
	if in[0].Score != 0.5 || len(in[0].Reasons.Positive) != 0 {
		t.Errorf("input mutated: %+v", in[0])
	}
	// only the three most recent movie likes are consulted
	if len(fs.similarCalls) != 3 {
		t.Errorf("similar lookups = %d, want 3", len(fs.similarCalls))
	}
}

func TestBoost_ShowWording(t *testing.T) {
	show := func(id int) models.ContentItem {
		return models.ContentItem{ID: id, MediaType: models.MediaTV, PosterPath: "/p.jpg"}
	}
	fs := &fakeSearch{similar: map[int][]models.ContentItem{10: {show(200)}}}
	b := NewBooster(fs, time.Second, zerolog.Nop())
	liked := []models.ListEntry{entry(show(10)), entry(show(11)), entry(show(12))}

	got := b.Boost(context.Background(), scoredOf(show(200)), liked, models.MediaTV)

	if !hasReason(got[0].Reasons.Positive, "Similar to a show you loved") {
		t.Errorf("reasons = %v, want show wording", got[0].Reasons.Positive)
	}
}
