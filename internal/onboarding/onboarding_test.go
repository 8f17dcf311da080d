package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/preferences"
)

var errUnavailable = errors.New("unavailable")

type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[int]bool
	all   bool
	calls []int
}

func (f *fakeFetcher) Details(_ context.Context, mediaType models.MediaType, id int) (*models.ContentDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, id)
	if f.all || f.fail[id] {
		return nil, errUnavailable
	}
	return &models.ContentDetails{ContentItem: models.ContentItem{ID: id, MediaType: mediaType, Title: "T", PosterPath: "/p.jpg"}}, nil
}

func newStore() *preferences.Store {
	return preferences.NewStore(preferences.NewMemoryKV(), zerolog.Nop())
}

func newController(f DetailsFetcher) *Controller {
	return NewController(f, time.Second, 3, zerolog.Nop())
}

func TestNeedsOnboardingAndBatchSize(t *testing.T) {
	onboardingLike := models.ListEntry{ContentItem: models.ContentItem{ID: 1}, FromOnboarding: true}
	plainLike := models.ListEntry{ContentItem: models.ContentItem{ID: 2}}

	tests := []struct {
		name      string
		rated     int
		liked     []models.ListEntry
		wantNeeds bool
		wantBatch int
	}{
		{name: "first run", rated: 0, wantNeeds: true, wantBatch: InitialBatch},
		{name: "plain likes do not count", rated: 0, liked: []models.ListEntry{plainLike}, wantNeeds: true, wantBatch: InitialBatch},
		{name: "eighteen rated", rated: 18, wantNeeds: true, wantBatch: FollowUpBatch},
		{name: "onboarding likes add up", rated: 19, liked: []models.ListEntry{onboardingLike}, wantNeeds: false, wantBatch: FollowUpBatch},
		{name: "onboarding like only", rated: 0, liked: []models.ListEntry{onboardingLike}, wantNeeds: true, wantBatch: FollowUpBatch},
		{name: "threshold reached", rated: 20, wantNeeds: false, wantBatch: FollowUpBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsOnboarding(tt.rated, tt.liked); got != tt.wantNeeds {
				t.Errorf("NeedsOnboarding() = %v, want %v", got, tt.wantNeeds)
			}
			if got := BatchSize(tt.rated, tt.liked); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
		})
	}
}

func TestStart_FirstRunPresentsTen(t *testing.T) {
	f := &fakeFetcher{}
	s, err := newController(f).Start(context.Background(), newStore(), models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	st := s.Status()
	if st.State != StatePresenting {
		t.Fatalf("state = %s, want presenting", st.State)
	}
	if st.Total != InitialBatch {
		t.Errorf("total = %d, want %d", st.Total, InitialBatch)
	}
	if st.Current == nil || st.Current.MediaType != models.MediaMovie {
		t.Errorf("current = %+v, want a movie", st.Current)
	}

	seen := make(map[int]bool)
	for _, id := range f.calls {
		if seen[id] {
			t.Errorf("id %d sampled twice", id)
		}
		seen[id] = true
	}
}

func TestStart_ExcludesOwnedAndDropsFailures(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	for i, c := range Curated[models.MediaTV] {
		if i >= 10 {
			break
		}
		store.AddToWatchlist(ctx, models.ContentItem{ID: c.ID, MediaType: models.MediaTV})
	}
	// 10 watchlisted, 4 left in the pool; one of those fails
	remaining := Curated[models.MediaTV][10:]
	f := &fakeFetcher{fail: map[int]bool{remaining[0].ID: true}}

	s, err := newController(f).Start(ctx, store, models.MediaTV)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	st := s.Status()
	if st.State != StatePresenting {
		t.Fatalf("state = %s, want presenting", st.State)
	}
	if st.Total != 3 {
		t.Errorf("total = %d, want 3", st.Total)
	}
	for _, id := range f.calls {
		for _, c := range Curated[models.MediaTV][:10] {
			if c.ID == id {
				t.Errorf("fetched owned id %d", id)
			}
		}
	}
}

func TestStart_DegradesToCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool", func(t *testing.T) {
		store := newStore()
		for _, c := range Curated[models.MediaMovie] {
			store.AddToSkipped(ctx, models.ContentItem{ID: c.ID, MediaType: models.MediaMovie})
		}
		f := &fakeFetcher{}

		s, err := newController(f).Start(ctx, store, models.MediaMovie)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if got := s.Status().State; got != StateCompleted {
			t.Errorf("state = %s, want completed", got)
		}
		if len(f.calls) != 0 {
			t.Errorf("fetches = %d, want 0", len(f.calls))
		}
	})

	t.Run("every fetch fails", func(t *testing.T) {
		s, err := newController(&fakeFetcher{all: true}).Start(ctx, newStore(), models.MediaMovie)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if got := s.Status().State; got != StateCompleted {
			t.Errorf("state = %s, want completed", got)
		}
	})

	t.Run("threshold already met", func(t *testing.T) {
		store := newStore()
		var liked []models.ContentItem
		for i := 0; i < Threshold; i++ {
			liked = append(liked, models.ContentItem{ID: 9000 + i, MediaType: models.MediaMovie})
		}
		store.RecordOnboarding(ctx, liked, nil)
		f := &fakeFetcher{}

		s, err := newController(f).Start(ctx, store, models.MediaMovie)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if got := s.Status().State; got != StateInactive {
			t.Errorf("state = %s, want inactive", got)
		}
	})
}

func TestStart_RatedEighteenGetsFollowUpBatch(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	var disliked []models.ContentItem
	for i := 0; i < 18; i++ {
		disliked = append(disliked, models.ContentItem{ID: 5000 + i, MediaType: models.MediaMovie})
	}
	store.RecordOnboarding(ctx, nil, disliked)

	s, err := newController(&fakeFetcher{}).Start(ctx, store, models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if st := s.Status(); st.State != StatePresenting || st.Total != FollowUpBatch {
		t.Errorf("status = %+v, want presenting %d titles", st, FollowUpBatch)
	}
}

func TestSession_RateToCompletion(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	var disliked []models.ContentItem
	for i := 0; i < 10; i++ {
		disliked = append(disliked, models.ContentItem{ID: 7000 + i, MediaType: models.MediaMovie})
	}
	store.RecordOnboarding(ctx, nil, disliked)

	s, err := newController(&fakeFetcher{}).Start(ctx, store, models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var keys []models.ContentKey
	ratings := []Rating{RatingLike, RatingDislike, RatingSkip}
	for i, r := range ratings {
		st := s.Status()
		keys = append(keys, st.Current.Key())
		next, err := s.Rate(ctx, r)
		if err != nil {
			t.Fatalf("Rate(%s) error = %v", r, err)
		}
		if i < len(ratings)-1 && next.State != StatePresenting {
			t.Fatalf("state after %d ratings = %s", i+1, next.State)
		}
	}

	st := s.Status()
	if st.State != StateCompleted {
		t.Fatalf("state = %s, want completed", st.State)
	}
	if got := store.RatedCount(); got != 12 {
		t.Errorf("rated count = %d, want 12", got)
	}
	// 12 rated plus the one onboarding like
	if st.Remaining != Threshold-13 {
		t.Errorf("remaining = %d, want %d", st.Remaining, Threshold-13)
	}
	if !store.Contains(models.ListLiked, keys[0]) {
		t.Error("liked title not in liked list")
	}
	if !store.Contains(models.ListSkipped, keys[1]) {
		t.Error("disliked title not in skipped list")
	}
	if store.Contains(models.ListSkipped, keys[2]) || store.Contains(models.ListLiked, keys[2]) {
		t.Error("unseen title was persisted")
	}
	if !store.Liked()[0].FromOnboarding {
		t.Error("onboarding like not flagged")
	}

	if _, err := s.Rate(ctx, RatingLike); !errors.Is(err, ErrNotPresenting) {
		t.Errorf("Rate() after completion error = %v, want ErrNotPresenting", err)
	}
}

func TestSession_SkipPersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	s, err := newController(&fakeFetcher{}).Start(ctx, store, models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := s.Rate(ctx, RatingLike); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	if st := s.Skip(); st.State != StateSkipped {
		t.Errorf("state = %s, want skipped", st.State)
	}
	if len(store.Liked()) != 0 || store.RatedCount() != 0 {
		t.Errorf("skip persisted ratings: liked=%d rated=%d", len(store.Liked()), store.RatedCount())
	}
}

func TestSession_InvalidRating(t *testing.T) {
	s, err := newController(&fakeFetcher{}).Start(context.Background(), newStore(), models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := s.Rate(context.Background(), "love"); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("Rate(love) error = %v, want ErrInvalidRating", err)
	}
}

func TestStart_SameSeedSameOrder(t *testing.T) {
	a, _ := newController(&fakeFetcher{}).Start(context.Background(), newStore(), models.MediaMovie)
	b, _ := newController(&fakeFetcher{}).Start(context.Background(), newStore(), models.MediaMovie)

	if a.Status().Current.ID != b.Status().Current.ID {
		t.Errorf("first titles differ: %d vs %d", a.Status().Current.ID, b.Status().Current.ID)
	}
}

func TestSession_RemainingAgreesWithNeedsOnboarding(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	var liked, disliked []models.ContentItem
	for i := 0; i < 8; i++ {
		liked = append(liked, models.ContentItem{ID: 8000 + i, MediaType: models.MediaMovie})
	}
	for i := 0; i < 2; i++ {
		disliked = append(disliked, models.ContentItem{ID: 9000 + i, MediaType: models.MediaMovie})
	}
	store.RecordOnboarding(ctx, liked, disliked)

	s, err := newController(&fakeFetcher{}).Start(ctx, store, models.MediaMovie)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// rated 10, onboarding likes 8
	st := s.Status()
	if st.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", st.Remaining)
	}
	if !NeedsOnboarding(store.RatedCount(), store.Liked()) {
		t.Fatal("NeedsOnboarding() = false, want true")
	}

	for s.Status().State == StatePresenting {
		if _, err := s.Rate(ctx, RatingLike); err != nil {
			t.Fatalf("Rate() error = %v", err)
		}
	}
	if NeedsOnboarding(store.RatedCount(), store.Liked()) {
		t.Error("NeedsOnboarding() = true after three more likes")
	}
	if got := s.Status().Remaining; got != 0 {
		t.Errorf("remaining = %d, want 0 once onboarding is no longer needed", got)
	}
}

func TestRemaining(t *testing.T) {
	onboardingLike := models.ListEntry{ContentItem: models.ContentItem{ID: 1}, FromOnboarding: true}
	plainLike := models.ListEntry{ContentItem: models.ContentItem{ID: 2}}

	tests := []struct {
		name  string
		rated int
		liked []models.ListEntry
		want  int
	}{
		{"fresh user", 0, nil, Threshold},
		{"plain likes ignored", 5, []models.ListEntry{plainLike}, Threshold - 5},
		{"onboarding likes counted", 18, []models.ListEntry{onboardingLike}, 1},
		{"never negative", 25, []models.ListEntry{onboardingLike}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remaining(tt.rated, tt.liked); got != tt.want {
				t.Errorf("remaining() = %d, want %d", got, tt.want)
			}
			if needs := NeedsOnboarding(tt.rated, tt.liked); needs != (tt.want > 0) {
				t.Errorf("NeedsOnboarding() = %v with remaining %d", needs, tt.want)
			}
		})
	}
}
