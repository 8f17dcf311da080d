package preferences

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/models"
)

var errWrite = errors.New("disk full")

type failingKV struct {
	*MemoryKV
	failSet    bool
	failDelete bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errWrite
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, keys ...string) error {
	if f.failDelete {
		return errWrite
	}
	return f.MemoryKV.Delete(ctx, keys...)
}

func item(id int, mt models.MediaType, genres ...int) models.ContentItem {
	return models.ContentItem{ID: id, MediaType: mt, Title: "T", PosterPath: "/p.jpg", GenreIDs: genres}
}

func newTestStore(kv KV) *Store {
	s := NewStore(kv, zerolog.Nop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s
}

func ids(entries []models.ListEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_WatchlistAndLikedAreExclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())
	m := item(1, models.MediaMovie)

	s.AddToWatchlist(ctx, m)
	s.AddToLiked(ctx, m)

	if len(s.Watchlist()) != 0 {
		t.Errorf("watchlist = %v, want empty after like", ids(s.Watchlist()))
	}
	if got := ids(s.Liked()); !equalInts(got, []int{1}) {
		t.Errorf("liked = %v, want [1]", got)
	}

	s.AddToWatchlist(ctx, m)
	if len(s.Liked()) != 0 {
		t.Errorf("liked = %v, want empty after watchlist", ids(s.Liked()))
	}
}

func TestStore_SameIDDifferentMediaTypeCoexist(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())

	s.AddToWatchlist(ctx, item(7, models.MediaMovie))
	s.AddToWatchlist(ctx, item(7, models.MediaTV))

	if n := len(s.Watchlist()); n != 2 {
		t.Errorf("watchlist length = %d, want 2", n)
	}
}

func TestStore_AddMovesToFront(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())

	s.AddToWatchlist(ctx, item(1, models.MediaMovie))
	s.AddToWatchlist(ctx, item(2, models.MediaMovie))
	s.AddToWatchlist(ctx, item(1, models.MediaMovie))

	if got := ids(s.Watchlist()); !equalInts(got, []int{1, 2}) {
		t.Errorf("watchlist = %v, want [1 2]", got)
	}
	if e := s.Watchlist()[0]; e.AddedAt == nil {
		t.Error("AddedAt not set")
	}
}

func TestStore_SkippedCap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())

	for i := 1; i <= MaxSkipped+5; i++ {
		s.AddToSkipped(ctx, item(i, models.MediaMovie))
	}

	skipped := s.Skipped()
	if len(skipped) != MaxSkipped {
		t.Fatalf("skipped length = %d, want %d", len(skipped), MaxSkipped)
	}
	if skipped[0].ID != MaxSkipped+5 {
		t.Errorf("newest = %d, want %d", skipped[0].ID, MaxSkipped+5)
	}
	if last := skipped[len(skipped)-1].ID; last != 6 {
		t.Errorf("oldest kept = %d, want 6", last)
	}
	if skipped[0].SkippedAt == nil {
		t.Error("SkippedAt not set")
	}
}

func TestStore_Swipe(t *testing.T) {
	tests := []struct {
		dir  models.SwipeDirection
		want models.ListKind
	}{
		{dir: models.SwipeRight, want: models.ListWatchlist},
		{dir: models.SwipeUp, want: models.ListLiked},
		{dir: models.SwipeLeft, want: models.ListSkipped},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			s := newTestStore(NewMemoryKV())
			kind, _, err := s.Swipe(context.Background(), tt.dir, item(3, models.MediaMovie))
			if err != nil {
				t.Fatalf("Swipe() error = %v", err)
			}
			if kind != tt.want {
				t.Errorf("Swipe() kind = %s, want %s", kind, tt.want)
			}
			if !s.Contains(tt.want, models.ContentKey{ID: 3, MediaType: models.MediaMovie}) {
				t.Errorf("item not in %s", tt.want)
			}
		})
	}

	s := newTestStore(NewMemoryKV())
	if _, _, err := s.Swipe(context.Background(), "down", item(3, models.MediaMovie)); err == nil {
		t.Error("Swipe(down) error = nil, want error")
	}
}

func TestStore_RemoveAndMove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())
	key := models.ContentKey{ID: 1, MediaType: models.MediaMovie}
	s.AddToWatchlist(ctx, item(1, models.MediaMovie))

	if _, err := s.Move(ctx, key, models.ListWatchlist, models.ListSkipped); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("Move() to skipped error = %v, want ErrInvalidMove", err)
	}

	if _, err := s.Move(ctx, key, models.ListWatchlist, models.ListLiked); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !s.Contains(models.ListLiked, key) || s.Contains(models.ListWatchlist, key) {
		t.Error("Move() did not transfer the entry")
	}

	removed, err := s.Remove(ctx, models.ListLiked, key)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if removed.ID != 1 {
		t.Errorf("removed = %d, want 1", removed.ID)
	}
	if _, err := s.Remove(ctx, models.ListLiked, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Move(ctx, key, models.ListLiked, models.ListWatchlist); !errors.Is(err, ErrNotFound) {
		t.Errorf("Move() missing error = %v, want ErrNotFound", err)
	}
}

func TestStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())
	s.AddToLiked(ctx, item(1, models.MediaMovie))

	got := s.Liked()
	got[0].ID = 99

	if s.Liked()[0].ID != 1 {
		t.Error("mutating a returned slice changed the store")
	}
}

func TestStore_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(kv)

	s.AddToWatchlist(ctx, item(1, models.MediaMovie, 28))
	s.AddToLiked(ctx, item(2, models.MediaTV, 18))
	s.AddToSkipped(ctx, item(3, models.MediaMovie, 27))
	s.RecordOnboarding(ctx, []models.ContentItem{item(4, models.MediaMovie)}, []models.ContentItem{item(5, models.MediaMovie)})

	loaded, err := Load(ctx, kv, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := loaded.Snapshot()
	if got := ids(snap.Watchlist); !equalInts(got, []int{1}) {
		t.Errorf("watchlist = %v, want [1]", got)
	}
	if got := ids(snap.Liked); !equalInts(got, []int{4, 2}) {
		t.Errorf("liked = %v, want [4 2]", got)
	}
	if got := ids(snap.Skipped); !equalInts(got, []int{5, 3}) {
		t.Errorf("skipped = %v, want [5 3]", got)
	}
	if snap.RatedCount != 2 {
		t.Errorf("rated count = %d, want 2", snap.RatedCount)
	}
	if !snap.Liked[0].FromOnboarding {
		t.Error("onboarding like not flagged")
	}
	if snap.Liked[1].MediaType != models.MediaTV {
		t.Errorf("media type = %s, want tv", snap.Liked[1].MediaType)
	}
}

func TestLoad_UndecodableValuesAreEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Set(ctx, KeyWatchlist, []byte("{not json"))
	_ = kv.Set(ctx, KeyRatedCount, []byte("many"))
	good, _ := json.Marshal([]models.ListEntry{{ContentItem: item(9, models.MediaMovie)}})
	_ = kv.Set(ctx, KeyLiked, good)

	s, err := Load(ctx, kv, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Watchlist() == nil || len(s.Watchlist()) != 0 {
		t.Errorf("watchlist = %v, want empty", s.Watchlist())
	}
	if s.RatedCount() != 0 {
		t.Errorf("rated count = %d, want 0", s.RatedCount())
	}
	if got := ids(s.Liked()); !equalInts(got, []int{9}) {
		t.Errorf("liked = %v, want [9]", got)
	}
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: NewMemoryKV(), failSet: true}
	s := newTestStore(kv)

	s.AddToWatchlist(ctx, item(1, models.MediaMovie))

	if n := len(s.Watchlist()); n != 1 {
		t.Errorf("watchlist length = %d, want 1", n)
	}
	if _, found, _ := kv.MemoryKV.Get(ctx, KeyWatchlist); found {
		t.Error("value persisted despite failing writes")
	}
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("clears everything", func(t *testing.T) {
		kv := NewMemoryKV()
		s := newTestStore(kv)
		s.AddToLiked(ctx, item(1, models.MediaMovie))
		s.RecordOnboarding(ctx, nil, []models.ContentItem{item(2, models.MediaMovie)})

		if err := s.Reset(ctx); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		snap := s.Snapshot()
		if len(snap.Liked)+len(snap.Skipped)+len(snap.Watchlist) != 0 || snap.RatedCount != 0 {
			t.Errorf("snapshot after reset = %+v", snap)
		}
		for _, key := range AllKeys {
			if _, found, _ := kv.Get(ctx, key); found {
				t.Errorf("key %s still persisted", key)
			}
		}
	})

	t.Run("reports storage failure", func(t *testing.T) {
		kv := &failingKV{MemoryKV: NewMemoryKV(), failDelete: true}
		s := newTestStore(kv)
		s.AddToLiked(ctx, item(1, models.MediaMovie))

		if err := s.Reset(ctx); !errors.Is(err, errWrite) {
			t.Errorf("Reset() error = %v, want %v", err, errWrite)
		}
		if n := len(s.Liked()); n != 1 {
			t.Errorf("liked length = %d, want 1 after failed reset", n)
		}
	})
}

func TestStore_ClearOneList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())
	s.AddToLiked(ctx, item(1, models.MediaMovie))
	s.AddToWatchlist(ctx, item(2, models.MediaMovie))

	if err := s.Clear(ctx, models.ListLiked); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if len(s.Liked()) != 0 || len(s.Watchlist()) != 1 {
		t.Errorf("after Clear(liked): liked=%d watchlist=%d", len(s.Liked()), len(s.Watchlist()))
	}
	if err := s.Clear(ctx, "favorites"); err == nil {
		t.Error("Clear(favorites) error = nil, want error")
	}
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryKV())

	a := item(1, models.MediaMovie, 28, 12)
	a.VoteAverage = 8.0
	b := item(2, models.MediaMovie, 28)
	b.VoteAverage = 7.25
	c := item(3, models.MediaTV, 18, 28)
	c.VoteAverage = 6.0
	s.AddToLiked(ctx, a)
	s.AddToLiked(ctx, b)
	s.AddToLiked(ctx, c)
	s.AddToWatchlist(ctx, item(4, models.MediaMovie))

	st := s.Stats()

	if st.TotalLiked != 3 || st.LikedMovies != 2 || st.LikedTV != 1 {
		t.Errorf("liked counts = %d/%d/%d, want 3/2/1", st.TotalLiked, st.LikedMovies, st.LikedTV)
	}
	if st.EstimatedWatchlistTime != "2h 0m" {
		t.Errorf("watchlist time = %q, want %q", st.EstimatedWatchlistTime, "2h 0m")
	}
	if st.EstimatedLikedTime != "11h 30m" {
		t.Errorf("liked time = %q, want %q", st.EstimatedLikedTime, "11h 30m")
	}
	if st.AvgRating != 7.1 {
		t.Errorf("avg rating = %v, want 7.1", st.AvgRating)
	}
	want := []string{"Action", "Adventure", "Drama"}
	if len(st.TopGenres) != 3 {
		t.Fatalf("top genres = %v, want %v", st.TopGenres, want)
	}
	for i := range want {
		if st.TopGenres[i] != want[i] {
			t.Errorf("top genres = %v, want %v", st.TopGenres, want)
			break
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{minutes: 0, want: "0m"},
		{minutes: 45, want: "45m"},
		{minutes: 90, want: "1h 30m"},
		{minutes: 24 * 60, want: "1d 0h"},
		{minutes: 50 * 60, want: "2d 2h"},
	}

	for _, tt := range tests {
		if got := formatMinutes(tt.minutes); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestRegistry_CachesPerUser(t *testing.T) {
	opened := 0
	kvs := make(map[uuid.UUID]*MemoryKV)
	r := NewRegistry(func(id uuid.UUID) KV {
		opened++
		kv := NewMemoryKV()
		kvs[id] = kv
		return kv
	}, zerolog.Nop())

	alice, bob := uuid.New(), uuid.New()
	ctx := context.Background()

	s1, err := r.Get(ctx, alice)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	s2, _ := r.Get(ctx, alice)
	s3, _ := r.Get(ctx, bob)

	if s1 != s2 {
		t.Error("same user got different stores")
	}
	if s1 == s3 {
		t.Error("different users share a store")
	}
	if opened != 2 {
		t.Errorf("opened = %d, want 2", opened)
	}
}

// blockingKV parks every Get until release is closed.
type blockingKV struct {
	*MemoryKV
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	return b.MemoryKV.Get(ctx, key)
}

func TestRegistry_SlowLoadDoesNotBlockOtherUsers(t *testing.T) {
	slowUser, fastUser := uuid.New(), uuid.New()
	slow := &blockingKV{MemoryKV: NewMemoryKV(), entered: make(chan struct{}), release: make(chan struct{})}

	var mu sync.Mutex
	opened := make(map[uuid.UUID]int)
	r := NewRegistry(func(id uuid.UUID) KV {
		mu.Lock()
		opened[id]++
		mu.Unlock()
		if id == slowUser {
			return slow
		}
		return NewMemoryKV()
	}, zerolog.Nop())

	ctx := context.Background()
	slowDone := make(chan *Store, 2)
	for range 2 {
		go func() {
			s, err := r.Get(ctx, slowUser)
			if err != nil {
				t.Errorf("Get(slow) error = %v", err)
			}
			slowDone <- s
		}()
	}

	select {
	case <-slow.entered:
	case <-time.After(time.Second):
		t.Fatal("slow load never started")
	}

	fastDone := make(chan error, 1)
	go func() {
		_, err := r.Get(ctx, fastUser)
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("Get(fast) error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Get(fast) blocked behind another user's load")
	}

	close(slow.release)
	first, second := <-slowDone, <-slowDone
	if first == nil || first != second {
		t.Error("concurrent loads of one user returned different stores")
	}

	mu.Lock()
	defer mu.Unlock()
	if opened[slowUser] != 1 {
		t.Errorf("slow user opened %d times, want 1", opened[slowUser])
	}
}
