package models

import "testing"

func TestMoodSelection_Genres(t *testing.T) {
	tests := []struct {
		name string
		sel  MoodSelection
		want []int
	}{
		{"sub-mood wins", MoodSelection{Mood: "adrenaline", SubMood: "crime"}, []int{80, 53}},
		{"mood fallback", MoodSelection{Mood: "scare", SubMood: "unknown"}, []int{27}},
		{"surprise has none", MoodSelection{Mood: MoodSurprise}, nil},
		{"unknown mood", MoodSelection{Mood: "bored"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sel.Genres()
			if len(got) != len(tt.want) {
				t.Fatalf("Genres() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Genres() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMoodSelection_Label(t *testing.T) {
	sel := MoodSelection{Mood: "escape", SubMood: "superhero"}
	if got := sel.MoodLabel(); got != "Escape" {
		t.Errorf("MoodLabel() = %q, want Escape", got)
	}
	if got := (MoodSelection{Mood: "cry"}).MoodLabel(); got != "Feel" {
		t.Errorf("MoodLabel() = %q, want Feel", got)
	}
}

func TestMoodSelection_RuntimeBounds(t *testing.T) {
	tests := []struct {
		name             string
		sel              MoodSelection
		wantMin, wantMax int
		wantOK           bool
	}{
		{"short", MoodSelection{MediaType: MediaMovie, Duration: "short"}, 0, 90, true},
		{"medium", MoodSelection{MediaType: MediaMovie, Duration: "medium"}, 90, 120, true},
		{"long", MoodSelection{MediaType: MediaMovie, Duration: "long"}, 120, 0, true},
		{"any", MoodSelection{MediaType: MediaMovie, Duration: DurationAny}, 0, 0, false},
		{"shows ignore duration", MoodSelection{MediaType: MediaTV, Duration: "short"}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := tt.sel.RuntimeBounds()
			if lo != tt.wantMin || hi != tt.wantMax || ok != tt.wantOK {
				t.Errorf("RuntimeBounds() = (%d, %d, %v), want (%d, %d, %v)", lo, hi, ok, tt.wantMin, tt.wantMax, tt.wantOK)
			}
		})
	}
}

func TestCommitmentOption_Fits(t *testing.T) {
	tests := []struct {
		id      string
		seasons int
		want    bool
	}{
		{"night", 1, true},
		{"night", 2, false},
		{"weekend", 2, true},
		{"weekend", 3, false},
		{"long", 3, true},
		{"long", 9, true},
		{"long", 2, false},
	}

	for _, tt := range tests {
		c, ok := FindCommitment(tt.id)
		if !ok {
			t.Fatalf("FindCommitment(%q) not found", tt.id)
		}
		if got := c.Fits(tt.seasons); got != tt.want {
			t.Errorf("%s.Fits(%d) = %v, want %v", tt.id, tt.seasons, got, tt.want)
		}
	}
}

func TestSwipeDirection_Target(t *testing.T) {
	tests := []struct {
		dir     SwipeDirection
		want    ListKind
		wantErr bool
	}{
		{SwipeRight, ListWatchlist, false},
		{SwipeUp, ListLiked, false},
		{SwipeLeft, ListSkipped, false},
		{"down", "", true},
	}

	for _, tt := range tests {
		got, err := tt.dir.Target()
		if (err != nil) != tt.wantErr {
			t.Errorf("Target(%s) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Target(%s) = %s, want %s", tt.dir, got, tt.want)
		}
	}
}

func TestGenreName(t *testing.T) {
	if name, ok := GenreName(878); !ok || name != "Sci-Fi" {
		t.Errorf("GenreName(878) = %q, %v", name, ok)
	}
	if name, ok := GenreName(10759); !ok || name != "Action & Adventure" {
		t.Errorf("GenreName(10759) = %q, %v", name, ok)
	}
	if _, ok := GenreName(1); ok {
		t.Error("GenreName(1) found, want unknown")
	}
}

func TestMediaType(t *testing.T) {
	if !MediaMovie.IsValid() || !MediaTV.IsValid() || MediaType("book").IsValid() {
		t.Error("IsValid() mismatch")
	}
	if MediaTV.Noun() != "show" || MediaMovie.Noun() != "movie" {
		t.Error("Noun() mismatch")
	}
}
