package models

const (
	MoodSurprise     = "surprise"
	DurationAny      = "any"
	LanguageAny      = "any"
	LanguageOriginal = "original"
	LanguageLocal    = "local"
)

// SubMood refines a mood into a narrower genre set
type SubMood struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Genres   []int  `json:"genres"`
	Keywords string `json:"keywords,omitempty"`
}

// Mood is the emotional intent picked in the questionnaire
type Mood struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Genres   []int     `json:"genres"`
	SubMoods []SubMood `json:"subMoods,omitempty"`
}

// SubMood looks up a sub-mood by id
func (m Mood) SubMood(id string) (SubMood, bool) {
	for _, s := range m.SubMoods {
		if s.ID == id {
			return s, true
		}
	}
	return SubMood{}, false
}

// DurationOption bounds a movie's runtime in minutes. Zero means unbounded.
type DurationOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Min   int    `json:"min,omitempty"`
	Max   int    `json:"max,omitempty"`
}

// CommitmentOption is the TV counterpart of DurationOption
type CommitmentOption struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Seasons []int  `json:"seasons"`
}

// Fits reports whether a show with the given season count matches the option
func (c CommitmentOption) Fits(seasons int) bool {
	if len(c.Seasons) == 1 && c.Seasons[0] >= 3 {
		return seasons >= c.Seasons[0]
	}
	for _, s := range c.Seasons {
		if s == seasons {
			return true
		}
	}
	return false
}

// LanguageOption restricts the original language of candidates
type LanguageOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}

var Moods = []Mood{
	{ID: "laugh", Label: "Laugh", Genres: []int{35}, SubMoods: []SubMood{
		{ID: "any", Label: "Any comedy", Genres: []int{35}},
		{ID: "romantic", Label: "Romantic", Genres: []int{35, 10749}},
		{ID: "action", Label: "Action comedy", Genres: []int{35, 28}},
		{ID: "dark", Label: "Dark / Satire", Genres: []int{35}, Keywords: "dark comedy,satire"},
		{ID: "family", Label: "Family friendly", Genres: []int{35, 10751}},
	}},
	{ID: "think", Label: "Think", Genres: []int{18, 9648}, SubMoods: []SubMood{
		{ID: "any", Label: "Any", Genres: []int{18, 9648}},
		{ID: "mystery", Label: "Mystery / Whodunit", Genres: []int{9648}},
		{ID: "psychological", Label: "Psychological", Genres: []int{18, 53}},
		{ID: "documentary", Label: "Documentary", Genres: []int{99}},
		{ID: "historical", Label: "Historical", Genres: []int{18, 36}},
	}},
	{ID: "adrenaline", Label: "Adrenaline", Genres: []int{28, 53}, SubMoods: []SubMood{
		{ID: "any", Label: "Any action", Genres: []int{28, 53}},
		{ID: "pure", Label: "Pure action", Genres: []int{28}},
		{ID: "thriller", Label: "Thriller / Suspense", Genres: []int{53}},
		{ID: "crime", Label: "Crime / Heist", Genres: []int{80, 53}},
		{ID: "war", Label: "War", Genres: []int{10752, 28}},
	}},
	{ID: "cry", Label: "Feel", Genres: []int{18, 10749}, SubMoods: []SubMood{
		{ID: "any", Label: "Any drama", Genres: []int{18}},
		{ID: "romance", Label: "Romance", Genres: []int{10749}},
		{ID: "family", Label: "Family / Heartwarming", Genres: []int{18, 10751}},
		{ID: "tragedy", Label: "Tragedy / Heavy", Genres: []int{18}},
		{ID: "inspiring", Label: "Inspiring / Uplifting", Genres: []int{18}, Keywords: "inspiring,uplifting"},
	}},
	{ID: "escape", Label: "Escape", Genres: []int{878, 14}, SubMoods: []SubMood{
		{ID: "any", Label: "Any", Genres: []int{878, 14, 12}},
		{ID: "scifi", Label: "Sci-Fi", Genres: []int{878}},
		{ID: "fantasy", Label: "Fantasy", Genres: []int{14}},
		{ID: "adventure", Label: "Adventure", Genres: []int{12}},
		{ID: "superhero", Label: "Superhero", Genres: []int{28, 878}, Keywords: "superhero,marvel,dc"},
	}},
	{ID: "chill", Label: "Chill", Genres: []int{35, 10749}, SubMoods: []SubMood{
		{ID: "any", Label: "Easy watch", Genres: []int{35, 10749}},
		{ID: "feelgood", Label: "Feel-good", Genres: []int{35, 10749}},
		{ID: "animated", Label: "Animated", Genres: []int{16}},
		{ID: "music", Label: "Musical", Genres: []int{10402}},
	}},
	{ID: "scare", Label: "Scare", Genres: []int{27}, SubMoods: []SubMood{
		{ID: "any", Label: "Any horror", Genres: []int{27}},
		{ID: "supernatural", Label: "Supernatural", Genres: []int{27}, Keywords: "supernatural,ghost,demon"},
		{ID: "slasher", Label: "Slasher", Genres: []int{27}, Keywords: "slasher"},
		{ID: "psychological", Label: "Psychological", Genres: []int{27, 53}},
		{ID: "thriller", Label: "Creepy thriller", Genres: []int{53, 9648}},
	}},
	{ID: MoodSurprise, Label: "Surprise me"},
}

var DurationOptions = []DurationOption{
	{ID: "short", Label: "< 90 min", Max: 90},
	{ID: "medium", Label: "90-120 min", Min: 90, Max: 120},
	{ID: "long", Label: "2h+", Min: 120},
	{ID: DurationAny, Label: "Any length", Min: 0, Max: 999},
}

var CommitmentOptions = []CommitmentOption{
	{ID: "one", Label: "1 episode", Seasons: []int{1}},
	{ID: "night", Label: "One night", Seasons: []int{1}},
	{ID: "weekend", Label: "Weekend binge", Seasons: []int{1, 2}},
	{ID: "long", Label: "Long journey", Seasons: []int{3}},
}

var LanguageOptions = []LanguageOption{
	{ID: LanguageAny, Label: "Any language"},
	{ID: LanguageOriginal, Label: "English only", Code: "en"},
	{ID: LanguageLocal, Label: "My language"},
}

// FindMood looks up a mood by id
func FindMood(id string) (Mood, bool) {
	for _, m := range Moods {
		if m.ID == id {
			return m, true
		}
	}
	return Mood{}, false
}

// FindDuration looks up a duration option by id
func FindDuration(id string) (DurationOption, bool) {
	for _, d := range DurationOptions {
		if d.ID == id {
			return d, true
		}
	}
	return DurationOption{}, false
}

// FindCommitment looks up a commitment option by id
func FindCommitment(id string) (CommitmentOption, bool) {
	for _, c := range CommitmentOptions {
		if c.ID == id {
			return c, true
		}
	}
	return CommitmentOption{}, false
}

// FindLanguage looks up a language option by id
func FindLanguage(id string) (LanguageOption, bool) {
	for _, l := range LanguageOptions {
		if l.ID == id {
			return l, true
		}
	}
	return LanguageOption{}, false
}

// MoodSelection is the questionnaire answer driving one recommendation
type MoodSelection struct {
	MediaType  MediaType `json:"mediaType" validate:"required,oneof=movie tv"`
	Mood       string    `json:"mood" validate:"required,oneof=laugh think adrenaline cry escape chill scare surprise"`
	SubMood    string    `json:"subMood,omitempty" validate:"omitempty,max=32"`
	Duration   string    `json:"duration,omitempty" validate:"omitempty,oneof=short medium long any"`
	Commitment string    `json:"commitment,omitempty" validate:"omitempty,oneof=one night weekend long"`
	Language   string    `json:"language,omitempty" validate:"omitempty,oneof=any original local"`
}

// IsSurprise reports whether the user asked for a surprise
func (s MoodSelection) IsSurprise() bool {
	return s.Mood == MoodSurprise
}

// Genres returns the sub-mood genres when one is picked, otherwise the mood's
func (s MoodSelection) Genres() []int {
	mood, ok := FindMood(s.Mood)
	if !ok {
		return nil
	}
	if sub, ok := mood.SubMood(s.SubMood); ok {
		return sub.Genres
	}
	return mood.Genres
}

// MoodLabel returns the display label of the selected mood
func (s MoodSelection) MoodLabel() string {
	if mood, ok := FindMood(s.Mood); ok {
		return mood.Label
	}
	return s.Mood
}

// RuntimeBounds returns the runtime filter for movies. ok is false when no
// filter applies.
func (s MoodSelection) RuntimeBounds() (minRuntime, maxRuntime int, ok bool) {
	if s.MediaType != MediaMovie || s.Duration == "" || s.Duration == DurationAny {
		return 0, 0, false
	}
	d, found := FindDuration(s.Duration)
	if !found {
		return 0, 0, false
	}
	return d.Min, d.Max, true
}
