package models

// MovieGenres maps TMDB movie genre ids to display names
var MovieGenres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Sci-Fi",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// TVGenres maps TMDB TV genre ids to display names
var TVGenres = map[int]string{
	10759: "Action & Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	10762: "Kids",
	9648:  "Mystery",
	10765: "Sci-Fi & Fantasy",
	10768: "War & Politics",
	37:    "Western",
}

// GenreName resolves a genre id, movie names first.
// Returns false when the id is in neither table.
func GenreName(id int) (string, bool) {
	if name, ok := MovieGenres[id]; ok {
		return name, true
	}
	name, ok := TVGenres[id]
	return name, ok
}
