package onboarding

import "github.com/R-Vicente/watchnext/internal/models"

// CuratedTitle is a well-known, polarizing title used to learn taste quickly.
type CuratedTitle struct {
	ID    int
	Title string
	Genre string
}

// Curated lists the onboarding pool per media type.
var Curated = map[models.MediaType][]CuratedTitle{
	models.MediaMovie: {
		{ID: 299536, Title: "Avengers: Infinity War", Genre: "Action/Superhero"},
		{ID: 27205, Title: "Inception", Genre: "Sci-Fi/Thriller"},
		{ID: 278, Title: "The Shawshank Redemption", Genre: "Drama"},
		{ID: 120, Title: "The Lord of the Rings: Fellowship", Genre: "Fantasy"},
		{ID: 807, Title: "Se7en", Genre: "Thriller/Dark"},
		{ID: 438631, Title: "Dune", Genre: "Sci-Fi/Epic"},
		{ID: 550, Title: "Fight Club", Genre: "Drama/Psychological"},
		{ID: 238, Title: "The Godfather", Genre: "Crime/Drama"},
		{ID: 19404, Title: "Dilwale Dulhania Le Jayenge", Genre: "Romance"},
		{ID: 862, Title: "Toy Story", Genre: "Animation/Family"},
		{ID: 680, Title: "Pulp Fiction", Genre: "Crime/Dark Comedy"},
		{ID: 155, Title: "The Dark Knight", Genre: "Action/Superhero"},
		{ID: 13, Title: "Forrest Gump", Genre: "Drama/Feel-good"},
		{ID: 603, Title: "The Matrix", Genre: "Sci-Fi/Action"},
	},
	models.MediaTV: {
		{ID: 1399, Title: "Game of Thrones", Genre: "Fantasy/Drama"},
		{ID: 1396, Title: "Breaking Bad", Genre: "Crime/Drama"},
		{ID: 66732, Title: "Stranger Things", Genre: "Sci-Fi/Horror"},
		{ID: 1418, Title: "The Big Bang Theory", Genre: "Comedy"},
		{ID: 456, Title: "The Simpsons", Genre: "Animation/Comedy"},
		{ID: 71446, Title: "Money Heist", Genre: "Crime/Thriller"},
		{ID: 94605, Title: "Arcane", Genre: "Animation/Action"},
		{ID: 60735, Title: "The Flash", Genre: "Superhero/Action"},
		{ID: 2734, Title: "Law & Order: SVU", Genre: "Crime/Procedural"},
		{ID: 4614, Title: "Grey's Anatomy", Genre: "Medical/Drama"},
		{ID: 63174, Title: "Lucifer", Genre: "Fantasy/Crime"},
		{ID: 1402, Title: "The Walking Dead", Genre: "Horror/Drama"},
		{ID: 69050, Title: "Riverdale", Genre: "Teen/Mystery"},
		{ID: 76479, Title: "The Boys", Genre: "Superhero/Dark"},
	},
}
