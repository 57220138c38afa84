package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webtor-io/movie-catalog/models"
)

func testMovies() []*models.Movie {
	return []*models.Movie{
		{ID: "1", Title: "The Shining", Genres: []string{"Horror", "Thriller"}, Language: []string{"English"}, Country: []string{"United Kingdom", "United States of America"}, Rating: 8.2, ReleaseYear: "1980"},
		{ID: "2", Title: "Amélie", Genres: []string{"Comedy", "Romance"}, Language: []string{"French"}, Country: []string{"France", "Germany"}, Rating: 7.9, ReleaseYear: "2001"},
		{ID: "3", Title: "Shaun of the Dead", Genres: []string{"Comedy", "Horror"}, Language: []string{"English"}, Country: []string{"United Kingdom", "France"}, Rating: 7.5, ReleaseYear: "2004"},
		{ID: "4", Title: "Spirited Away", Genres: []string{"Animation", "Family", "Fantasy"}, Language: []string{"Japanese"}, Country: []string{"Japan"}, Rating: 8.5, ReleaseYear: "2001"},
		{ID: "5", Title: "The Thing", Genres: []string{"Horror", "Science Fiction"}, Language: []string{"English", "Norwegian"}, Country: []string{"United States of America"}, Rating: 8.1, ReleaseYear: "1982"},
	}
}

func titles(movies []*models.Movie) []string {
	res := make([]string, 0, len(movies))
	for _, m := range movies {
		res = append(res, m.Title)
	}
	return res
}

func TestCatalog_All(t *testing.T) {
	movies := testMovies()
	c := New(movies)

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, titles(movies), titles(c.All()))

	all := c.All()
	all[0] = nil
	assert.NotNil(t, c.All()[0], "All must not expose internal storage")
}

func TestCatalog_ByTitle(t *testing.T) {
	c := New(testMovies())

	assert.Equal(t, []string{"The Shining", "Shaun of the Dead"}, titles(c.ByTitle("Sh")), "matches keep source order")
	assert.Equal(t, []string{"The Shining"}, titles(c.ByTitle("SHINING")))
	assert.Equal(t, []string{"Amélie"}, titles(c.ByTitle("amélie")))
	assert.Len(t, c.ByTitle(""), 5)
	assert.Len(t, c.ByTitle("   "), 5)
	assert.Empty(t, c.ByTitle("Matrix"))
}

func TestCatalog_ByTitle_Fuzzy(t *testing.T) {
	c := New(testMovies(), WithTitleMatcher(FuzzyMatcher{Threshold: 90}))

	assert.Equal(t, []string{"Spirited Away"}, titles(c.ByTitle("spirted away")))
	assert.Equal(t, []string{"The Thing"}, titles(c.ByTitle("the thing")))
	assert.Empty(t, c.ByTitle("zzzzzzzz"))
}

func TestCatalog_ByGenres(t *testing.T) {
	c := New(testMovies())

	t.Run("superset semantics", func(t *testing.T) {
		res := c.ByGenres("Horror", "Comedy")
		assert.Equal(t, []string{"Shaun of the Dead"}, titles(res))
	})

	t.Run("every result carries every genre and the rest miss one", func(t *testing.T) {
		req := []string{"Horror"}
		res := c.ByGenres(req...)
		in := map[string]bool{}
		for _, m := range res {
			in[m.Title] = true
			assert.True(t, m.HasGenres(req...))
		}
		for _, m := range c.All() {
			if !in[m.Title] {
				assert.False(t, m.HasGenres(req...))
			}
		}
		assert.Len(t, res, 3)
	})

	t.Run("unknown genre", func(t *testing.T) {
		assert.Empty(t, c.ByGenres("Western"))
	})
}

func TestCatalog_ByLanguageAndCountry(t *testing.T) {
	c := New(testMovies())

	assert.Equal(t, []string{"The Shining", "Shaun of the Dead", "The Thing"}, titles(c.ByLanguage("English")))
	assert.Equal(t, []string{"Amélie", "Shaun of the Dead"}, titles(c.ByCountry("France")))
	assert.Empty(t, c.ByLanguage("Klingon"))
	assert.Empty(t, c.ByCountry(""))
}

func TestCatalog_ByYearAndMinRating(t *testing.T) {
	c := New(testMovies())

	assert.Equal(t, []string{"Amélie", "Spirited Away"}, titles(c.ByYear("2001")))
	assert.Equal(t, []string{"The Shining", "Spirited Away", "The Thing"}, titles(c.ByMinRating(8)))
}

func TestCatalog_Facets(t *testing.T) {
	c := New(testMovies())

	assert.ElementsMatch(t, []string{"Horror", "Thriller", "Comedy", "Romance", "Animation", "Family", "Fantasy", "Science Fiction"}, c.Genres())
	assert.ElementsMatch(t, []string{"English", "French", "Japanese", "Norwegian"}, c.Languages())
	assert.ElementsMatch(t, []string{"United Kingdom", "United States of America", "France", "Germany", "Japan"}, c.Countries())
	assert.ElementsMatch(t, []string{"1980", "2001", "2004", "1982"}, c.Years())
	assert.Equal(t, []string{}, New(nil).Genres())
}

func TestSortByRating(t *testing.T) {
	t.Run("stable on ties", func(t *testing.T) {
		movies := []*models.Movie{
			{Title: "A", Rating: 4.9},
			{Title: "B", Rating: 4.2},
			{Title: "C", Rating: 4.9},
			{Title: "D", Rating: 4.2},
		}
		assert.Equal(t, []string{"A", "C", "B", "D"}, titles(SortByRating(movies, true)))
		assert.Equal(t, []string{"B", "D", "A", "C"}, titles(SortByRating(movies, false)))
		assert.Equal(t, []string{"A", "B", "C", "D"}, titles(movies), "input is untouched")
	})

	t.Run("invalid ratings are excluded", func(t *testing.T) {
		movies := []*models.Movie{
			{Title: "A", Rating: 1},
			{Title: "B", Rating: math.NaN()},
			{Title: "C", Rating: math.Inf(1)},
			{Title: "D", Rating: 0},
		}
		res := SortByRating(movies, true)
		require.Len(t, res, 2)
		assert.Equal(t, []string{"A", "D"}, titles(res))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SortByRating(nil, true))
	})
}
