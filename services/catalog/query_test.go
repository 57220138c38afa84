package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webtor-io/movie-catalog/models"
)

func generateMovies(n int) []*models.Movie {
	res := make([]*models.Movie, n)
	for i := range res {
		res[i] = &models.Movie{
			Title:  fmt.Sprintf("Movie %03d", i),
			Genres: []string{"Drama"},
			Rating: float64(i % 10),
		}
	}
	return res
}

func TestCatalog_Search_NoFilters(t *testing.T) {
	c := New([]*models.Movie{
		{Title: "A", Rating: 4.9},
		{Title: "B", Rating: 4.2},
		{Title: "C", Rating: 4.9},
	})

	res := c.Search(&Query{})

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"A", "C", "B"}, titles(res.Movies))
}

func TestCatalog_Search_TotalMatchesCatalog(t *testing.T) {
	c := New(generateMovies(57))

	res := c.Search(&Query{Page: 1})

	assert.Equal(t, 57, res.Total)
	assert.Len(t, res.Movies, PageSize)
}

func TestCatalog_Search_Pagination(t *testing.T) {
	for _, n := range []int{0, 1, 19, 20, 21, 40, 57} {
		t.Run(fmt.Sprintf("%v movies", n), func(t *testing.T) {
			c := New(generateMovies(n))
			pages := (n + PageSize - 1) / PageSize
			seen := map[string]bool{}
			sum := 0
			for p := 1; p <= pages; p++ {
				res := c.Search(&Query{Page: p})
				assert.Equal(t, n, res.Total)
				for _, m := range res.Movies {
					assert.False(t, seen[m.Title], "page %v repeats %v", p, m.Title)
					seen[m.Title] = true
				}
				sum += len(res.Movies)
			}
			assert.Equal(t, n, sum)

			beyond := c.Search(&Query{Page: pages + 1})
			assert.Empty(t, beyond.Movies)
			assert.NotNil(t, beyond.Movies)
			assert.Equal(t, n, beyond.Total)
		})
	}
}

func TestCatalog_Search_PageBelowOneIsFirstPage(t *testing.T) {
	c := New(generateMovies(30))

	first := c.Search(&Query{Page: 1})
	for _, p := range []int{0, -3} {
		res := c.Search(&Query{Page: p})
		assert.Equal(t, titles(first.Movies), titles(res.Movies))
	}
}

func TestCatalog_Search_HugePage(t *testing.T) {
	c := New(generateMovies(30))

	res := c.Search(&Query{Page: int(^uint(0) >> 1)})

	assert.Empty(t, res.Movies)
	assert.Equal(t, 30, res.Total)
}

func TestCatalog_Search_Filters(t *testing.T) {
	c := New(testMovies())

	t.Run("text", func(t *testing.T) {
		res := c.Search(&Query{Text: "the"})
		assert.Equal(t, []string{"The Shining", "The Thing", "Shaun of the Dead"}, titles(res.Movies))
		assert.Equal(t, 3, res.Total)
	})

	t.Run("text and genre", func(t *testing.T) {
		res := c.Search(&Query{Text: "the", Genres: []string{"Comedy"}})
		assert.Equal(t, []string{"Shaun of the Dead"}, titles(res.Movies))
	})

	t.Run("genre language country", func(t *testing.T) {
		res := c.Search(&Query{Genres: []string{"Horror"}, Language: "English", Country: "United Kingdom"})
		assert.Equal(t, []string{"The Shining", "Shaun of the Dead"}, titles(res.Movies))
		assert.Equal(t, 2, res.Total)
	})

	t.Run("no movie has both genres", func(t *testing.T) {
		res := c.Search(&Query{Genres: []string{"Horror", "Romance"}})
		assert.Empty(t, res.Movies)
		assert.NotNil(t, res.Movies)
		assert.Equal(t, 0, res.Total)
	})

	t.Run("unknown language", func(t *testing.T) {
		res := c.Search(&Query{Language: "Klingon"})
		assert.Empty(t, res.Movies)
		assert.Equal(t, 0, res.Total)
	})

	t.Run("blank filters are ignored", func(t *testing.T) {
		res := c.Search(&Query{Text: "  ", Genres: []string{"", " "}, Language: " ", Country: ""})
		assert.Equal(t, 5, res.Total)
	})
}

func TestCatalog_Search_HorrorComedy(t *testing.T) {
	c := New([]*models.Movie{
		{Title: "Scream", Genres: []string{"Horror"}, Rating: 7},
		{Title: "Airplane!", Genres: []string{"Comedy"}, Rating: 7.7},
	})

	res := c.Search(&Query{Genres: []string{"Horror", "Comedy"}})

	assert.Equal(t, &Result{Movies: []*models.Movie{}, Total: 0}, res)
}

func TestCatalog_Search_DedupByTitle(t *testing.T) {
	c := New([]*models.Movie{
		{ID: "1", Title: "Dune", Rating: 6.2, ReleaseYear: "1984"},
		{ID: "2", Title: "Dune", Rating: 7.8, ReleaseYear: "2021"},
		{ID: "3", Title: "Arrival", Rating: 7.6},
	})

	res := c.Search(&Query{})

	require.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"Arrival", "Dune"}, titles(res.Movies))
	assert.Equal(t, "1", res.Movies[1].ID, "first occurrence wins")
}

func TestCatalog_Search_SharedTitleKeepsMatchingRecord(t *testing.T) {
	c := New([]*models.Movie{
		{ID: "1", Title: "Dune", Genres: []string{"Sci-Fi"}, Language: []string{"English"}, Country: []string{"US"}, Rating: 6.2},
		{ID: "2", Title: "Dune", Genres: []string{"Sci-Fi", "Adventure"}, Language: []string{"French"}, Country: []string{"CA"}, Rating: 7.8},
	})
	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{"genre only on later record", &Query{Genres: []string{"Adventure"}}, "2"},
		{"language only on later record", &Query{Language: "French"}, "2"},
		{"country only on later record", &Query{Country: "CA"}, "2"},
		{"filters matching earlier record", &Query{Text: "dune", Language: "English", Country: "US"}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Search(tt.query)
			require.Equal(t, 1, res.Total)
			assert.Equal(t, tt.want, res.Movies[0].ID)
		})
	}

	res := c.Search(&Query{Genres: []string{"Adventure"}, Language: "English"})
	assert.Equal(t, 0, res.Total, "no single record passes both filters")
}

func TestCatalog_Search_UnionMode(t *testing.T) {
	c := New(testMovies(), WithCombineMode(CombineUnion))

	t.Run("any filter matches", func(t *testing.T) {
		res := c.Search(&Query{Text: "Amélie", Genres: []string{"Horror"}})
		assert.Equal(t, []string{"The Shining", "The Thing", "Amélie", "Shaun of the Dead"}, titles(res.Movies))
		assert.Equal(t, 4, res.Total)
	})

	t.Run("overlapping passes are deduplicated", func(t *testing.T) {
		res := c.Search(&Query{Genres: []string{"Horror"}, Language: "English"})
		assert.Equal(t, 3, res.Total)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		res := c.Search(&Query{})
		assert.Equal(t, 5, res.Total)
	})
}

func TestCatalog_Ranked(t *testing.T) {
	c := New(testMovies())

	assert.Equal(t, []string{"Spirited Away", "The Shining", "The Thing", "Amélie", "Shaun of the Dead"}, titles(c.TopRated()))
	assert.Equal(t, []string{"The Shining", "The Thing", "Shaun of the Dead"}, titles(c.RankedByGenre("Horror")))
	assert.Equal(t, []string{"The Shining", "The Thing", "Shaun of the Dead"}, titles(c.RankedByLanguage("English")))
	assert.Equal(t, []string{"Spirited Away"}, titles(c.RankedByCountry("Japan")))
	assert.Equal(t, []string{"Spirited Away", "Amélie"}, titles(c.RankedByYear("2001")))
	assert.Equal(t, []string{"Spirited Away", "The Shining", "The Thing"}, titles(c.Recommend(8)))
}

func TestParseCombineMode(t *testing.T) {
	m, err := ParseCombineMode("UNION")
	require.NoError(t, err)
	assert.Equal(t, CombineUnion, m)

	m, err = ParseCombineMode("")
	require.NoError(t, err)
	assert.Equal(t, CombineIntersect, m)

	_, err = ParseCombineMode("xor")
	assert.Error(t, err)
}

func TestQuery_Key(t *testing.T) {
	assert.Equal(t, (&Query{Text: "Straße"}).Key(), (&Query{Text: " STRASSE "}).Key())
	assert.Equal(t, (&Query{Page: 0}).Key(), (&Query{Page: 1}).Key())
	assert.Equal(t, (&Query{Genres: []string{" Drama", ""}}).Key(), (&Query{Genres: []string{"Drama"}}).Key())
	assert.NotEqual(t, (&Query{Genres: []string{"drama"}}).Key(), (&Query{Genres: []string{"Drama"}}).Key())
	assert.NotEqual(t, (&Query{Language: "English"}).Key(), (&Query{Country: "English"}).Key())

	c := New([]*models.Movie{{Title: "Die Straße", Rating: 7}})
	assert.Equal(t, c.Search(&Query{Text: "Straße"}), c.Search(&Query{Text: "STRASSE"}))
}
