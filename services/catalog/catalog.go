package catalog

import (
	"sort"
	"strings"

	"github.com/webtor-io/movie-catalog/models"
)

// Catalog is the immutable in-memory movie collection. It is built once at
// startup and lives for the whole process; every method is a read and is
// safe for concurrent use.
type Catalog struct {
	movies  []*models.Movie
	folded  []string
	matcher TitleMatcher
	combine CombineMode
}

type Option func(*Catalog)

func WithTitleMatcher(m TitleMatcher) Option {
	return func(c *Catalog) {
		c.matcher = m
	}
}

func WithCombineMode(m CombineMode) Option {
	return func(c *Catalog) {
		c.combine = m
	}
}

func New(movies []*models.Movie, opts ...Option) *Catalog {
	c := &Catalog{
		movies:  make([]*models.Movie, len(movies)),
		folded:  make([]string, len(movies)),
		matcher: SubstringMatcher{},
		combine: CombineIntersect,
	}
	copy(c.movies, movies)
	for i, m := range c.movies {
		c.folded[i] = fold(m.Title)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (s *Catalog) Len() int {
	return len(s.movies)
}

// All returns every movie in source order.
func (s *Catalog) All() []*models.Movie {
	res := make([]*models.Movie, len(s.movies))
	copy(res, s.movies)
	return res
}

// ByTitle returns movies whose title matches query. An empty query matches
// everything.
func (s *Catalog) ByTitle(query string) []*models.Movie {
	q := fold(query)
	if q == "" {
		return s.All()
	}
	var res []*models.Movie
	for i, m := range s.movies {
		if s.matcher.Match(s.folded[i], q) {
			res = append(res, m)
		}
	}
	return res
}

// ByGenres returns movies carrying all of the given genres.
func (s *Catalog) ByGenres(genres ...string) []*models.Movie {
	return s.filter(func(m *models.Movie) bool {
		return m.HasGenres(genres...)
	})
}

func (s *Catalog) ByLanguage(lang string) []*models.Movie {
	return s.filter(func(m *models.Movie) bool {
		return m.HasLanguage(lang)
	})
}

func (s *Catalog) ByCountry(country string) []*models.Movie {
	return s.filter(func(m *models.Movie) bool {
		return m.HasCountry(country)
	})
}

func (s *Catalog) ByYear(year string) []*models.Movie {
	year = strings.TrimSpace(year)
	return s.filter(func(m *models.Movie) bool {
		return m.ReleaseYear == year
	})
}

func (s *Catalog) ByMinRating(min float64) []*models.Movie {
	return s.filter(func(m *models.Movie) bool {
		return m.HasValidRating() && m.Rating >= min
	})
}

func (s *Catalog) filter(pred func(m *models.Movie) bool) []*models.Movie {
	var res []*models.Movie
	for _, m := range s.movies {
		if pred(m) {
			res = append(res, m)
		}
	}
	return res
}

func (s *Catalog) Genres() []string {
	return s.union(func(m *models.Movie) []string { return m.Genres })
}

func (s *Catalog) Languages() []string {
	return s.union(func(m *models.Movie) []string { return m.Language })
}

func (s *Catalog) Countries() []string {
	return s.union(func(m *models.Movie) []string { return m.Country })
}

func (s *Catalog) Years() []string {
	return s.union(func(m *models.Movie) []string { return []string{m.ReleaseYear} })
}

func (s *Catalog) union(attr func(m *models.Movie) []string) []string {
	res := []string{}
	seen := map[string]struct{}{}
	for _, m := range s.movies {
		for _, v := range attr(m) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			res = append(res, v)
		}
	}
	return res
}

// SortByRating returns a new slice ordered by rating. Ties keep their input
// order. Movies without a valid numeric rating are left out.
func SortByRating(movies []*models.Movie, descending bool) []*models.Movie {
	res := make([]*models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.HasValidRating() {
			res = append(res, m)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if descending {
			return res[i].Rating > res[j].Rating
		}
		return res[i].Rating < res[j].Rating
	})
	return res
}
