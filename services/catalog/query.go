package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/webtor-io/movie-catalog/models"
)

const PageSize = 20

// CombineMode controls how the search passes are merged.
type CombineMode string

const (
	// CombineIntersect keeps movies satisfying every requested filter.
	CombineIntersect CombineMode = "intersect"
	// CombineUnion keeps movies satisfying any requested filter.
	CombineUnion CombineMode = "union"
)

func ParseCombineMode(s string) (CombineMode, error) {
	switch m := CombineMode(strings.ToLower(strings.TrimSpace(s))); m {
	case CombineIntersect, CombineUnion:
		return m, nil
	case "":
		return CombineIntersect, nil
	default:
		return "", errors.Errorf("unknown combine mode %q", s)
	}
}

type Query struct {
	Text     string
	Genres   []string
	Language string
	Country  string
	Page     int
}

type Result struct {
	Movies []*models.Movie `json:"results"`
	Total  int             `json:"total"`
}

func (s *Query) normalize() *Query {
	q := &Query{
		Text:     strings.TrimSpace(s.Text),
		Language: strings.TrimSpace(s.Language),
		Country:  strings.TrimSpace(s.Country),
		Page:     s.Page,
	}
	for _, g := range s.Genres {
		if g = strings.TrimSpace(g); g != "" {
			q.Genres = append(q.Genres, g)
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Key identifies the result set of a query: queries with equal keys get
// equal results from Search.
func (s *Query) Key() string {
	q := s.normalize()
	return fmt.Sprintf("%q|%q|%q|%q|%d",
		fold(q.Text),
		strings.Join(q.Genres, ","),
		q.Language,
		q.Country,
		q.Page,
	)
}

// Search filters, ranks and paginates the catalog. Total is the size of the
// filtered set before pagination. Search never fails: filters matching
// nothing and pages out of range give an empty page.
func (s *Catalog) Search(query *Query) *Result {
	q := query.normalize()
	var matched []*models.Movie
	if s.combine == CombineUnion {
		matched = s.unionPasses(q)
	} else {
		matched = s.intersectPasses(q)
	}
	ranked := SortByRating(DedupByTitle(matched), true)
	return &Result{
		Movies: Paginate(ranked, q.Page),
		Total:  len(ranked),
	}
}

func (s *Catalog) intersectPasses(q *Query) []*models.Movie {
	res := s.ByTitle(q.Text)
	if len(q.Genres) > 0 {
		res = intersect(res, s.ByGenres(q.Genres...))
	}
	if q.Language != "" {
		res = intersect(res, s.ByLanguage(q.Language))
	}
	if q.Country != "" {
		res = intersect(res, s.ByCountry(q.Country))
	}
	return res
}

func (s *Catalog) unionPasses(q *Query) []*models.Movie {
	var res []*models.Movie
	passes := 0
	if q.Text != "" {
		res = append(res, s.ByTitle(q.Text)...)
		passes++
	}
	if len(q.Genres) > 0 {
		res = append(res, s.ByGenres(q.Genres...)...)
		passes++
	}
	if q.Language != "" {
		res = append(res, s.ByLanguage(q.Language)...)
		passes++
	}
	if q.Country != "" {
		res = append(res, s.ByCountry(q.Country)...)
		passes++
	}
	if passes == 0 {
		return s.All()
	}
	return res
}

// TopRated returns the whole catalog ranked by rating.
func (s *Catalog) TopRated() []*models.Movie {
	return SortByRating(s.movies, true)
}

func (s *Catalog) RankedByGenre(genre string) []*models.Movie {
	return SortByRating(s.ByGenres(genre), true)
}

func (s *Catalog) RankedByLanguage(lang string) []*models.Movie {
	return SortByRating(s.ByLanguage(lang), true)
}

func (s *Catalog) RankedByCountry(country string) []*models.Movie {
	return SortByRating(s.ByCountry(country), true)
}

func (s *Catalog) RankedByYear(year string) []*models.Movie {
	return SortByRating(s.ByYear(year), true)
}

// Recommend returns movies rated at least min, best first.
func (s *Catalog) Recommend(min float64) []*models.Movie {
	return SortByRating(s.ByMinRating(min), true)
}

// intersect keeps the records of a that are also in b. Records are compared
// by identity, so a title shared by several records does not leak one that
// fails a filter.
func intersect(a, b []*models.Movie) []*models.Movie {
	keep := make(map[*models.Movie]struct{}, len(b))
	for _, m := range b {
		keep[m] = struct{}{}
	}
	var res []*models.Movie
	for _, m := range a {
		if _, ok := keep[m]; ok {
			res = append(res, m)
		}
	}
	return res
}

// DedupByTitle drops every movie whose title was already seen.
func DedupByTitle(movies []*models.Movie) []*models.Movie {
	seen := make(map[string]struct{}, len(movies))
	res := make([]*models.Movie, 0, len(movies))
	for _, m := range movies {
		if _, ok := seen[m.Title]; ok {
			continue
		}
		seen[m.Title] = struct{}{}
		res = append(res, m)
	}
	return res
}

// Paginate returns the 1-indexed page of PageSize items.
func Paginate(movies []*models.Movie, page int) []*models.Movie {
	if page < 1 {
		page = 1
	}
	if page-1 >= (len(movies)+PageSize-1)/PageSize {
		return []*models.Movie{}
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(movies) {
		end = len(movies)
	}
	return movies[start:end]
}
