package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/webtor-io/movie-catalog/models"
)

var ErrUnparsableRow = errors.New("unparsable row")

// Dataset column names.
const (
	ColumnID                  = "id"
	ColumnTitle               = "title"
	ColumnReleaseYear         = "release_year"
	ColumnReleaseDate         = "release_date"
	ColumnGenres              = "genres"
	ColumnVoteAverage         = "vote_average"
	ColumnSpokenLanguages     = "spoken_languages"
	ColumnProductionCountries = "production_countries"
	ColumnOverview            = "overview"
	ColumnPopularity          = "popularity"
)

// Row is a raw dataset row keyed by column name. Every column is optional.
type Row map[string]string

func (r Row) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

func (r Row) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Normalize converts a raw row into a complete Movie. Only rows without any
// data are rejected; everything else falls back to placeholder values.
func Normalize(row Row) (*models.Movie, error) {
	if row.blank() {
		return nil, ErrUnparsableRow
	}
	title := row.get(ColumnTitle)
	if title == "" {
		title = models.UnknownTitle
	}
	year := row.get(ColumnReleaseYear, ColumnReleaseDate)
	if year == "" {
		year = models.UnknownReleaseDate
	}
	return &models.Movie{
		ID:          row.get(ColumnID),
		Title:       title,
		Genres:      ParseList(row[ColumnGenres]),
		Language:    ParseList(row[ColumnSpokenLanguages]),
		Country:     ParseList(row[ColumnProductionCountries]),
		Rating:      parseFloat(row[ColumnVoteAverage]),
		ReleaseYear: year,
		Overview:    row.get(ColumnOverview),
		Popularity:  math.Round(parseFloat(row[ColumnPopularity])*100) / 100,
	}, nil
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseList parses list-encoded text such as "['Action', 'Drama']".
//
// Accepted forms: optional surrounding brackets, items quoted with ' or ",
// or bare comma separated items. A quoted item may contain commas. An
// unterminated quote consumes the rest of the input. Blank items are
// dropped and repeated items are kept once. The parser never fails.
func ParseList(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	res := []string{}
	seen := map[string]struct{}{}
	add := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		res = append(res, tok)
	}

	i := 0
	for i < len(s) {
		if s[i] == ',' || s[i] == ' ' || s[i] == '\t' {
			i++
			continue
		}
		var tok string
		if q := s[i]; q == '\'' || q == '"' {
			end := strings.IndexByte(s[i+1:], q)
			if end < 0 {
				tok = s[i+1:]
				i = len(s)
			} else {
				tok = s[i+1 : i+1+end]
				i += end + 2
			}
		} else {
			end := strings.IndexByte(s[i:], ',')
			if end < 0 {
				tok = s[i:]
				i = len(s)
			} else {
				tok = s[i : i+end]
				i += end + 1
			}
		}
		add(tok)
	}
	return res
}
