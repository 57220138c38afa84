package models

import (
	"encoding/json"
	"math"
)

const (
	UnknownTitle       = "Unknown Title"
	UnknownReleaseDate = "Unknown Release Date"
	PosterURLPrefix    = "/api/poster/"
)

// Movie is a normalized catalog record. Title is the authoritative key:
// search dedup and poster caching are keyed by it, ID is passed through.
type Movie struct {
	ID          string
	Title       string
	Genres      []string
	Language    []string
	Country     []string
	Rating      float64
	ReleaseYear string
	Overview    string
	Popularity  float64
}

type movieJSON struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	ImageURL    string   `json:"imageUrl"`
	ReleaseYear string   `json:"release_year"`
	Genres      []string `json:"genres"`
	Rating      float64  `json:"rating"`
	Language    []string `json:"language"`
	Country     []string `json:"country"`
	Overview    string   `json:"overview,omitempty"`
	Popularity  float64  `json:"popularity,omitempty"`
}

func (s *Movie) ImageURL() string {
	return PosterURLPrefix + s.Title
}

func (s *Movie) MarshalJSON() ([]byte, error) {
	rating := s.Rating
	if !s.HasValidRating() {
		rating = 0
	}
	return json.Marshal(&movieJSON{
		ID:          s.ID,
		Title:       s.Title,
		ImageURL:    s.ImageURL(),
		ReleaseYear: s.ReleaseYear,
		Genres:      nonNil(s.Genres),
		Rating:      rating,
		Language:    nonNil(s.Language),
		Country:     nonNil(s.Country),
		Overview:    s.Overview,
		Popularity:  s.Popularity,
	})
}

// HasGenres reports whether the movie carries every one of the given genres.
func (s *Movie) HasGenres(genres ...string) bool {
	for _, g := range genres {
		if !contains(s.Genres, g) {
			return false
		}
	}
	return true
}

func (s *Movie) HasLanguage(lang string) bool {
	return contains(s.Language, lang)
}

func (s *Movie) HasCountry(country string) bool {
	return contains(s.Country, country)
}

// HasValidRating is false for NaN and infinite ratings, which are kept out
// of ranked listings.
func (s *Movie) HasValidRating() bool {
	return !math.IsNaN(s.Rating) && !math.IsInf(s.Rating, 0)
}

func contains(list []string, v string) bool {
	for _, l := range list {
		if l == v {
			return true
		}
	}
	return false
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
