package catalog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webtor-io/lazymap"
	"github.com/webtor-io/movie-catalog/models"
	"github.com/webtor-io/movie-catalog/services/catalog"
	"github.com/webtor-io/movie-catalog/services/metrics"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Handler struct {
	cat       *catalog.Catalog
	results   lazymap.LazyMap[*catalog.Result]
	genres    []string
	languages []string
	countries []string
	years     []string
}

func RegisterHandler(r *gin.Engine, cat *catalog.Catalog) {
	h := &Handler{
		cat: cat,
		results: lazymap.New[*catalog.Result](&lazymap.Config{
			Expire:      10 * time.Minute,
			ErrorExpire: 10 * time.Second,
		}),
		genres:    sortFacet(cat.Genres()),
		languages: sortFacet(cat.Languages()),
		countries: sortFacet(cat.Countries()),
		years:     sortFacet(cat.Years()),
	}
	gr := r.Group("/api")
	gr.GET("/search", h.search)
	gr.GET("/genres", h.facet("genres", h.genres))
	gr.GET("/languages", h.facet("languages", h.languages))
	gr.GET("/countries", h.facet("countries", h.countries))
	gr.GET("/years", h.facet("years", h.years))
	gr.GET("/movies/top-rated", h.topRated)
	gr.GET("/movies/by-genre/:genre", h.byGenre)
	gr.GET("/movies/recommended", h.recommended)
	gr.GET("/health", h.health)
}

func sortFacet(values []string) []string {
	res := make([]string, len(values))
	copy(res, values)
	collate.New(language.Und, collate.IgnoreCase).SortStrings(res)
	return res
}

// bindQuery never rejects a request: absent or malformed parameters fall
// back to an unfiltered first page.
func bindQuery(c *gin.Context) *catalog.Query {
	q := &catalog.Query{
		Text:     c.Query("query"),
		Language: c.Query("language"),
		Country:  c.Query("country"),
		Page:     1,
	}
	for _, g := range c.QueryArray("genres") {
		q.Genres = append(q.Genres, strings.Split(g, ",")...)
	}
	if g := c.Query("genre"); g != "" {
		q.Genres = append(q.Genres, g)
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

func (s *Handler) search(c *gin.Context) {
	q := bindQuery(c)
	res, _ := s.results.Get(q.Key(), func() (*catalog.Result, error) {
		r := s.cat.Search(q)
		metrics.SearchResultsTotal.Observe(float64(r.Total))
		return r, nil
	})
	c.JSON(http.StatusOK, res)
}

func (s *Handler) facet(name string, values []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{name: values})
	}
}

func moviesResponse(movies []*models.Movie) gin.H {
	if movies == nil {
		movies = []*models.Movie{}
	}
	return gin.H{"movies": movies}
}

func (s *Handler) topRated(c *gin.Context) {
	c.JSON(http.StatusOK, moviesResponse(s.cat.TopRated()))
}

func (s *Handler) byGenre(c *gin.Context) {
	c.JSON(http.StatusOK, moviesResponse(s.cat.RankedByGenre(c.Param("genre"))))
}

func (s *Handler) recommended(c *gin.Context) {
	min, err := strconv.ParseFloat(c.Query("min_rating"), 64)
	if err != nil {
		min = 0
	}
	c.JSON(http.StatusOK, moviesResponse(s.cat.Recommend(min)))
}

func (s *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"database_loaded": s.cat.Len() > 0,
		"genres_loaded":   len(s.genres) > 0,
		"movies_count":    s.cat.Len(),
	})
}
