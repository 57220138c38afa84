package poster

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/webtor-io/movie-catalog/services/poster"
)

type Handler struct {
	r *poster.Resolver
}

func RegisterHandler(r *gin.Engine, pr *poster.Resolver) {
	h := &Handler{
		r: pr,
	}
	// Titles may contain slashes, so the whole tail is taken.
	r.GET("/api/poster/*title", h.get)
}

func (s *Handler) get(c *gin.Context) {
	title := strings.TrimPrefix(c.Param("title"), "/")
	p, err := s.r.Resolve(c.Request.Context(), title)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "public, max-age=604800")
	c.File(p)
}
