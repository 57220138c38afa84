package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/movie-catalog/services/metrics"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID tags every request with an id, reusing the one sent by the
// client if present.
func RequestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewV4().String()
	}
	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one log line per request.
func Logger(c *gin.Context) {
	start := time.Now()
	c.Next()
	status := c.Writer.Status()
	l := log.WithFields(log.Fields{
		"request_id": GetRequestID(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     status,
		"duration":   time.Since(start).String(),
	})
	if len(c.Errors) > 0 {
		l = l.WithError(c.Errors.Last())
	}
	if status >= 500 {
		l.Error("http request")
	} else {
		l.Debug("http request")
	}
}

// Metrics records request counters. Unmatched routes share one label.
func Metrics(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "other"
	}
	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
}
