package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
	"github.com/webtor-io/movie-catalog/services/metrics"
	"golang.org/x/time/rate"
)

const (
	tmdbApiKeyFlag    = "tmdb-api-key"
	tmdbApiURLFlag    = "tmdb-api-url"
	tmdbImageURLFlag  = "tmdb-image-url"
	tmdbRateLimitFlag = "tmdb-rate-limit"
	tmdbCacheTTLFlag  = "tmdb-cache-ttl"
	tmdbRedisFlag     = "tmdb-redis-cache"
)

const (
	redisCachePrefix = "catalog:tmdb:search:"
	maxSearchBody    = 512 * 1024
	maxImageBody     = 20 * 1024 * 1024
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   tmdbApiKeyFlag,
			Usage:  "tmdb api key",
			Value:  "",
			EnvVar: "TMDB_API_KEY",
		},
		cli.StringFlag{
			Name:   tmdbApiURLFlag,
			Usage:  "tmdb api url",
			Value:  "https://api.themoviedb.org/3",
			EnvVar: "TMDB_API_URL",
		},
		cli.StringFlag{
			Name:   tmdbImageURLFlag,
			Usage:  "tmdb image url",
			Value:  "https://image.tmdb.org/t/p/w500",
			EnvVar: "TMDB_IMAGE_URL",
		},
		cli.Float64Flag{
			Name:   tmdbRateLimitFlag,
			Usage:  "tmdb requests per second (0 is unlimited)",
			Value:  20,
			EnvVar: "TMDB_RATE_LIMIT",
		},
		cli.DurationFlag{
			Name:   tmdbCacheTTLFlag,
			Usage:  "tmdb search response cache ttl (redis only)",
			Value:  7 * 24 * time.Hour,
			EnvVar: "TMDB_CACHE_TTL",
		},
		cli.BoolFlag{
			Name:   tmdbRedisFlag,
			Usage:  "cache tmdb search responses in redis",
			EnvVar: "TMDB_REDIS_CACHE",
		},
	)
}

type SearchResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type Config struct {
	Key       string
	URL       string
	ImageURL  string
	RateLimit float64
	CacheTTL  time.Duration
}

type Api struct {
	url            string
	imageURL       string
	cl             *http.Client
	rdb            redis.UniversalClient
	cacheTTL       time.Duration
	limiter        *rate.Limiter
	prepareRequest func(r *http.Request) (*http.Request, error)
}

// New returns nil if no api key is configured. Redis is used only when
// enabled by flag and reachable.
func New(c *cli.Context, cl *http.Client, rc *cs.RedisClient) *Api {
	var rdb redis.UniversalClient
	if rc != nil && c.Bool(tmdbRedisFlag) {
		rdb = reachable(rc.Get())
	}
	return NewApi(&Config{
		Key:       c.String(tmdbApiKeyFlag),
		URL:       c.String(tmdbApiURLFlag),
		ImageURL:  c.String(tmdbImageURLFlag),
		RateLimit: c.Float64(tmdbRateLimitFlag),
		CacheTTL:  c.Duration(tmdbCacheTTLFlag),
	}, cl, rdb)
}

func NewApi(cfg *Config, cl *http.Client, rdb redis.UniversalClient) *Api {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return nil
	}
	prepareRequest := func(r *http.Request) (*http.Request, error) {
		q := r.URL.Query()
		q.Set("api_key", key)
		r.URL.RawQuery = q.Encode()
		return r, nil
	}
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}
	u := strings.TrimRight(cfg.URL, "/")
	log.Infof("tmdb api endpoint %v", u)
	return &Api{
		url:            u,
		imageURL:       strings.TrimRight(cfg.ImageURL, "/"),
		cl:             cl,
		rdb:            rdb,
		cacheTTL:       cfg.CacheTTL,
		limiter:        rate.NewLimiter(limit, burst),
		prepareRequest: prepareRequest,
	}
}

// reachable returns nil when redis does not answer, searches then go
// straight to the api.
func reachable(rdb redis.UniversalClient) redis.UniversalClient {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis not reachable, tmdb cache disabled")
		return nil
	}
	return rdb
}

// SearchMovie queries the movie search endpoint and returns candidates in
// the api order.
func (api *Api) SearchMovie(ctx context.Context, title string) ([]SearchResult, error) {
	title = strings.TrimSpace(title)
	cacheKey := redisCachePrefix + strings.ToLower(title)

	if api.rdb != nil && api.cacheTTL > 0 {
		data, err := api.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var results []SearchResult
			if json.Unmarshal(data, &results) == nil {
				return results, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("failed to read tmdb cache")
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/search/movie", api.url), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	q := req.URL.Query()
	q.Set("query", title)
	req.URL.RawQuery = q.Encode()

	req, err = api.prepareRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "prepare request")
	}

	body, err := api.do(req, "search", maxSearchBody)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	if api.rdb != nil && api.cacheTTL > 0 && len(resp.Results) > 0 {
		if data, err := json.Marshal(resp.Results); err == nil {
			if err := api.rdb.Set(ctx, cacheKey, data, api.cacheTTL).Err(); err != nil {
				log.WithError(err).Warn("failed to write tmdb cache")
			}
		}
	}
	return resp.Results, nil
}

// FetchImage downloads raw image bytes for a poster path such as
// "/qJ2tW6WMUDux911r6m7haRef0WH.jpg".
func (api *Api) FetchImage(ctx context.Context, posterPath string) ([]byte, error) {
	if posterPath == "" {
		return nil, errors.New("empty poster path")
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	req, err := http.NewRequestWithContext(ctx, "GET", api.imageURL+posterPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return api.do(req, "image", maxImageBody)
}

func (api *Api) do(req *http.Request, endpoint string, limit int64) ([]byte, error) {
	if err := api.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}
	start := time.Now()
	status := "error"
	defer func() {
		metrics.TMDBRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}()

	resp, err := api.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("tmdb %v responded with status %v", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return body, nil
}
