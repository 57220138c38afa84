package poster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/webtor-io/movie-catalog/services/metrics"
	"github.com/webtor-io/movie-catalog/services/tmdb"
	"github.com/yargevad/filepathx"
	"golang.org/x/sync/singleflight"
)

const (
	posterDirFlag          = "poster-dir"
	posterFetchTimeoutFlag = "poster-fetch-timeout"
	posterSingleFlightFlag = "poster-single-flight"
)

const posterExt = ".png"

// ErrNotFound is the only error Resolve returns. Network failures, unknown
// titles and missing posters are not told apart.
var ErrNotFound = errors.New("poster not found")

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   posterDirFlag,
			Usage:  "poster cache directory",
			Value:  "posters",
			EnvVar: "POSTER_DIR",
		},
		cli.DurationFlag{
			Name:   posterFetchTimeoutFlag,
			Usage:  "poster fetch timeout",
			Value:  15 * time.Second,
			EnvVar: "POSTER_FETCH_TIMEOUT",
		},
		cli.BoolTFlag{
			Name:   posterSingleFlightFlag,
			Usage:  "fetch each missing poster once for concurrent requests",
			EnvVar: "POSTER_SINGLE_FLIGHT",
		},
	)
}

// Provider looks up movies and downloads their poster images.
type Provider interface {
	SearchMovie(ctx context.Context, title string) ([]tmdb.SearchResult, error)
	FetchImage(ctx context.Context, posterPath string) ([]byte, error)
}

type Config struct {
	Dir          string
	FetchTimeout time.Duration
	SingleFlight bool
}

type Resolver struct {
	dir     string
	timeout time.Duration
	api     Provider
	sf      *singleflight.Group
}

// New makes a resolver from flags. A nil api leaves the resolver serving
// cached posters only.
func New(c *cli.Context, api *tmdb.Api) *Resolver {
	var p Provider
	if api != nil {
		p = api
	}
	return NewResolver(&Config{
		Dir:          c.String(posterDirFlag),
		FetchTimeout: c.Duration(posterFetchTimeoutFlag),
		SingleFlight: c.BoolT(posterSingleFlightFlag),
	}, p)
}

func NewResolver(cfg *Config, api Provider) *Resolver {
	r := &Resolver{
		dir:     cfg.Dir,
		timeout: cfg.FetchTimeout,
		api:     api,
	}
	if cfg.SingleFlight {
		r.sf = &singleflight.Group{}
	}
	return r
}

func (s *Resolver) Dir() string {
	return s.dir
}

func (s *Resolver) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create poster dir %v", s.dir)
	}
	return nil
}

// CheckWritable verifies that posters can be stored.
func (s *Resolver) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, ".write-check-*")
	if err != nil {
		return errors.Wrapf(err, "poster dir %v is not writable", s.dir)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Sanitize turns a title into a file name token: characters other than
// letters, digits, underscore, hyphen, dot and space are dropped, spaces
// become underscores. Different titles may share a token.
func Sanitize(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == ' ' {
			sb.WriteRune(r)
		}
	}
	return strings.ReplaceAll(sb.String(), " ", "_")
}

// Lookup scans the poster directory for "<token>_<id>.png".
func (s *Resolver) Lookup(title string) (string, bool) {
	token := Sanitize(title)
	if token == "" {
		return "", false
	}
	return s.lookup(token)
}

func (s *Resolver) lookup(token string) (string, bool) {
	matches, err := filepathx.Glob(filepath.Join(s.dir, token+"_*"+posterExt))
	if err != nil {
		log.WithError(err).WithField("token", token).Warn("failed to scan poster dir")
		return "", false
	}
	sort.Strings(matches)
	for _, m := range matches {
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), token+"_"), posterExt)
		if isID(id) {
			return m, true
		}
	}
	return "", false
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve returns the path of a cached poster, fetching and storing it first
// on a cache miss. Every failure yields ErrNotFound.
func (s *Resolver) Resolve(ctx context.Context, title string) (string, error) {
	token := Sanitize(title)
	if token == "" {
		metrics.PosterLookupsTotal.WithLabelValues("not_found").Inc()
		return "", ErrNotFound
	}
	if p, ok := s.lookup(token); ok {
		metrics.PosterLookupsTotal.WithLabelValues("hit").Inc()
		return p, nil
	}
	if s.api == nil {
		log.WithField("title", title).Debug("poster missing and tmdb is not configured")
		metrics.PosterLookupsTotal.WithLabelValues("not_found").Inc()
		return "", ErrNotFound
	}
	var (
		p   string
		err error
	)
	if s.sf != nil {
		// Waiters share one fetch, so it must outlive any single caller.
		fctx := context.WithoutCancel(ctx)
		var v any
		v, err, _ = s.sf.Do(token, func() (any, error) {
			return s.fetch(fctx, title, token)
		})
		p, _ = v.(string)
	} else {
		p, err = s.fetch(ctx, title, token)
	}
	if err != nil {
		log.WithError(err).WithField("title", title).Warn("failed to resolve poster")
		metrics.PosterLookupsTotal.WithLabelValues("not_found").Inc()
		return "", ErrNotFound
	}
	metrics.PosterLookupsTotal.WithLabelValues("fetched").Inc()
	return p, nil
}

func (s *Resolver) fetch(ctx context.Context, title string, token string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	results, err := s.api.SearchMovie(ctx, title)
	if err != nil {
		return "", errors.Wrap(err, "search failed")
	}
	if len(results) == 0 {
		return "", errors.New("no search results")
	}
	movie := results[0]
	if movie.PosterPath == "" {
		return "", errors.Errorf("no poster for tmdb movie %v", movie.ID)
	}
	b, err := s.api.FetchImage(ctx, movie.PosterPath)
	if err != nil {
		return "", errors.Wrap(err, "image download failed")
	}
	if err := s.store(fmt.Sprintf("%s_%d%s", token, movie.ID, posterExt), b); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"title":   title,
		"tmdb_id": movie.ID,
		"size":    humanize.Bytes(uint64(len(b))),
	}).Info("poster saved")
	p, ok := s.lookup(token)
	if !ok {
		return "", errors.New("stored poster is not listed")
	}
	return p, nil
}

// store converts the image to png and moves it into place atomically.
func (s *Resolver) store(name string, b []byte) error {
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "failed to decode image")
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".poster-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to encode png")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return errors.Wrap(err, "failed to move poster in place")
	}
	return nil
}
