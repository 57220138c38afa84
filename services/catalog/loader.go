package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/webtor-io/movie-catalog/models"
)

const (
	catalogPathFlag           = "catalog-path"
	catalogTitleMatchFlag     = "catalog-title-match"
	catalogFuzzyThresholdFlag = "catalog-fuzzy-threshold"
	catalogCombineFlag        = "catalog-combine"
)

const maxLoggedDrops = 5

var ErrEmptyCatalog = errors.New("catalog is empty")

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   catalogPathFlag,
			Usage:  "path to movie dataset (csv)",
			Value:  "imdb_movies.csv",
			EnvVar: "CATALOG_PATH",
		},
		cli.StringFlag{
			Name:   catalogTitleMatchFlag,
			Usage:  "title matching strategy (substring, fuzzy)",
			Value:  string(TitleMatchSubstring),
			EnvVar: "CATALOG_TITLE_MATCH",
		},
		cli.IntFlag{
			Name:   catalogFuzzyThresholdFlag,
			Usage:  "minimal fuzzy title similarity (0-100)",
			Value:  DefaultFuzzyThreshold,
			EnvVar: "CATALOG_FUZZY_THRESHOLD",
		},
		cli.StringFlag{
			Name:   catalogCombineFlag,
			Usage:  "search filter combination (intersect, union)",
			Value:  string(CombineIntersect),
			EnvVar: "CATALOG_COMBINE",
		},
	)
}

func Path(c *cli.Context) string {
	return c.String(catalogPathFlag)
}

// NewFromContext loads the dataset configured by flags.
func NewFromContext(c *cli.Context) (*Catalog, error) {
	m, err := NewTitleMatcher(TitleMatchMode(c.String(catalogTitleMatchFlag)), c.Int(catalogFuzzyThresholdFlag))
	if err != nil {
		return nil, err
	}
	cm, err := ParseCombineMode(c.String(catalogCombineFlag))
	if err != nil {
		return nil, err
	}
	return Load(Path(c), WithTitleMatcher(m), WithCombineMode(cm))
}

// Load reads a csv dataset with a header row. Missing or unreadable files
// and datasets without a single usable row are errors.
func Load(path string, opts ...Option) (*Catalog, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset file not found %v", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %v", path)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	movies, dropped, err := ReadMovies(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %v", path)
	}
	log.WithFields(log.Fields{
		"path":    path,
		"size":    humanize.Bytes(uint64(st.Size())),
		"movies":  len(movies),
		"dropped": dropped,
	}).Info("dataset loaded")
	return New(movies, opts...), nil
}

// ReadMovies normalizes every csv row. Rows that cannot be read or
// normalized are dropped and counted.
func ReadMovies(r io.Reader) ([]*models.Movie, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, errors.New("no header row")
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	var (
		movies  []*models.Movie
		dropped int
		line    = 1
	)
	drop := func(err error) {
		dropped++
		if dropped <= maxLoggedDrops {
			log.WithError(err).WithField("row", line).Warn("dropping dataset row")
		}
	}
	for {
		rec, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				drop(err)
				continue
			}
			return nil, dropped, errors.Wrap(err, "failed to read row")
		}
		row := make(Row, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		m, err := Normalize(row)
		if err != nil {
			drop(err)
			continue
		}
		movies = append(movies, m)
	}
	if dropped > maxLoggedDrops {
		log.Warnf("dropped %v dataset rows in total", dropped)
	}
	if len(movies) == 0 {
		return nil, dropped, ErrEmptyCatalog
	}
	return movies, dropped, nil
}
