package catalog

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

type TitleMatchMode string

const (
	TitleMatchSubstring TitleMatchMode = "substring"
	TitleMatchFuzzy     TitleMatchMode = "fuzzy"
)

const DefaultFuzzyThreshold = 90

// TitleMatcher decides whether a title satisfies a search query.
// Both arguments are already case folded and non-empty.
type TitleMatcher interface {
	Match(title, query string) bool
}

// SubstringMatcher matches when the query is contained in the title.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(title, query string) bool {
	return strings.Contains(title, query)
}

// FuzzyMatcher matches when the partial ratio of title and query reaches
// Threshold. It tolerates typos at the cost of occasional false positives.
type FuzzyMatcher struct {
	Threshold int
}

func (s FuzzyMatcher) Match(title, query string) bool {
	return PartialRatio(title, query) >= s.Threshold
}

func NewTitleMatcher(mode TitleMatchMode, threshold int) (TitleMatcher, error) {
	switch mode {
	case TitleMatchSubstring, "":
		return SubstringMatcher{}, nil
	case TitleMatchFuzzy:
		if threshold <= 0 || threshold > 100 {
			return nil, errors.Errorf("fuzzy threshold must be in 1..100, got %v", threshold)
		}
		return FuzzyMatcher{Threshold: threshold}, nil
	default:
		return nil, errors.Errorf("unknown title match mode %q", mode)
	}
}

// PartialRatio returns the best similarity (0..100) between the shorter
// string and every equally long window of the longer one.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	if strings.Contains(string(long), string(short)) {
		return 100
	}
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(short, long[i:i+len(short)]); r > best {
			best = r
		}
	}
	return best
}

func ratio(a, b []rune) int {
	total := len(a) + len(b)
	d := levenshtein.ComputeDistance(string(a), string(b))
	return int(math.Round(float64(total-d) / float64(total) * 100))
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
