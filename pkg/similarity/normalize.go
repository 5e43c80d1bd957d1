// Package similarity implements the similarity/consistency kernel (spec
// §4.D): exact match, normalized Levenshtein, token Jaccard, character
// n-gram Jaccard, keyword overlap, and the contradiction heuristic. All
// operations lowercase and NFC-normalize inputs unless Options.CaseSensitive
// is set; whitespace collapse is controlled by Options.TrimWhitespace.
package similarity

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Options controls normalization applied before comparison.
type Options struct {
	CaseSensitive   bool
	TrimWhitespace  bool
}

// DefaultOptions matches spec defaults: case-insensitive, whitespace
// collapsed.
func DefaultOptions() Options {
	return Options{CaseSensitive: false, TrimWhitespace: true}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalize applies NFC normalization, optional lowercasing, and optional
// whitespace-run collapsing.
func normalize(s string, opts Options) string {
	s = norm.NFC.String(s)
	if !opts.CaseSensitive {
		s = strings.ToLower(s)
	}
	if opts.TrimWhitespace {
		s = whitespaceRun.ReplaceAllString(s, " ")
		s = strings.TrimSpace(s)
	}
	return s
}

// ExactMatch returns 1.0 iff a and b are equal after normalization, else
// 0.0.
func ExactMatch(a, b string, opts Options) float64 {
	if normalize(a, opts) == normalize(b, opts) {
		return 1.0
	}
	return 0.0
}

var wordToken = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

// tokens extracts maximal runs of word characters of length >= 3, per
// §4.D's token definition.
func tokens(s string, opts Options) []string {
	return wordToken.FindAllString(normalize(s, opts), -1)
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
