package similarity

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NormalizedLevenshtein returns 1 - distance/max(len_a, len_b). Both empty
// strings yield 1.0. Uses golang-levenshtein's DistanceForStrings with the
// default cost set rather than hand-rolling the DP table.
func NormalizedLevenshtein(a, b string, opts Options) float64 {
	na, nb := normalize(a, opts), normalize(b, opts)
	ra, rb := []rune(na), []rune(nb)

	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}

	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	sim := 1 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
