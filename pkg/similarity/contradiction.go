package similarity

import "regexp"

// properNoun extracts capitalized word tokens of length >= 3 — the same
// token shape as tokens(), restricted to an initial uppercase letter, used
// by HasEntityMismatch to compare which named entities two texts
// reference.
var properNoun = regexp.MustCompile(`\b[\p{Lu}][\p{L}]{2,}\b`)

// negationCues are the cue words used by the contradiction heuristic.
// This is explicitly a low-precision signal (spec §9 open question 1):
// it fires on mere presence/absence of a cue plus modest n-gram overlap,
// which produces false positives on antonym paraphrases that use no
// explicit negation (e.g. "rarely" vs "often"). The spec preserves this
// behavior as-is rather than tightening it.
var negationCues = regexp.MustCompile(`\b(not|never|no|cannot|can't|won't|isn't|aren't|doesn't|didn't|wasn't|weren't)\b`)

// ContradictionThreshold is the n-gram similarity floor above which a
// negation-cue mismatch is treated as a contradiction signal.
const ContradictionThreshold = 0.3

// IsContradiction fires when exactly one of a, b contains a negation cue
// and their n-gram similarity is >= ContradictionThreshold.
func IsContradiction(a, b string, opts Options) bool {
	na, nb := normalize(a, opts), normalize(b, opts)
	hasA := negationCues.MatchString(na)
	hasB := negationCues.MatchString(nb)
	if hasA == hasB {
		return false
	}
	return NgramSimilarity(a, b, opts) >= ContradictionThreshold
}

// HasEntityMismatch is a second, narrower contradiction signal: two
// sentences that are otherwise near-identical (n-gram similarity above
// ContradictionThreshold) but where one names a capitalized entity the
// other does not (compared as sets, not by position) — "Paris is the
// capital of Germany" vs "Paris
// is the capital of France" — carry no negation cue at all, so
// IsContradiction alone misses them. Extracted on the raw (pre-lowercase)
// strings, since the signal depends on capitalization.
func HasEntityMismatch(a, b string, opts Options) bool {
	entitiesA := toSet(properNoun.FindAllString(a, -1))
	entitiesB := toSet(properNoun.FindAllString(b, -1))
	if len(entitiesA) == 0 || len(entitiesB) == 0 {
		return false
	}

	diffAB, diffBA := false, false
	for e := range entitiesA {
		if _, ok := entitiesB[e]; !ok {
			diffAB = true
			break
		}
	}
	for e := range entitiesB {
		if _, ok := entitiesA[e]; !ok {
			diffBA = true
			break
		}
	}
	if !diffAB && !diffBA {
		return false
	}

	return NgramSimilarity(a, b, opts) >= ContradictionThreshold
}
