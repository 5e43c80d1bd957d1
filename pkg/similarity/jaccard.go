package similarity

// JaccardTokens returns |A∩B| / |A∪B| over tokens (maximal runs of word
// characters length >= 3). Both empty -> 1.0; one empty -> 0.0.
func JaccardTokens(a, b string, opts Options) float64 {
	setA := toSet(tokens(a, opts))
	setB := toSet(tokens(b, opts))
	return jaccardSets(setA, setB)
}

// stopwords is the small exclusion set used by keyword overlap.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "has": {}, "was": {}, "were": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"they": {}, "will": {}, "would": {}, "could": {}, "should": {},
}

// KeywordOverlap is Jaccard over tokens of length >= 3, excluding the
// stopword set.
func KeywordOverlap(a, b string, opts Options) float64 {
	filter := func(toks []string) map[string]struct{} {
		set := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, stop := stopwords[t]; stop {
				continue
			}
			set[t] = struct{}{}
		}
		return set
	}
	setA := filter(tokens(a, opts))
	setB := filter(tokens(b, opts))
	return jaccardSets(setA, setB)
}
