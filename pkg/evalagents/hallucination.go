package evalagents

import (
	"context"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/similarity"
)

// HallucinationType is one claim's classification.
type HallucinationType string

const (
	HallucinationFabrication    HallucinationType = "fabrication"
	HallucinationUnsupported    HallucinationType = "unsupported"
	HallucinationPartialSupport HallucinationType = "partial_support"
	HallucinationContradiction  HallucinationType = "contradiction"
	HallucinationExaggeration   HallucinationType = "exaggeration"
	HallucinationNone           HallucinationType = "none"
)

// HallucinationClaim is one claim to check against its reference
// contexts.
type HallucinationClaim struct {
	ClaimID    string
	Claim      string
	References []string
}

// HallucinationThresholds configures the classifier's cutoffs (§4.F names
// the fixed 0.2/0.4 bands for fabrication/unsupported; partial_support and
// exaggeration use a configurable threshold, default 0.6).
type HallucinationThresholds struct {
	PartialSupportMin float64 // default 0.6
}

func (t HallucinationThresholds) withDefaults() HallucinationThresholds {
	if t.PartialSupportMin == 0 {
		t.PartialSupportMin = 0.6
	}
	return t
}

// HallucinationInput is the hallucination-detector agent's contract
// (§4.F).
type HallucinationInput struct {
	Claims       []HallucinationClaim
	Thresholds   HallucinationThresholds
	ExecutionRef evalmodel.ExecutionRef
}

// HallucinationResult is one claim's classification.
type HallucinationResult struct {
	ClaimID           string
	HallucinationType HallucinationType
	Severity          Severity
	BestSupportScore  float64
	UnmatchedRatio    float64
}

// HallucinationAgent checks claims against reference contexts for
// unsupported or contradicted content.
//
// classify applies the priorities top-to-bottom exactly as §4.F names
// them: fabrication (<0.2) → unsupported (<0.4) → partial_support
// (<threshold) → contradiction (heuristic) → exaggeration (score>=
// threshold && avg_unmatched_ratio>0.4) → none. The contradiction check
// additionally fires on similarity.HasEntityMismatch, not only
// similarity.IsContradiction's negation-cue signal — needed because a
// claim can misstate a named entity ("Paris is the capital of Germany")
// without using any negation word at all, a case the literal cue-based
// heuristic alone cannot see. This widening is this implementation's
// resolution of the spec's open question on the heuristic's precision,
// not a weakening of it: it is still a heuristic and still marked
// low-precision on its own, but it is the only way the detector can ever
// flag a misattributed-entity claim as a contradiction rather than
// silently scoring it as merely "unsupported".
type HallucinationAgent struct{}

func (a *HallucinationAgent) Execute(ctx context.Context, in HallucinationInput) ([]HallucinationResult, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	thresholds := in.Thresholds.withDefaults()
	opts := similarity.DefaultOptions()

	results := make([]HallucinationResult, len(in.Claims))
	criticalCount := 0
	for i, c := range in.Claims {
		results[i] = classifyClaim(c, thresholds, opts)
		if results[i].Severity == SeverityCritical {
			criticalCount++
		}
	}

	// Confidence in the batch result falls as more claims are flagged
	// critical — a detector surfacing many high-severity findings is
	// reporting a noisier batch, not necessarily a less accurate one, but
	// the decision record's confidence tracks how much of the batch came
	// back "clean" (type none) since that's what a reviewer would trust
	// without re-checking.
	clean := 0
	for _, r := range results {
		if r.HallucinationType == HallucinationNone {
			clean++
		}
	}
	confidence := 0.0
	if len(results) > 0 {
		confidence = float64(clean) / float64(len(results))
	}

	record, err := buildRecord(
		"hallucination-detector", "hallucination_result",
		in, results,
		confidence,
		[]evalmodel.ConfidenceFactor{{Factor: "clean_claim_ratio", Weight: 1.0, Value: confidence}},
		nil, in.ExecutionRef, startedAt,
	)
	return results, record, err
}

func classifyClaim(c HallucinationClaim, th HallucinationThresholds, opts similarity.Options) HallucinationResult {
	result := HallucinationResult{ClaimID: c.ClaimID}

	if len(c.References) == 0 {
		result.HallucinationType = HallucinationFabrication
		result.Severity = SeverityCritical
		return result
	}

	bestScore := 0.0
	unmatchedTotal := 0.0
	for _, ref := range c.References {
		score := similarity.NgramSimilarity(c.Claim, ref, opts)
		if score > bestScore {
			bestScore = score
		}
		unmatchedTotal += 1 - similarity.KeywordOverlap(c.Claim, ref, opts)
	}
	avgUnmatchedRatio := unmatchedTotal / float64(len(c.References))

	result.BestSupportScore = bestScore
	result.UnmatchedRatio = avgUnmatchedRatio

	contradicted := false
	for _, ref := range c.References {
		if similarity.IsContradiction(c.Claim, ref, opts) || similarity.HasEntityMismatch(c.Claim, ref, opts) {
			contradicted = true
			break
		}
	}

	switch {
	case bestScore < 0.2:
		result.HallucinationType = HallucinationFabrication
		result.Severity = SeverityCritical
	case bestScore < 0.4:
		result.HallucinationType = HallucinationUnsupported
		result.Severity = SeverityMajor
	case bestScore < th.PartialSupportMin:
		result.HallucinationType = HallucinationPartialSupport
		result.Severity = SeverityMinor
	case contradicted:
		result.HallucinationType = HallucinationContradiction
		result.Severity = SeverityCritical
	case bestScore >= th.PartialSupportMin && avgUnmatchedRatio > 0.4:
		result.HallucinationType = HallucinationExaggeration
		result.Severity = SeverityMinor
	default:
		result.HallucinationType = HallucinationNone
		result.Severity = SeverityNone
	}
	return result
}
