package evalagents

import (
	"context"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/similarity"
)

// FaithfulnessSupport is one claim's support classification — a
// stricter, two-tier reduction of HallucinationType per SPEC_FULL.md's
// supplement: only supported/unsupported, no fabrication/exaggeration
// tiers, since faithfulness checking is about source grounding, not
// claim plausibility.
type FaithfulnessSupport string

const (
	FaithfulnessSupported   FaithfulnessSupport = "supported"
	FaithfulnessUnsupported FaithfulnessSupport = "unsupported"
)

// FaithfulnessInput is the faithfulness-verification agent's contract:
// claims checked against source-document text, reusing the
// hallucination detector's claim/reference shape.
type FaithfulnessInput struct {
	Claims       []HallucinationClaim
	Threshold    float64 // stricter than hallucination's partial_support band; default 0.7
	ExecutionRef evalmodel.ExecutionRef
}

// FaithfulnessResult is one claim's support verdict.
type FaithfulnessResult struct {
	ClaimID string
	Support FaithfulnessSupport
	Score   float64
}

// FaithfulnessAgent verifies that a generated claim is actually grounded
// in its source document(s), via the same n-gram overlap primitive the
// hallucination detector uses, at a stricter single cutoff.
type FaithfulnessAgent struct{}

func (a *FaithfulnessAgent) Execute(ctx context.Context, in FaithfulnessInput) ([]FaithfulnessResult, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	threshold := in.Threshold
	if threshold == 0 {
		threshold = 0.7
	}
	opts := similarity.DefaultOptions()

	results := make([]FaithfulnessResult, len(in.Claims))
	supportedCount := 0
	for i, c := range in.Claims {
		best := 0.0
		for _, ref := range c.References {
			score := similarity.NgramSimilarity(c.Claim, ref, opts)
			if score > best {
				best = score
			}
		}
		support := FaithfulnessUnsupported
		if best >= threshold {
			support = FaithfulnessSupported
			supportedCount++
		}
		results[i] = FaithfulnessResult{ClaimID: c.ClaimID, Support: support, Score: best}
	}

	faithfulnessRate := 0.0
	if len(results) > 0 {
		faithfulnessRate = float64(supportedCount) / float64(len(results))
	}

	record, err := buildRecord(
		"faithfulness-verification", "faithfulness_result",
		in, results,
		faithfulnessRate,
		[]evalmodel.ConfidenceFactor{{Factor: "supported_claim_ratio", Weight: 1.0, Value: faithfulnessRate}},
		nil, in.ExecutionRef, startedAt,
	)
	return results, record, err
}
