package evalagents

import (
	"context"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/similarity"
)

// QualitySample is one candidate scored against its reference.
type QualitySample struct {
	SampleID  string
	Reference string
	Candidate string
}

// QualityWeights configures the composite score's dimension weights;
// zero-value falls back to an even split across the three dimensions.
type QualityWeights struct {
	Relevance    float64 // token Jaccard against the reference
	Accuracy     float64 // n-gram similarity against the reference
	Completeness float64 // length ratio, capped at 1.0
}

func (w QualityWeights) withDefaults() QualityWeights {
	if w.Relevance == 0 && w.Accuracy == 0 && w.Completeness == 0 {
		return QualityWeights{Relevance: 1.0 / 3, Accuracy: 1.0 / 3, Completeness: 1.0 / 3}
	}
	return w
}

// QualityInput is the quality-scoring agent's contract.
type QualityInput struct {
	Samples      []QualitySample
	Weights      QualityWeights
	ExecutionRef evalmodel.ExecutionRef
}

// QualityResult is one sample's per-dimension and composite score.
type QualityResult struct {
	SampleID        string
	Relevance       float64
	Accuracy        float64
	Completeness    float64
	CompositeScore  float64
}

// QualityAgent scores candidate outputs against references along three
// dimensions, composed from the similarity kernel — no bespoke quality
// model, per §4.F's "compose the same primitives" rule.
type QualityAgent struct{}

func (a *QualityAgent) Execute(ctx context.Context, in QualityInput) ([]QualityResult, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	weights := in.Weights.withDefaults()
	opts := similarity.DefaultOptions()

	results := make([]QualityResult, len(in.Samples))
	total := 0.0
	for i, s := range in.Samples {
		relevance := similarity.JaccardTokens(s.Reference, s.Candidate, opts)
		accuracy := similarity.NgramSimilarity(s.Reference, s.Candidate, opts)
		completeness := completenessRatio(s.Reference, s.Candidate)

		composite := clamp01(weights.Relevance*relevance + weights.Accuracy*accuracy + weights.Completeness*completeness)
		results[i] = QualityResult{
			SampleID:       s.SampleID,
			Relevance:      relevance,
			Accuracy:       accuracy,
			Completeness:   completeness,
			CompositeScore: composite,
		}
		total += composite
	}

	meanComposite := 0.0
	if len(results) > 0 {
		meanComposite = total / float64(len(results))
	}

	record, err := buildRecord(
		"quality-scoring", "quality_result",
		in, results,
		meanComposite,
		[]evalmodel.ConfidenceFactor{{Factor: "mean_composite_score", Weight: 1.0, Value: meanComposite}},
		nil, in.ExecutionRef, startedAt,
	)
	return results, record, err
}

// completenessRatio compares candidate length to reference length,
// capped at 1.0 so a candidate longer than its reference doesn't score
// above a perfect match.
func completenessRatio(reference, candidate string) float64 {
	if len(reference) == 0 {
		if len(candidate) == 0 {
			return 1.0
		}
		return 0.0
	}
	ratio := float64(len(candidate)) / float64(len(reference))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
