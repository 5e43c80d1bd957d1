package evalagents

import (
	"context"
	"sort"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// ModelComparatorInput is the model-comparator agent's contract (§4.F): a
// single JobReport whose groups cover the targets to rank against each
// other.
type ModelComparatorInput struct {
	Report          evalmodel.JobReport
	ConfidenceLevel float64
	ExecutionRef    evalmodel.ExecutionRef
}

// ModelRanking is one target's composite score and rank.
type ModelRanking struct {
	TargetRef       string
	CompositeScore  float64
	Rank            int
}

// PairwiseModelComparison reuses the regression agent's per-metric
// statistical comparison, applied target-to-target instead of
// before-to-after.
type PairwiseModelComparison struct {
	TargetRefA string
	TargetRefB string
	Metric     MetricComparison
}

// ModelComparatorOutput ranks every target group and records every
// pairwise latency comparison between them.
type ModelComparatorOutput struct {
	Rankings []ModelRanking
	Pairwise []PairwiseModelComparison
}

// ModelComparatorAgent ranks multiple provider targets against each other
// using the same composite-score shape as the benchmark agent, plus
// pairwise Welch's-t comparisons reused from the regression agent.
type ModelComparatorAgent struct{}

func (a *ModelComparatorAgent) Execute(ctx context.Context, in ModelComparatorInput) (ModelComparatorOutput, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	level := in.ConfidenceLevel
	if level == 0 {
		level = 0.95
	}

	refs := make([]string, 0, len(in.Report.Groups))
	for ref := range in.Report.Groups {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	rankings := make([]ModelRanking, 0, len(refs))
	for _, ref := range refs {
		score, _ := benchmarkConfidence(in.Report.Groups[ref])
		rankings = append(rankings, ModelRanking{TargetRef: ref, CompositeScore: score})
	}
	sort.Slice(rankings, func(i, j int) bool { return rankings[i].CompositeScore > rankings[j].CompositeScore })
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	var pairwise []PairwiseModelComparison
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			latA := latenciesFor(in.Report.Outcomes, refs[i])
			latB := latenciesFor(in.Report.Outcomes, refs[j])
			pairwise = append(pairwise, PairwiseModelComparison{
				TargetRefA: refs[i],
				TargetRefB: refs[j],
				Metric:     compareMetric(refs[i]+" vs "+refs[j], "latency_ms", latA, latB, level),
			})
		}
	}

	out := ModelComparatorOutput{Rankings: rankings, Pairwise: pairwise}

	// Confidence in the ranking rises with sample depth across groups: a
	// ranking built on a handful of calls per target is less trustworthy
	// than one built on hundreds.
	totalSamples := 0
	for _, g := range in.Report.Groups {
		totalSamples += g.Total
	}
	depth := clamp01(float64(totalSamples) / 100.0)

	record, err := buildRecord(
		"model-comparator", "model_comparison_result",
		in, out,
		depth,
		[]evalmodel.ConfidenceFactor{{Factor: "sample_depth", Weight: 1.0, Value: depth}},
		nil, in.ExecutionRef, startedAt,
	)
	return out, record, err
}
