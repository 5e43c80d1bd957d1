package evalagents

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/similarity"
)

// ConsistencyMethod selects the similarity function used for pairwise
// comparison.
type ConsistencyMethod string

const (
	ConsistencyExact       ConsistencyMethod = "exact"
	ConsistencyLevenshtein ConsistencyMethod = "levenshtein"
	ConsistencyJaccard     ConsistencyMethod = "jaccard"
	ConsistencyNgram       ConsistencyMethod = "ngram"
)

// ConsistencyGroup is one prompt's set of outputs (≥2) to compare.
type ConsistencyGroup struct {
	GroupID string
	Outputs []string
}

// ConsistencyInput is the output-consistency agent's contract (§4.F).
type ConsistencyInput struct {
	Groups       []ConsistencyGroup
	Method       ConsistencyMethod
	Threshold    float64 // default 0.85
	ExecutionRef evalmodel.ExecutionRef
}

// ConsistencyResult is one group's consistency score.
type ConsistencyResult struct {
	GroupID         string
	ConsistencyScore float64
	IsConsistent    bool
}

// ConsistencyAgent scores how stable a model's outputs are across repeated
// samples of the same prompt, via mean pairwise similarity.
type ConsistencyAgent struct{}

// Execute scores every group independently; groups fan out over
// errgroup since each group's pairwise matrix is independent in-memory
// work, not outbound I/O — matching §4.F's distinction between the
// executor's bounded dispatcher and an agent-local best-effort fan-out.
func (a *ConsistencyAgent) Execute(ctx context.Context, in ConsistencyInput) ([]ConsistencyResult, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	threshold := in.Threshold
	if threshold == 0 {
		threshold = 0.85
	}

	results := make([]ConsistencyResult, len(in.Groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range in.Groups {
		i, group := i, group
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = ConsistencyResult{
				GroupID:         group.GroupID,
				ConsistencyScore: meanPairwiseSimilarity(group.Outputs, in.Method),
			}
			results[i].IsConsistent = results[i].ConsistencyScore >= threshold
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, evalmodel.DecisionRecord{}, err
	}

	overall := 0.0
	for _, r := range results {
		overall += r.ConsistencyScore
	}
	if len(results) > 0 {
		overall /= float64(len(results))
	}

	record, err := buildRecord(
		"output-consistency", "consistency_result",
		in, results,
		overall,
		[]evalmodel.ConfidenceFactor{{Factor: "mean_group_consistency", Weight: 1.0, Value: overall}},
		nil, in.ExecutionRef, startedAt,
	)
	return results, record, err
}

// meanPairwiseSimilarity computes the mean similarity over every pair in
// outputs under the selected method, INCLUDING each output's
// self-comparison (i,i), which is always 1.0. Including the diagonal
// matches end-to-end scenario 5 literally: three outputs where two of
// three are identical and one diverges score consistency_score≈0.67, not
// ≈0.33 — i.e. the denominator is n(n+1)/2, not C(n,2). A single output
// (or none) is trivially fully consistent.
func meanPairwiseSimilarity(outputs []string, method ConsistencyMethod) float64 {
	if len(outputs) < 2 {
		return 1.0
	}
	opts := similarity.DefaultOptions()
	total := 0.0
	pairs := 0
	for i := 0; i < len(outputs); i++ {
		for j := i; j < len(outputs); j++ {
			if i == j {
				total += 1.0
			} else {
				total += similarityByMethod(outputs[i], outputs[j], method, opts)
			}
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	return total / float64(pairs)
}

func similarityByMethod(a, b string, method ConsistencyMethod, opts similarity.Options) float64 {
	switch method {
	case ConsistencyExact:
		return similarity.ExactMatch(a, b, opts)
	case ConsistencyJaccard:
		return similarity.JaccardTokens(a, b, opts)
	case ConsistencyNgram:
		return similarity.NgramSimilarity(a, b, opts)
	default:
		return similarity.NormalizedLevenshtein(a, b, opts)
	}
}
