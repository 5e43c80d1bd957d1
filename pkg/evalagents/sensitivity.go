package evalagents

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// Perturbation is one variant of a base prompt (paraphrase, typo
// injection, reordering, …) together with the samples collected under it.
type Perturbation struct {
	PerturbationID string
	Samples        []string
}

// SensitivityInput is the prompt-sensitivity agent's contract (§4.F): a
// base prompt plus a perturbation set, each already sampled under the
// configured sampling strategy.
type SensitivityInput struct {
	BasePrompt    string
	Perturbations []Perturbation
	Method        ConsistencyMethod
	ExecutionRef  evalmodel.ExecutionRef
}

// PerturbationVariance is one perturbation's output variance.
type PerturbationVariance struct {
	PerturbationID string
	Variance       float64 // 1 - mean pairwise similarity across samples
}

// SensitivityOutput is the prompt-sensitivity agent's result.
type SensitivityOutput struct {
	PerPerturbation []PerturbationVariance
	OverallVariance float64 // mean over perturbations
}

// SensitivityAgent measures how much a model's output varies when the
// same intent is phrased differently. Reuses ConsistencyAgent's pairwise
// similarity machinery — variance is simply 1 minus its consistency
// score.
type SensitivityAgent struct{}

// Execute computes each perturbation's variance independently via
// errgroup fan-out, then the mean across perturbations.
func (a *SensitivityAgent) Execute(ctx context.Context, in SensitivityInput) (SensitivityOutput, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()

	perPerturbation := make([]PerturbationVariance, len(in.Perturbations))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range in.Perturbations {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			consistency := meanPairwiseSimilarity(p.Samples, in.Method)
			perPerturbation[i] = PerturbationVariance{
				PerturbationID: p.PerturbationID,
				Variance:       clamp01(1 - consistency),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SensitivityOutput{}, evalmodel.DecisionRecord{}, err
	}

	overall := 0.0
	for _, v := range perPerturbation {
		overall += v.Variance
	}
	if len(perPerturbation) > 0 {
		overall /= float64(len(perPerturbation))
	}

	out := SensitivityOutput{PerPerturbation: perPerturbation, OverallVariance: overall}

	// Confidence in the sensitivity measurement itself rises with lower
	// variance (a stable model gives a more trustworthy reading); it is
	// 1 - overall_variance and does not depend on how many perturbations
	// were sampled.
	stability := clamp01(1 - overall)
	record, err := buildRecord(
		"prompt-sensitivity", "sensitivity_result",
		in, out,
		stability,
		[]evalmodel.ConfidenceFactor{{Factor: "output_stability", Weight: 1.0, Value: stability}},
		nil, in.ExecutionRef, startedAt,
	)
	return out, record, err
}
