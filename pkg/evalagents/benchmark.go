package evalagents

import (
	"context"
	"math"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/executor"
)

// BenchmarkInput is the benchmark agent's contract (§4.F): targets, tests,
// and the executor config to run them under.
type BenchmarkInput struct {
	Plan         evalmodel.JobPlan
	ExecutionRef evalmodel.ExecutionRef
}

// BenchmarkOutput wraps the executor's JobReport plus the per-group
// confidence the benchmark agent derives from it.
type BenchmarkOutput struct {
	Report          evalmodel.JobReport
	ConfidenceByRef map[string]float64
}

// BenchmarkAgent runs a full executor job and scores each target group's
// reliability. Grounded on the executor's own worker-pool/budget/retry
// machinery (§4.E) — this agent adds only the confidence formula on top.
type BenchmarkAgent struct {
	Invoker executor.Invoker
}

// Execute runs the job plan to completion and emits one DecisionRecord per
// target group, each carrying that group's own confidence score.
func (a *BenchmarkAgent) Execute(ctx context.Context, in BenchmarkInput) (BenchmarkOutput, []evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	report := executor.Execute(ctx, a.Invoker, in.Plan)

	confidenceByRef := make(map[string]float64, len(report.Groups))
	records := make([]evalmodel.DecisionRecord, 0, len(report.Groups))

	for ref, group := range report.Groups {
		confidence, factors := benchmarkConfidence(group)
		confidenceByRef[ref] = confidence

		record, err := buildRecord(
			"benchmark", "benchmark_result",
			map[string]any{"target_ref": ref, "plan": in.Plan},
			group,
			confidence, factors,
			report.ConstraintsApplied,
			in.ExecutionRef, startedAt,
		)
		if err != nil {
			return BenchmarkOutput{}, nil, err
		}
		records = append(records, record)
	}

	return BenchmarkOutput{Report: report, ConfidenceByRef: confidenceByRef}, records, nil
}

// benchmarkConfidence implements §4.F's formula exactly:
//
//	0.4·success_rate + 0.2·latency_consistency + 0.2·provider_reliability + 0.2·log10(total+1)/2
//
// where latency_consistency = 1 - min(1, stddev/mean), clamped to [0,1].
// provider_reliability is approximated as success_rate itself (the spec
// names no independent signal for it beyond the group's own outcomes).
func benchmarkConfidence(group evalmodel.AggregatedStats) (float64, []evalmodel.ConfidenceFactor) {
	latencyConsistency := 1.0
	if group.MeanMs > 0 {
		latencyConsistency = 1 - math.Min(1, group.StddevMs/group.MeanMs)
	}
	providerReliability := group.SuccessRate
	volumeTerm := math.Log10(float64(group.Total)+1) / 2

	confidence := 0.4*group.SuccessRate + 0.2*latencyConsistency + 0.2*providerReliability + 0.2*volumeTerm

	factors := []evalmodel.ConfidenceFactor{
		{Factor: "success_rate", Weight: 0.4, Value: group.SuccessRate},
		{Factor: "latency_consistency", Weight: 0.2, Value: latencyConsistency},
		{Factor: "provider_reliability", Weight: 0.2, Value: providerReliability},
		{Factor: "volume", Weight: 0.2, Value: volumeTerm},
	}
	return clamp01(confidence), factors
}
