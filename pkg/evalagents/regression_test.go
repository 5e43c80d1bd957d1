package evalagents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

func makeOutcomes(ref string, latenciesMs []int64, success bool) []evalmodel.CallOutcome {
	outcomes := make([]evalmodel.CallOutcome, len(latenciesMs))
	for i, lat := range latenciesMs {
		outcomes[i] = evalmodel.CallOutcome{
			TargetRef: ref,
			TestRef:   "t1",
			Iteration: i,
			Success:   success,
			LatencyMs: lat,
		}
	}
	return outcomes
}

func makeReport(ref string, latenciesMs []int64, successRate float64) evalmodel.JobReport {
	return evalmodel.JobReport{
		Outcomes: makeOutcomes(ref, latenciesMs, true),
		Groups: map[string]evalmodel.AggregatedStats{
			ref: {Total: len(latenciesMs), Succeeded: len(latenciesMs), SuccessRate: successRate},
		},
	}
}

func TestRegressionAgent_NoRegressionWhenLatenciesMatch(t *testing.T) {
	agent := &RegressionAgent{}
	latencies := []int64{100, 105, 98, 102, 101}
	baseline := makeReport("openai/gpt-4o", latencies, 1.0)
	candidate := makeReport("openai/gpt-4o", latencies, 1.0)

	out, record, err := agent.Execute(context.Background(), RegressionInput{Baseline: baseline, Candidate: candidate})
	require.NoError(t, err)
	require.NotEmpty(t, out.Comparisons)
	for _, c := range out.Comparisons {
		assert.False(t, c.Regressed)
	}
	assert.Equal(t, "regression-detection", record.AgentID)
}

func TestRegressionAgent_LatencyRegressionFlagged(t *testing.T) {
	agent := &RegressionAgent{}
	baseline := makeReport("openai/gpt-4o", []int64{100, 100, 100, 100, 100, 100}, 1.0)
	candidate := makeReport("openai/gpt-4o", []int64{800, 810, 790, 820, 805, 795}, 1.0)

	out, _, err := agent.Execute(context.Background(), RegressionInput{Baseline: baseline, Candidate: candidate})
	require.NoError(t, err)

	foundRegressed := false
	for _, c := range out.Comparisons {
		if c.Metric == "latency_ms" && c.Regressed {
			foundRegressed = true
		}
	}
	assert.True(t, foundRegressed)
}

func TestRegressionAgent_SkipsGroupsAbsentFromCandidate(t *testing.T) {
	agent := &RegressionAgent{}
	baseline := evalmodel.JobReport{
		Groups: map[string]evalmodel.AggregatedStats{
			"openai/gpt-4o":    {Total: 5, SuccessRate: 1.0},
			"anthropic/claude": {Total: 5, SuccessRate: 1.0},
		},
	}
	candidate := evalmodel.JobReport{
		Groups: map[string]evalmodel.AggregatedStats{
			"openai/gpt-4o": {Total: 5, SuccessRate: 1.0},
		},
	}

	out, _, err := agent.Execute(context.Background(), RegressionInput{Baseline: baseline, Candidate: candidate})
	require.NoError(t, err)
	for _, c := range out.Comparisons {
		assert.NotContains(t, c.TargetRef, "anthropic")
	}
}

func TestRegressionAgent_ExecutionRefPropagated(t *testing.T) {
	agent := &RegressionAgent{}
	ref := evalmodel.ExecutionRef{ExecutionID: "exec-1", TraceID: "trace-1"}
	_, record, err := agent.Execute(context.Background(), RegressionInput{
		Baseline:     makeReport("openai/gpt-4o", []int64{100}, 1.0),
		Candidate:    makeReport("openai/gpt-4o", []int64{100}, 1.0),
		ExecutionRef: ref,
	})
	require.NoError(t, err)
	assert.Equal(t, ref, record.ExecutionRef)
	assert.WithinDuration(t, time.Now(), record.Timestamp, time.Minute)
}
