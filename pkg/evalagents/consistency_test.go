package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

func TestConsistencyAgent_IdenticalOutputsScenario(t *testing.T) {
	agent := &ConsistencyAgent{}
	results, _, err := agent.Execute(context.Background(), ConsistencyInput{
		Groups: []ConsistencyGroup{
			{GroupID: "g1", Outputs: []string{"hello world", "hello world", "hello world"}},
		},
		Method: ConsistencyExact,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].ConsistencyScore)
	assert.True(t, results[0].IsConsistent)
}

func TestConsistencyAgent_OneDivergentOutputScenario(t *testing.T) {
	agent := &ConsistencyAgent{}
	results, _, err := agent.Execute(context.Background(), ConsistencyInput{
		Groups: []ConsistencyGroup{
			{GroupID: "g1", Outputs: []string{"hello world", "hello world", "goodbye world"}},
		},
		Method: ConsistencyExact,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.67, results[0].ConsistencyScore, 0.01)
	assert.False(t, results[0].IsConsistent)
}

func TestHallucinationAgent_EntityMismatchScenario(t *testing.T) {
	agent := &HallucinationAgent{}
	results, _, err := agent.Execute(context.Background(), HallucinationInput{
		Claims: []HallucinationClaim{
			{
				ClaimID:    "c1",
				Claim:      "Paris is the capital of Germany",
				References: []string{"Paris is the capital of France."},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, HallucinationContradiction, results[0].HallucinationType)
	assert.Equal(t, SeverityCritical, results[0].Severity)
}

func TestHallucinationAgent_FabricationOnNoReferences(t *testing.T) {
	agent := &HallucinationAgent{}
	results, _, err := agent.Execute(context.Background(), HallucinationInput{
		Claims: []HallucinationClaim{{ClaimID: "c1", Claim: "anything", References: nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, HallucinationFabrication, results[0].HallucinationType)
}

func TestHallucinationAgent_NoneOnStrongMatch(t *testing.T) {
	agent := &HallucinationAgent{}
	results, _, err := agent.Execute(context.Background(), HallucinationInput{
		Claims: []HallucinationClaim{{
			ClaimID:    "c1",
			Claim:      "Paris is the capital of France",
			References: []string{"Paris is the capital of France."},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, HallucinationNone, results[0].HallucinationType)
}

func TestGoldenDatasetAgent_ExactMatchPassesWithPassRate(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	out, _, err := agent.Execute(context.Background(), GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "greeting", Golden: "hello", Candidate: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, MatchExact, out.Samples[0].MatchType)
	assert.True(t, out.Samples[0].Passed)
	assert.Equal(t, 1.0, out.OverallPassRate)
}

func TestGoldenDatasetAgent_CandidateFailureIsError(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	out, _, err := agent.Execute(context.Background(), GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "greeting", CandidateFailed: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, MatchError, out.Samples[0].MatchType)
	assert.False(t, out.Samples[0].Passed)
}

func TestBenchmarkConfidence_PerfectGroupClampedToOne(t *testing.T) {
	group := evalmodel.AggregatedStats{
		Total: 100, Succeeded: 100, SuccessRate: 1.0,
		MeanMs: 110, StddevMs: 0, MinMs: 100, MaxMs: 120,
	}
	confidence, factors := benchmarkConfidence(group)
	assert.LessOrEqual(t, confidence, 1.0)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.Len(t, factors, 4)
}
