package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityAgent_IdenticalCandidateScoresPerfect(t *testing.T) {
	agent := &QualityAgent{}
	in := QualityInput{
		Samples: []QualitySample{
			{SampleID: "s1", Reference: "the quick brown fox", Candidate: "the quick brown fox"},
		},
	}

	results, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-9)
	assert.InDelta(t, 1.0, results[0].Accuracy, 1e-9)
	assert.InDelta(t, 1.0, results[0].Completeness, 1e-9)
	assert.InDelta(t, 1.0, results[0].CompositeScore, 1e-9)
	assert.Equal(t, "quality-scoring", record.AgentID)
}

func TestQualityAgent_EmptyReferenceAndCandidateIsComplete(t *testing.T) {
	agent := &QualityAgent{}
	in := QualityInput{
		Samples: []QualitySample{{SampleID: "s1", Reference: "", Candidate: ""}},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].Completeness, 1e-9)
}

func TestQualityAgent_CustomWeightsAppliedToComposite(t *testing.T) {
	agent := &QualityAgent{}
	in := QualityInput{
		Weights: QualityWeights{Relevance: 1.0, Accuracy: 0, Completeness: 0},
		Samples: []QualitySample{
			{SampleID: "s1", Reference: "alpha beta gamma", Candidate: "alpha beta gamma"},
		},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, results[0].Relevance, results[0].CompositeScore, 1e-9)
}

func TestQualityAgent_MeanCompositeDrivesConfidence(t *testing.T) {
	agent := &QualityAgent{}
	in := QualityInput{
		Samples: []QualitySample{
			{SampleID: "s1", Reference: "same text", Candidate: "same text"},
			{SampleID: "s2", Reference: "", Candidate: "totally different"},
		},
	}

	_, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, record.Confidence, (1.0+0.0)/2, 0.2)
}
