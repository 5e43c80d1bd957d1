package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenDatasetAgent_ExactMatchPasses(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	in := GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "qa", Golden: "the answer is four", Candidate: "the answer is four"},
		},
	}

	out, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Samples, 1)
	assert.Equal(t, MatchExact, out.Samples[0].MatchType)
	assert.True(t, out.Samples[0].Passed)
	assert.InDelta(t, 1.0, out.OverallPassRate, 1e-9)
	assert.Equal(t, "golden-dataset-validator", record.AgentID)
}

func TestGoldenDatasetAgent_CandidateFailedIsMatchError(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	in := GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "qa", Golden: "expected", CandidateFailed: true},
		},
	}

	out, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, MatchError, out.Samples[0].MatchType)
	assert.False(t, out.Samples[0].Passed)
	assert.Equal(t, SeverityCritical, out.Samples[0].Severity)
}

func TestGoldenDatasetAgent_CompletelyDivergentIsNoMatch(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	in := GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "qa", Golden: "alpha beta gamma delta", Candidate: "zzz yyy xxx www"},
		},
	}

	out, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, MatchNone, out.Samples[0].MatchType)
	assert.False(t, out.Samples[0].Passed)
}

func TestGoldenDatasetAgent_CategoryBreakdownTracksPassRate(t *testing.T) {
	agent := &GoldenDatasetAgent{}
	in := GoldenDatasetInput{
		Samples: []GoldenSample{
			{SampleID: "s1", Category: "qa", Golden: "same", Candidate: "same"},
			{SampleID: "s2", Category: "qa", Golden: "alpha beta", Candidate: "zzz yyy"},
		},
	}

	out, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Contains(t, out.GroupBreakdown, "qa")
	b := out.GroupBreakdown["qa"]
	assert.Equal(t, 2, b.Total)
	assert.Equal(t, 1, b.Passed)
	assert.InDelta(t, 0.5, b.PassRate, 1e-9)
}
