package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaithfulnessAgent_IdenticalClaimIsSupported(t *testing.T) {
	agent := &FaithfulnessAgent{}
	in := FaithfulnessInput{
		Claims: []HallucinationClaim{
			{ClaimID: "c1", Claim: "the library opens at nine", References: []string{"the library opens at nine"}},
		},
	}

	results, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, FaithfulnessSupported, results[0].Support)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "faithfulness-verification", record.AgentID)
}

func TestFaithfulnessAgent_NoReferencesIsUnsupported(t *testing.T) {
	agent := &FaithfulnessAgent{}
	in := FaithfulnessInput{
		Claims: []HallucinationClaim{{ClaimID: "c1", Claim: "an unchecked claim"}},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, FaithfulnessUnsupported, results[0].Support)
	assert.InDelta(t, 0.0, results[0].Score, 1e-9)
}

func TestFaithfulnessAgent_DefaultThresholdRejectsLooseOverlap(t *testing.T) {
	agent := &FaithfulnessAgent{}
	in := FaithfulnessInput{
		Claims: []HallucinationClaim{
			{ClaimID: "c1", Claim: "completely different wording entirely", References: []string{"totally unrelated source text"}},
		},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, FaithfulnessUnsupported, results[0].Support)
}

func TestFaithfulnessAgent_FaithfulnessRateReflectsSupportedRatio(t *testing.T) {
	agent := &FaithfulnessAgent{}
	in := FaithfulnessInput{
		Claims: []HallucinationClaim{
			{ClaimID: "c1", Claim: "same text here", References: []string{"same text here"}},
			{ClaimID: "c2", Claim: "nothing in common at all"},
		},
	}

	_, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, record.Confidence, 1e-9)
}
