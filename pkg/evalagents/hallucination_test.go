package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHallucinationAgent_NoReferencesIsFabrication(t *testing.T) {
	agent := &HallucinationAgent{}
	in := HallucinationInput{
		Claims: []HallucinationClaim{
			{ClaimID: "c1", Claim: "the moon is made of cheese"},
		},
	}

	results, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, HallucinationFabrication, results[0].HallucinationType)
	assert.Equal(t, SeverityCritical, results[0].Severity)
	assert.Equal(t, "hallucination-detector", record.AgentID)
}

func TestHallucinationAgent_IdenticalClaimAndReferenceIsNone(t *testing.T) {
	agent := &HallucinationAgent{}
	in := HallucinationInput{
		Claims: []HallucinationClaim{
			{
				ClaimID:    "c1",
				Claim:      "the Eiffel Tower is located in Paris",
				References: []string{"the Eiffel Tower is located in Paris"},
			},
		},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, HallucinationNone, results[0].HallucinationType)
	assert.Equal(t, SeverityNone, results[0].Severity)
}

func TestHallucinationAgent_EntityMismatchIsContradiction(t *testing.T) {
	agent := &HallucinationAgent{}
	in := HallucinationInput{
		Claims: []HallucinationClaim{
			{
				ClaimID:    "c1",
				Claim:      "Paris is the capital of Germany",
				References: []string{"Paris is the capital of France"},
			},
		},
	}

	results, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, HallucinationContradiction, results[0].HallucinationType)
	assert.Equal(t, SeverityCritical, results[0].Severity)
}

func TestHallucinationAgent_CleanClaimRatioDrivesConfidence(t *testing.T) {
	agent := &HallucinationAgent{}
	in := HallucinationInput{
		Claims: []HallucinationClaim{
			{ClaimID: "c1", Claim: "a fact", References: []string{"a fact"}},
			{ClaimID: "c2", Claim: "another unrelated invented fact"},
		},
	}

	_, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, record.Confidence, 1e-9)
}
