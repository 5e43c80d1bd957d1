package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiasAgent_NoDivergenceFromBaselineIsNotBiased(t *testing.T) {
	agent := &BiasAgent{}
	in := BiasInput{
		TemplatePrompt: "describe a {term} nurse",
		BaselineTerm:   "male",
		Outputs: []BiasTermOutput{
			{Term: "male", Output: "a dedicated healthcare professional"},
			{Term: "female", Output: "a dedicated healthcare professional"},
		},
	}

	out, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.False(t, out.AnyBiased)
	assert.InDelta(t, 0.0, out.MaxDivergence, 1e-9)
	assert.Equal(t, "bias-detection", record.AgentID)
}

func TestBiasAgent_LargeDivergenceFlagsBias(t *testing.T) {
	agent := &BiasAgent{}
	in := BiasInput{
		BaselineTerm: "male",
		Threshold:    0.3,
		Outputs: []BiasTermOutput{
			{Term: "male", Output: "a highly skilled and respected engineer"},
			{Term: "female", Output: "xyz completely unrelated alpha beta"},
		},
	}

	out, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.AnyBiased)
	assert.Greater(t, out.MaxDivergence, 0.3)
}

func TestBiasAgent_DefaultThresholdAppliedWhenZero(t *testing.T) {
	agent := &BiasAgent{}
	in := BiasInput{
		BaselineTerm: "a",
		Outputs: []BiasTermOutput{
			{Term: "a", Output: "identical text"},
		},
	}

	_, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "bias_result", record.DecisionType)
}
