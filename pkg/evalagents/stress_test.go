package evalagents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/provider"
)

type stubInvoker struct {
	fail bool
}

func (s stubInvoker) Invoke(ctx context.Context, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts provider.InvokeOptions) evalmodel.CallOutcome {
	if s.fail {
		return evalmodel.CallOutcome{TargetRef: target.Ref(), TestRef: test.TestID, Success: false, ErrorKind: evalmodel.ErrTimeout}
	}
	return evalmodel.CallOutcome{TargetRef: target.Ref(), TestRef: test.TestID, Success: true, LatencyMs: 50}
}

func stressTarget() evalmodel.ProviderTarget {
	return evalmodel.ProviderTarget{ProviderName: evalmodel.ProviderOpenAI, ModelID: "gpt-4o", APIKeyRef: "ref:openai", TimeoutMs: 30000}
}

func TestStressTestAgent_LoadSurvivesWithSuccessfulInvoker(t *testing.T) {
	agent := &StressTestAgent{Invoker: stubInvoker{}}
	in := StressTestInput{
		Type:       StressLoad,
		Targets:    []evalmodel.ProviderTarget{stressTarget()},
		BasePrompt: "hello",
		Size:       5,
	}

	out, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Survived)
	assert.Greater(t, out.Report.Groups[stressTarget().Ref()].Total, 0)
	assert.Equal(t, "stress-test", record.AgentID)
}

func TestStressTestAgent_LongContextRepeatsPromptToSize(t *testing.T) {
	agent := &StressTestAgent{Invoker: stubInvoker{}}
	in := StressTestInput{
		Type:       StressLongContext,
		Targets:    []evalmodel.ProviderTarget{stressTarget()},
		BasePrompt: "word",
		Size:       40,
	}

	out, _, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Report.Outcomes, 1)
	assert.Len(t, buildStressPlan(in).Tests[0].Prompt, 40)
}

func TestStressTestAgent_ConfidenceZeroWhenAllCallsFail(t *testing.T) {
	agent := &StressTestAgent{Invoker: stubInvoker{fail: true}}
	in := StressTestInput{
		Type:       StressRepeatedPrompt,
		Targets:    []evalmodel.ProviderTarget{stressTarget()},
		BasePrompt: "hello",
		Size:       3,
	}

	_, record, err := agent.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "stress_test_result", record.DecisionType)
	assert.InDelta(t, 0.0, record.Confidence, 1e-9)
}
