package executor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/provider"
)

// stubInvoker drives a canned sequence of outcomes keyed by call order,
// per target — exercising the executor's dispatch/retry/budget logic
// without any real HTTP traffic, per the literal end-to-end scenarios.
type stubInvoker struct {
	calls atomic.Int64
	fn    func(callIndex int64, target evalmodel.ProviderTarget, test evalmodel.TestCase) evalmodel.CallOutcome
}

func (s *stubInvoker) Invoke(_ context.Context, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts provider.InvokeOptions) evalmodel.CallOutcome {
	idx := s.calls.Add(1) - 1
	outcome := s.fn(idx, target, test)
	outcome.TargetRef = target.Ref()
	outcome.TestRef = test.TestID
	outcome.Iteration = opts.Iteration
	return outcome
}

func scenarioTarget() evalmodel.ProviderTarget {
	return evalmodel.ProviderTarget{
		ProviderName: evalmodel.ProviderOpenAI,
		ModelID:      "gpt-4o-mini",
		APIKeyRef:    "stub",
		TimeoutMs:    5000,
		MaxRetries:   0,
	}
}

func scenarioTest() evalmodel.TestCase {
	return evalmodel.TestCase{TestID: "t1", Prompt: "Say OK"}
}

// Scenario 1: single happy benchmark.
func TestScenarioSingleHappyBenchmark(t *testing.T) {
	latencies := []int64{100, 120, 110}
	inv := &stubInvoker{fn: func(idx int64, _ evalmodel.ProviderTarget, _ evalmodel.TestCase) evalmodel.CallOutcome {
		return evalmodel.CallOutcome{
			Success:          true,
			FinishReason:     evalmodel.FinishStop,
			LatencyMs:        latencies[idx],
			PromptTokens:     5,
			CompletionTokens: 1,
		}
	}}

	plan := evalmodel.JobPlan{
		Targets: []evalmodel.ProviderTarget{scenarioTarget()},
		Tests:   []evalmodel.TestCase{scenarioTest()},
		Config: evalmodel.ExecutionConfig{
			Concurrency:       1,
			IterationsPerTest: 3,
			SaveResponses:     true,
		},
		PriorityOrder: evalmodel.ByTargetThenTest,
	}

	report := Execute(context.Background(), inv, plan)

	require.Len(t, report.Outcomes, 3)
	for _, o := range report.Outcomes {
		assert.True(t, o.Success)
	}
	group := report.Groups[scenarioTarget().Ref()]
	assert.Equal(t, 3, group.Total)
	assert.Equal(t, 1.0, group.SuccessRate)
	assert.Equal(t, float64(110), group.P50Ms)
	assert.Equal(t, float64(110), group.MeanMs)
	assert.Equal(t, int64(18), group.TotalTokens)
}

// Scenario 2: fail-fast stops the job at the failing call.
func TestScenarioFailFast(t *testing.T) {
	inv := &stubInvoker{fn: func(idx int64, _ evalmodel.ProviderTarget, _ evalmodel.TestCase) evalmodel.CallOutcome {
		if idx == 2 {
			return evalmodel.CallOutcome{Success: false, ErrorKind: evalmodel.ErrServerError, FinishReason: evalmodel.FinishError}
		}
		return evalmodel.CallOutcome{Success: true, FinishReason: evalmodel.FinishStop, LatencyMs: 50}
	}}

	plan := evalmodel.JobPlan{
		Targets: []evalmodel.ProviderTarget{scenarioTarget()},
		Tests:   []evalmodel.TestCase{scenarioTest()},
		Config: evalmodel.ExecutionConfig{
			Concurrency:       1,
			IterationsPerTest: 10,
			FailFast:          true,
		},
		PriorityOrder: evalmodel.ByTargetThenTest,
	}

	report := Execute(context.Background(), inv, plan)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, evalmodel.ErrServerError, report.Outcomes[2].ErrorKind)
	assert.Equal(t, []evalmodel.ConstraintApplied{evalmodel.ConstraintFailFastTriggered}, report.ConstraintsApplied)
}

// Scenario 3: budget cutoff on max_total_requests.
func TestScenarioBudgetCutoff(t *testing.T) {
	limit := 5
	inv := &stubInvoker{fn: func(_ int64, _ evalmodel.ProviderTarget, _ evalmodel.TestCase) evalmodel.CallOutcome {
		return evalmodel.CallOutcome{Success: true, FinishReason: evalmodel.FinishStop, LatencyMs: 10}
	}}

	plan := evalmodel.JobPlan{
		Targets: []evalmodel.ProviderTarget{scenarioTarget()},
		Tests:   []evalmodel.TestCase{scenarioTest()},
		Config: evalmodel.ExecutionConfig{
			Concurrency:       1,
			IterationsPerTest: 100,
			MaxTotalRequests:  &limit,
		},
		PriorityOrder: evalmodel.ByTargetThenTest,
	}

	report := Execute(context.Background(), inv, plan)

	assert.LessOrEqual(t, len(report.Outcomes), 5)
	assert.Contains(t, report.ConstraintsApplied, evalmodel.ConstraintMaxTotalRequestsExceeded)
}

// Scenario 4: authentication failure quarantines the target for every
// subsequent call.
func TestScenarioAuthQuarantine(t *testing.T) {
	inv := &stubInvoker{fn: func(idx int64, _ evalmodel.ProviderTarget, _ evalmodel.TestCase) evalmodel.CallOutcome {
		return evalmodel.CallOutcome{Success: false, ErrorKind: evalmodel.ErrAuthenticationErr, FinishReason: evalmodel.FinishError}
	}}

	plan := evalmodel.JobPlan{
		Targets: []evalmodel.ProviderTarget{scenarioTarget()},
		Tests:   []evalmodel.TestCase{scenarioTest()},
		Config: evalmodel.ExecutionConfig{
			Concurrency:       1,
			IterationsPerTest: 5,
		},
		PriorityOrder: evalmodel.ByTargetThenTest,
	}

	report := Execute(context.Background(), inv, plan)

	require.Len(t, report.Outcomes, 5)
	group := report.Groups[scenarioTarget().Ref()]
	assert.Equal(t, 0.0, group.SuccessRate)
	assert.Contains(t, report.ConstraintsApplied, evalmodel.ConstraintProviderUnavailable)
	// Only the first call actually reaches the stub; the rest short-circuit.
	assert.Equal(t, int64(1), inv.calls.Load())
}

// Scenario 5: an outcome priced or token-counted by estimate surfaces
// low_confidence_result on the job's constraints, per §4.A/§4.B.
func TestScenarioLowConfidenceOutcomeSurfacesConstraint(t *testing.T) {
	inv := &stubInvoker{fn: func(idx int64, _ evalmodel.ProviderTarget, _ evalmodel.TestCase) evalmodel.CallOutcome {
		return evalmodel.CallOutcome{Success: true, FinishReason: evalmodel.FinishStop, LatencyMs: 50, LowConfidence: true}
	}}

	plan := evalmodel.JobPlan{
		Targets: []evalmodel.ProviderTarget{scenarioTarget()},
		Tests:   []evalmodel.TestCase{scenarioTest()},
		Config: evalmodel.ExecutionConfig{
			Concurrency:       1,
			IterationsPerTest: 2,
		},
		PriorityOrder: evalmodel.ByTargetThenTest,
	}

	report := Execute(context.Background(), inv, plan)

	require.Len(t, report.Outcomes, 2)
	assert.Contains(t, report.ConstraintsApplied, evalmodel.ConstraintLowConfidenceResult)
}
