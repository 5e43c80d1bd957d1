package evalagents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/executor"
)

// StressTestType is one of the stress test types this implementation
// covers. The source's roster names several more (e.g.
// context_overflow) with no concrete generation rule; per spec §9 open
// question 2 this implementation does not invent one and only builds the
// types below — see DESIGN.md.
type StressTestType string

const (
	StressLoad           StressTestType = "load"
	StressLongContext    StressTestType = "long_context"
	StressRepeatedPrompt StressTestType = "repeated_prompt"
	StressConcurrentBurst StressTestType = "concurrent_burst"
)

// StressTestInput is the stress-test agent's contract: a stress type,
// the target(s) to exercise, and the type's own sizing parameter.
type StressTestInput struct {
	Type         StressTestType
	Targets      []evalmodel.ProviderTarget
	BasePrompt   string
	// Size means: request count for load/repeated_prompt, target char
	// length for long_context, concurrent worker count for
	// concurrent_burst.
	Size         int
	ExecutionRef evalmodel.ExecutionRef
}

// StressTestOutput wraps the executor run plus the stress agent's own
// pass/fail verdict: the target must finish without being quarantined
// and without tripping a budget constraint.
type StressTestOutput struct {
	Report   evalmodel.JobReport
	Survived bool
}

// StressTestAgent drives a target through one of four concrete load
// shapes and reports whether it survived without quarantine or budget
// exhaustion, reusing the executor (§4.E) for the actual dispatch.
type StressTestAgent struct {
	Invoker executor.Invoker
}

func (a *StressTestAgent) Execute(ctx context.Context, in StressTestInput) (StressTestOutput, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	plan := buildStressPlan(in)

	report := executor.Execute(ctx, a.Invoker, plan)
	survived := !hasConstraint(report.ConstraintsApplied, evalmodel.ConstraintProviderUnavailable) &&
		!hasConstraint(report.ConstraintsApplied, evalmodel.ConstraintMaxDurationExceeded) &&
		!hasConstraint(report.ConstraintsApplied, evalmodel.ConstraintMaxCostExceeded) &&
		!hasConstraint(report.ConstraintsApplied, evalmodel.ConstraintMaxTotalRequestsExceeded)

	out := StressTestOutput{Report: report, Survived: survived}
	confidence := report.Groups[in.Targets[0].Ref()].SuccessRate
	if !survived {
		confidence = 0
	}

	record, err := buildRecord(
		"stress-test", "stress_test_result",
		in, out,
		confidence,
		[]evalmodel.ConfidenceFactor{{Factor: "success_rate_under_load", Weight: 1.0, Value: confidence}},
		report.ConstraintsApplied, in.ExecutionRef, startedAt,
	)
	return out, record, err
}

func buildStressPlan(in StressTestInput) evalmodel.JobPlan {
	size := in.Size
	if size <= 0 {
		size = 10
	}

	config := evalmodel.DefaultExecutionConfig()
	prompt := in.BasePrompt

	switch in.Type {
	case StressLoad, StressRepeatedPrompt:
		config.IterationsPerTest = size
		config.Concurrency = 4
	case StressConcurrentBurst:
		config.IterationsPerTest = size
		config.Concurrency = size
	case StressLongContext:
		config.IterationsPerTest = 1
		config.Concurrency = 1
		prompt = strings.Repeat(in.BasePrompt+" ", size/max(1, len(in.BasePrompt)+1))
	}

	return evalmodel.JobPlan{
		Targets:       in.Targets,
		Tests:         []evalmodel.TestCase{{TestID: fmt.Sprintf("stress-%s", in.Type), Prompt: prompt}},
		Config:        config,
		PriorityOrder: evalmodel.ByTargetThenTest,
	}
}

func hasConstraint(constraints []evalmodel.ConstraintApplied, target evalmodel.ConstraintApplied) bool {
	for _, c := range constraints {
		if c == target {
			return true
		}
	}
	return false
}
