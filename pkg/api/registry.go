package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evalforge/evalharness/pkg/evalagents"
	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/executor"
)

// agentEntry is one agent's dispatch handler plus the descriptor surfaced
// at GET /api/v1/agents: unmarshal the request body into the agent's own
// Input type, run Execute, return its output and the DecisionRecord(s)
// it produced.
type agentEntry struct {
	descriptor AgentDescriptor
	invoke     func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error)
}

// AgentRegistry dispatches POST /api/v1/agents/:agentId to one of the
// thirteen evaluation agents (§4.F), keyed by the same agent_id string
// each agent stamps onto its own DecisionRecords.
type AgentRegistry struct {
	entries map[string]agentEntry
	order   []string
}

// NewAgentRegistry wires every evalagents.*Agent behind its agent_id.
// inv is the shared provider invoker the benchmark and stress-test
// agents dispatch real calls through; the other eleven agents score
// already-collected outputs and need no invoker.
func NewAgentRegistry(inv executor.Invoker) *AgentRegistry {
	r := &AgentRegistry{entries: map[string]agentEntry{}}

	benchmark := &evalagents.BenchmarkAgent{Invoker: inv}
	register(r, "benchmark", "benchmark_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.BenchmarkInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invokeMulti3(benchmark.Execute(ctx, in))
	})

	consistency := &evalagents.ConsistencyAgent{}
	register(r, "output-consistency", "consistency_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.ConsistencyInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(consistency.Execute(ctx, in))
	})

	sensitivity := &evalagents.SensitivityAgent{}
	register(r, "prompt-sensitivity", "sensitivity_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.SensitivityInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(sensitivity.Execute(ctx, in))
	})

	golden := &evalagents.GoldenDatasetAgent{}
	register(r, "golden-dataset-validator", "golden_dataset_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.GoldenDatasetInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(golden.Execute(ctx, in))
	})

	hallucination := &evalagents.HallucinationAgent{}
	register(r, "hallucination-detector", "hallucination_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.HallucinationInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(hallucination.Execute(ctx, in))
	})

	regression := &evalagents.RegressionAgent{}
	register(r, "regression-detection", "regression_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.RegressionInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(regression.Execute(ctx, in))
	})

	comparator := &evalagents.ModelComparatorAgent{}
	register(r, "model-comparator", "model_comparison_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.ModelComparatorInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(comparator.Execute(ctx, in))
	})

	bias := &evalagents.BiasAgent{}
	register(r, "bias-detection", "bias_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.BiasInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(bias.Execute(ctx, in))
	})

	faithfulness := &evalagents.FaithfulnessAgent{}
	register(r, "faithfulness-verification", "faithfulness_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.FaithfulnessInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(faithfulness.Execute(ctx, in))
	})

	quality := &evalagents.QualityAgent{}
	register(r, "quality-scoring", "quality_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.QualityInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(quality.Execute(ctx, in))
	})

	adversarial := &evalagents.AdversarialAgent{}
	register(r, "adversarial-prompt", "adversarial_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.AdversarialInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(adversarial.Execute(ctx, in))
	})

	synthetic := &evalagents.SyntheticDataAgent{}
	register(r, "synthetic-data-generator", "synthetic_data_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.SyntheticDataInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(synthetic.Execute(ctx, in))
	})

	stress := &evalagents.StressTestAgent{Invoker: inv}
	register(r, "stress-test", "stress_test_result", func(ctx context.Context, body []byte) (any, []evalmodel.DecisionRecord, error) {
		var in evalagents.StressTestInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, err
		}
		return invoke3(stress.Execute(ctx, in))
	})

	return r
}

func register(r *AgentRegistry, agentID, decisionType string, fn func(context.Context, []byte) (any, []evalmodel.DecisionRecord, error)) {
	r.entries[agentID] = agentEntry{
		descriptor: AgentDescriptor{AgentID: agentID, AgentVersion: "1.0.0", DecisionType: decisionType},
		invoke:     fn,
	}
	r.order = append(r.order, agentID)
}

// invoke3 adapts an agent's 3-value Execute return (one DecisionRecord
// per invocation) to the registry's any-typed, multi-record signature.
func invoke3[T any](out T, record evalmodel.DecisionRecord, err error) (any, []evalmodel.DecisionRecord, error) {
	if err != nil {
		return nil, nil, err
	}
	return out, []evalmodel.DecisionRecord{record}, nil
}

// invokeMulti3 adapts BenchmarkAgent.Execute, the one agent that emits a
// DecisionRecord per target group (provider/model) rather than a single
// record for the whole invocation.
func invokeMulti3[T any](out T, records []evalmodel.DecisionRecord, err error) (any, []evalmodel.DecisionRecord, error) {
	if err != nil {
		return nil, nil, err
	}
	return out, records, nil
}

// Dispatch runs the named agent against a raw JSON request body,
// returning every DecisionRecord it produced (almost always exactly one).
func (r *AgentRegistry) Dispatch(ctx context.Context, agentID string, body []byte) (any, []evalmodel.DecisionRecord, error) {
	entry, ok := r.entries[agentID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown agent %q", errUnknownAgent, agentID)
	}
	return entry.invoke(ctx, body)
}

// List returns every registered agent's descriptor in registration order.
func (r *AgentRegistry) List() []AgentDescriptor {
	out := make([]AgentDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].descriptor)
	}
	return out
}
