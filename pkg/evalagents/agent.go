// Package evalagents implements the thirteen evaluation strategies from
// §4.F, each a thin composition over the executor (§4.E), statistics
// kernel (§4.C), and similarity kernel (§4.D). Every agent exposes the
// same shape as the teacher's pkg/agent.Agent interface, extended with
// the decision record — Execute(ctx, input) (output, record, error), where
// record is one evalmodel.DecisionRecord (a slice of them for benchmark)
// — specialized per agent to its own input/output
// types since Go interfaces can't parametrize method signatures without
// generics, and the teacher's codebase doesn't reach for generics either.
package evalagents

import (
	"time"

	"github.com/evalforge/evalharness/pkg/decision"
	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// clamp01 bounds a score to [0,1], the shape every agent's confidence
// formula and several per-sample scores are clamped to.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildRecord is the common last step of every agent: turn its
// domain-specific confidence/constraints into a DecisionRecord via
// pkg/decision.Build. Centralized so every agent stamps agent_version the
// same way.
func buildRecord(agentID, decisionType string, inputs, outputs any, confidence float64, factors []evalmodel.ConfidenceFactor, constraints []evalmodel.ConstraintApplied, execRef evalmodel.ExecutionRef, startedAt time.Time) (evalmodel.DecisionRecord, error) {
	return decision.Build(decision.BuildInput{
		AgentID:            agentID,
		AgentVersion:       agentVersion,
		DecisionType:       decisionType,
		Inputs:             inputs,
		Outputs:            outputs,
		Confidence:         clamp01(confidence),
		ConfidenceFactors:  factors,
		ConstraintsApplied: constraints,
		ExecutionRef:       execRef,
		StartedAt:          startedAt,
	})
}

// agentVersion is stamped onto every DecisionRecord this package emits.
// Bumped when an agent's scoring formula changes in a way that would
// change past results if rerun.
const agentVersion = "1.0.0"
