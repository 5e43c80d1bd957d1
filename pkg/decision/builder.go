package decision

import (
	"time"

	"github.com/google/uuid"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// BuildInput is everything an agent hands the pipeline to produce one
// DecisionRecord; the pipeline fills in decision_id, inputs_hash, and
// timestamp/duration.
type BuildInput struct {
	AgentID            string
	AgentVersion       string
	DecisionType       string
	Inputs             any // hashed, never stored raw
	InputsSummary      map[string]any
	Outputs            any
	Confidence         float64
	ConfidenceFactors  []evalmodel.ConfidenceFactor
	ConstraintsApplied []evalmodel.ConstraintApplied
	ExecutionRef       evalmodel.ExecutionRef
	StartedAt          time.Time
}

// Build canonicalizes Inputs into inputs_hash and assembles the full
// DecisionRecord (§3, §4.G step 1). Never mutated after this call returns.
func Build(in BuildInput) (evalmodel.DecisionRecord, error) {
	hash, err := evalmodel.Hash(in.Inputs)
	if err != nil {
		return evalmodel.DecisionRecord{}, err
	}

	now := time.Now().UTC()
	return evalmodel.DecisionRecord{
		AgentID:            in.AgentID,
		AgentVersion:       in.AgentVersion,
		DecisionType:       in.DecisionType,
		DecisionID:         uuid.New().String(),
		InputsHash:         hash,
		InputsSummary:      in.InputsSummary,
		Outputs:            in.Outputs,
		Confidence:         clamp01(in.Confidence),
		ConfidenceFactors:  in.ConfidenceFactors,
		ConstraintsApplied: in.ConstraintsApplied,
		ExecutionRef:       in.ExecutionRef,
		Timestamp:          now,
		DurationMs:         now.Sub(in.StartedAt).Milliseconds(),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
