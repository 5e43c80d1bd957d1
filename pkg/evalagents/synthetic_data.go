package evalagents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// SyntheticDataInput is the synthetic-data-generator agent's contract: a
// set of template prompts with `{placeholder}` markers, each expanded
// across its substitution values via the cartesian product, capped at
// MaxSamples.
type SyntheticDataInput struct {
	Templates     []string
	Substitutions map[string][]string // placeholder name -> candidate values
	MaxSamples    int                 // default 100
	ExecutionRef  evalmodel.ExecutionRef
}

// SyntheticDataOutput is the generated test case set plus how diverse the
// generated prompts are from each other.
type SyntheticDataOutput struct {
	Generated     []evalmodel.TestCase
	DiversityScore float64 // 1 - mean pairwise similarity across generated prompts
	Truncated     bool
}

// SyntheticDataAgent expands templates into concrete test prompts by
// substitution, then scores the generated set's diversity via the
// consistency agent's pairwise-similarity primitive — reused rather than
// reimplemented, per §4.F's "compose the same primitives" rule.
type SyntheticDataAgent struct{}

func (a *SyntheticDataAgent) Execute(ctx context.Context, in SyntheticDataInput) (SyntheticDataOutput, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	maxSamples := in.MaxSamples
	if maxSamples == 0 {
		maxSamples = 100
	}

	var prompts []string
	for _, template := range in.Templates {
		prompts = append(prompts, expandTemplate(template, in.Substitutions)...)
	}

	truncated := false
	if len(prompts) > maxSamples {
		prompts = prompts[:maxSamples]
		truncated = true
	}

	generated := make([]evalmodel.TestCase, len(prompts))
	for i, p := range prompts {
		generated[i] = evalmodel.TestCase{TestID: fmt.Sprintf("synthetic-%d", i+1), Prompt: p}
	}

	diversity := 0.0
	if len(prompts) >= 2 {
		diversity = clamp01(1 - meanPairwiseSimilarity(prompts, ConsistencyNgram))
	}

	out := SyntheticDataOutput{Generated: generated, DiversityScore: diversity, Truncated: truncated}
	record, err := buildRecord(
		"synthetic-data-generator", "synthetic_data_result",
		in, out,
		diversity,
		[]evalmodel.ConfidenceFactor{{Factor: "generated_set_diversity", Weight: 1.0, Value: diversity}},
		nil, in.ExecutionRef, startedAt,
	)
	return out, record, err
}

// expandTemplate substitutes every `{placeholder}` occurrence in the
// template with each of its candidate values in turn, one placeholder at
// a time: every variant built so far is expanded by every value of the
// next placeholder, so the result is the full cartesian product across
// all placeholders present in the template. The MaxSamples cap is applied
// by the caller only after this expansion.
func expandTemplate(template string, substitutions map[string][]string) []string {
	variants := []string{template}
	for placeholder, values := range substitutions {
		marker := "{" + placeholder + "}"
		if !strings.Contains(template, marker) {
			continue
		}
		var expanded []string
		for _, v := range variants {
			if !strings.Contains(v, marker) {
				expanded = append(expanded, v)
				continue
			}
			for _, value := range values {
				expanded = append(expanded, strings.ReplaceAll(v, marker, value))
			}
		}
		variants = expanded
	}
	return variants
}
