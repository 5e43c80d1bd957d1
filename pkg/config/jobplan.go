package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// JobPlanYAML is a job plan file's on-disk shape: the same fields as
// evalmodel.JobPlan, loaded independently so a YAML-specific tag set
// (and a nil-safe Config) doesn't leak into the wire/hashing type.
type JobPlanYAML struct {
	Targets       []evalmodel.ProviderTarget `yaml:"targets"`
	Tests         []evalmodel.TestCase       `yaml:"tests"`
	Config        *ExecutionConfigYAML       `yaml:"config"`
	PriorityOrder evalmodel.PriorityOrder    `yaml:"priority_order"`
	CorrelationID string                     `yaml:"correlation_id"`
}

// ExecutionConfigYAML mirrors evalmodel.ExecutionConfig but with pointer
// scalars, the same *bool-for-"unset" idiom tarsy's SlackYAMLConfig uses,
// so a job plan file that sets only one field doesn't zero the rest out
// when merged over the defaults.
type ExecutionConfigYAML struct {
	Concurrency       *int  `yaml:"concurrency,omitempty"`
	WarmUpRuns        *int  `yaml:"warm_up_runs,omitempty"`
	IterationsPerTest *int  `yaml:"iterations_per_test,omitempty"`
	SaveResponses     *bool `yaml:"save_responses,omitempty"`
	FailFast          *bool `yaml:"fail_fast,omitempty"`

	MaxDurationMs    *int64   `yaml:"max_duration_ms,omitempty"`
	MaxTotalCostUSD  *float64 `yaml:"max_total_cost_usd,omitempty"`
	MaxTotalRequests *int     `yaml:"max_total_requests,omitempty"`
	RequestDelayMs   *int     `yaml:"request_delay_ms,omitempty"`
}

// LoadJobPlan reads a job plan YAML file, expands ${VAR} references (so
// api_key_ref or base_url fields can point at env-resolved indirection
// the same way tarsy's llm-providers.yaml does), fills unset Config
// fields from evalmodel.DefaultExecutionConfig, and validates the result
// against §3's field contract before returning it.
func LoadJobPlan(path string) (evalmodel.JobPlan, error) {
	log := slog.With("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return evalmodel.JobPlan{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return evalmodel.JobPlan{}, NewLoadError(filepath.Base(path), err)
	}

	data = ExpandEnv(data)

	var parsed JobPlanYAML
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return evalmodel.JobPlan{}, NewLoadError(filepath.Base(path), fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	cfg := evalmodel.DefaultExecutionConfig()
	if parsed.Config != nil {
		cfg = mergeExecutionConfig(cfg, *parsed.Config)
	}

	plan := evalmodel.JobPlan{
		Targets:       parsed.Targets,
		Tests:         parsed.Tests,
		Config:        cfg,
		PriorityOrder: parsed.PriorityOrder,
		CorrelationID: parsed.CorrelationID,
	}
	if plan.PriorityOrder == "" {
		plan.PriorityOrder = evalmodel.ByTargetThenTest
	}

	if verr := evalmodel.ValidateJobPlan(plan); verr != nil {
		return evalmodel.JobPlan{}, fmt.Errorf("%w: %v", ErrValidationFailed, verr)
	}

	log.Info("job plan loaded", "targets", len(plan.Targets), "tests", len(plan.Tests))
	return plan, nil
}

// mergeExecutionConfig overlays every field the user explicitly set in
// override onto base (the defaults) — the same "start from defaults,
// merge user values on top" shape tarsy's loader.go uses for its
// QueueConfig, via mergo.WithOverride; done by hand here since ExecutionConfigYAML's
// pointer fields already carry "set vs unset", so a plain nil check
// suffices instead of pulling in a merge library for one struct.
func mergeExecutionConfig(base evalmodel.ExecutionConfig, override ExecutionConfigYAML) evalmodel.ExecutionConfig {
	merged := base
	if override.Concurrency != nil {
		merged.Concurrency = *override.Concurrency
	}
	if override.WarmUpRuns != nil {
		merged.WarmUpRuns = *override.WarmUpRuns
	}
	if override.IterationsPerTest != nil {
		merged.IterationsPerTest = *override.IterationsPerTest
	}
	if override.SaveResponses != nil {
		merged.SaveResponses = *override.SaveResponses
	}
	if override.FailFast != nil {
		merged.FailFast = *override.FailFast
	}
	if override.MaxDurationMs != nil {
		merged.MaxDurationMs = override.MaxDurationMs
	}
	if override.MaxTotalCostUSD != nil {
		merged.MaxTotalCostUSD = override.MaxTotalCostUSD
	}
	if override.MaxTotalRequests != nil {
		merged.MaxTotalRequests = override.MaxTotalRequests
	}
	if override.RequestDelayMs != nil {
		merged.RequestDelayMs = override.RequestDelayMs
	}
	return merged
}
