package evalmodel

import (
	"fmt"
)

// Hand-rolled validators for every public-boundary input, per spec §9's
// redesign note rejecting runtime schema-validation libraries. Each
// validator returns a *ValidationError carrying one FieldError per
// violation, with the exact field path, so pkg/api can surface a 400
// without ever reaching the executor (spec §7).

var validProviderNames = map[ProviderName]bool{
	ProviderOpenAI:     true,
	ProviderAnthropic:  true,
	ProviderGoogle:     true,
	ProviderMistral:    true,
	ProviderGroq:       true,
	ProviderTogether:   true,
	ProviderPerplexity: true,
	ProviderAzure:      true,
	ProviderCustomKind: true,
}

// ValidateProviderTarget checks a ProviderTarget against §3's field
// contract.
func ValidateProviderTarget(path string, t ProviderTarget) *ValidationError {
	var fields []*FieldError
	if !validProviderNames[t.ProviderName] {
		fields = append(fields, &FieldError{Path: path + ".provider_name", Err: fmt.Errorf("%w: %q", ErrOutOfRange, t.ProviderName)})
	}
	if t.ModelID == "" {
		fields = append(fields, &FieldError{Path: path + ".model_id", Err: ErrMissingField})
	}
	if t.APIKeyRef == "" {
		fields = append(fields, &FieldError{Path: path + ".api_key_ref", Err: ErrMissingField})
	}
	if t.TimeoutMs <= 0 {
		fields = append(fields, &FieldError{Path: path + ".timeout_ms", Err: fmt.Errorf("%w: must be > 0", ErrOutOfRange)})
	}
	if t.MaxRetries < 0 {
		fields = append(fields, &FieldError{Path: path + ".max_retries", Err: fmt.Errorf("%w: must be >= 0", ErrOutOfRange)})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Component: "provider_target", Fields: fields}
}

// ValidateTestCase checks a TestCase against §3's field contract.
func ValidateTestCase(path string, tc TestCase) *ValidationError {
	var fields []*FieldError
	if tc.TestID == "" {
		fields = append(fields, &FieldError{Path: path + ".test_id", Err: ErrMissingField})
	}
	if tc.Prompt == "" {
		fields = append(fields, &FieldError{Path: path + ".prompt", Err: ErrMissingField})
	}
	if tc.MaxTokens < 0 {
		fields = append(fields, &FieldError{Path: path + ".max_tokens", Err: fmt.Errorf("%w: must be > 0 when set", ErrOutOfRange)})
	}
	if tc.Temperature < 0 || tc.Temperature > 2 {
		fields = append(fields, &FieldError{Path: path + ".temperature", Err: fmt.Errorf("%w: must be in [0,2]", ErrOutOfRange)})
	}
	if tc.TopP < 0 || tc.TopP > 1 {
		fields = append(fields, &FieldError{Path: path + ".top_p", Err: fmt.Errorf("%w: must be in [0,1]", ErrOutOfRange)})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Component: "test_case", Fields: fields}
}

var validPriorityOrders = map[PriorityOrder]bool{
	ByTargetThenTest: true,
	ByTestThenTarget: true,
	Interleaved:      true,
	"":               true, // defaults to by_target_then_test
}

// ValidateExecutionConfig checks ExecutionConfig's recognized-options
// bounds. It does not detect unknown keys: by the time a config reaches
// it, decoding has already dropped any key that no field names.
func ValidateExecutionConfig(cfg ExecutionConfig) *ValidationError {
	var fields []*FieldError
	if cfg.Concurrency < 1 {
		fields = append(fields, &FieldError{Path: "config.concurrency", Err: fmt.Errorf("%w: must be >= 1", ErrOutOfRange)})
	}
	if cfg.WarmUpRuns < 0 {
		fields = append(fields, &FieldError{Path: "config.warm_up_runs", Err: fmt.Errorf("%w: must be >= 0", ErrOutOfRange)})
	}
	if cfg.IterationsPerTest < 1 {
		fields = append(fields, &FieldError{Path: "config.iterations_per_test", Err: fmt.Errorf("%w: must be >= 1", ErrOutOfRange)})
	}
	if cfg.MaxTotalCostUSD != nil && *cfg.MaxTotalCostUSD < 0 {
		fields = append(fields, &FieldError{Path: "config.max_total_cost_usd", Err: fmt.Errorf("%w: must be >= 0", ErrOutOfRange)})
	}
	if cfg.MaxTotalRequests != nil && *cfg.MaxTotalRequests < 1 {
		fields = append(fields, &FieldError{Path: "config.max_total_requests", Err: fmt.Errorf("%w: must be >= 1", ErrOutOfRange)})
	}
	if cfg.MaxDurationMs != nil && *cfg.MaxDurationMs < 1 {
		fields = append(fields, &FieldError{Path: "config.max_duration_ms", Err: fmt.Errorf("%w: must be >= 1", ErrOutOfRange)})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Component: "execution_config", Fields: fields}
}

// ValidateJobPlan validates a complete JobPlan: at least one target, at
// least one test, a valid priority order, and every target/test
// individually.
func ValidateJobPlan(plan JobPlan) *ValidationError {
	var fields []*FieldError

	if len(plan.Targets) == 0 {
		fields = append(fields, &FieldError{Path: "targets", Err: fmt.Errorf("%w: must contain at least one target", ErrMissingField)})
	}
	if len(plan.Tests) == 0 {
		fields = append(fields, &FieldError{Path: "tests", Err: fmt.Errorf("%w: must contain at least one test", ErrMissingField)})
	}
	if !validPriorityOrders[plan.PriorityOrder] {
		fields = append(fields, &FieldError{Path: "priority_order", Err: fmt.Errorf("%w: %q", ErrOutOfRange, plan.PriorityOrder)})
	}

	for i, t := range plan.Targets {
		if verr := ValidateProviderTarget(fmt.Sprintf("targets[%d]", i), t); verr != nil {
			fields = append(fields, verr.Fields...)
		}
	}
	for i, tc := range plan.Tests {
		if verr := ValidateTestCase(fmt.Sprintf("tests[%d]", i), tc); verr != nil {
			fields = append(fields, verr.Fields...)
		}
	}
	if verr := ValidateExecutionConfig(plan.Config); verr != nil {
		fields = append(fields, verr.Fields...)
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Component: "job_plan", Fields: fields}
}
