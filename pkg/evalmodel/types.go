// Package evalmodel defines the data model shared by the executor,
// statistics/similarity kernels, evaluation agents, and decision pipeline:
// ProviderTarget, TestCase, ExecutionConfig, CallOutcome, JobPlan,
// JobReport, AggregatedStats, and DecisionRecord.
package evalmodel

import "time"

// ProviderName identifies a backend vendor dialect.
type ProviderName string

const (
	ProviderOpenAI      ProviderName = "openai"
	ProviderAnthropic   ProviderName = "anthropic"
	ProviderGoogle      ProviderName = "google"
	ProviderMistral     ProviderName = "mistral"
	ProviderGroq        ProviderName = "groq"
	ProviderTogether    ProviderName = "together"
	ProviderPerplexity  ProviderName = "perplexity"
	ProviderAzure       ProviderName = "azure"
	ProviderCustomKind  ProviderName = "custom"
)

// ProviderTarget selects one backend. Immutable once constructed.
type ProviderTarget struct {
	ProviderName ProviderName `json:"provider_name"`
	ModelID      string       `json:"model_id"`
	BaseURL      string       `json:"base_url,omitempty"`
	// APIKeyRef is an opaque handle resolved externally (pkg/provider/secret.go)
	// — never the key itself.
	APIKeyRef  string `json:"api_key_ref"`
	TimeoutMs  int    `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
}

// Ref returns the group key used to aggregate outcomes and to look up
// pricing: "(provider_name, model_id)".
func (t ProviderTarget) Ref() string {
	return string(t.ProviderName) + "/" + t.ModelID
}

// TestCase is one prompt specification. Immutable once constructed.
type TestCase struct {
	TestID         string   `json:"test_id"`
	Prompt         string   `json:"prompt"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	TopP           float64  `json:"top_p,omitempty"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

// PriorityOrder controls the order in which (target, test) pairs are
// drained from the executor's work queue.
type PriorityOrder string

const (
	ByTargetThenTest PriorityOrder = "by_target_then_test"
	ByTestThenTarget PriorityOrder = "by_test_then_target"
	Interleaved      PriorityOrder = "interleaved"
)

// ExecutionConfig is the recognized, enumerated set of job options.
// Unknown keys are not rejected: callers decode with json.Unmarshal (or
// YAML), which drops keys that no field names, and validate.go checks
// only the bounds of the fields below.
type ExecutionConfig struct {
	Concurrency       int  `json:"concurrency"`
	WarmUpRuns        int  `json:"warm_up_runs"`
	IterationsPerTest int  `json:"iterations_per_test"`
	SaveResponses     bool `json:"save_responses"`
	FailFast          bool `json:"fail_fast"`

	MaxDurationMs    *int64   `json:"max_duration_ms,omitempty"`
	MaxTotalCostUSD  *float64 `json:"max_total_cost_usd,omitempty"`
	MaxTotalRequests *int     `json:"max_total_requests,omitempty"`
	RequestDelayMs   *int     `json:"request_delay_ms,omitempty"`
}

// DefaultExecutionConfig returns the spec-mandated zero-value defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Concurrency:       1,
		WarmUpRuns:        0,
		IterationsPerTest: 1,
		SaveResponses:     true,
		FailFast:          false,
	}
}

// FinishReason is the vendor-normalized completion reason.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishError         FinishReason = "error"
)

// ErrorKind is the normalized per-call failure classification.
type ErrorKind string

const (
	ErrTimeout            ErrorKind = "timeout"
	ErrRateLimited        ErrorKind = "rate_limited"
	ErrContextExceeded    ErrorKind = "context_exceeded"
	ErrInvalidResponse    ErrorKind = "invalid_response"
	ErrServerError        ErrorKind = "server_error"
	ErrConnectionError    ErrorKind = "connection_error"
	ErrAuthenticationErr  ErrorKind = "authentication_error"
	ErrContentFiltered    ErrorKind = "content_filtered"
	ErrUnknown            ErrorKind = "unknown"
)

// Retryable reports whether the executor should retry an outcome carrying
// this error kind, per §4.E's retry policy.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrTimeout, ErrRateLimited, ErrServerError, ErrConnectionError:
		return true
	default:
		return false
	}
}

// CallOutcome is the immutable result of one (target, test, iteration)
// invocation.
type CallOutcome struct {
	TargetRef string `json:"target_ref"`
	TestRef   string `json:"test_ref"`
	Iteration int    `json:"iteration"`
	Success   bool   `json:"success"`

	// Content is present iff SaveResponses && Success.
	Content string `json:"content,omitempty"`

	FinishReason FinishReason `json:"finish_reason,omitempty"`

	LatencyMs       int64    `json:"latency_ms"`
	TTFTMs          *int64   `json:"ttft_ms,omitempty"`
	TokensPerSecond *float64 `json:"tokens_per_second,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`

	InputCostUSD  float64 `json:"input_cost_usd"`
	OutputCostUSD float64 `json:"output_cost_usd"`

	// ErrorKind and ErrorMessage are present iff !Success.
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// RetryAfterMs carries a rate_limited response's Retry-After hint, if
	// the provider sent one; the executor sleeps at least this long before
	// the next retry attempt (§4.E).
	RetryAfterMs *int64 `json:"retry_after_ms,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// LowConfidence marks an estimated (not vendor-reported) token count or
	// an unpriced model, surfaced by the decision pipeline as
	// low_confidence_result.
	LowConfidence bool `json:"-"`
}

// TotalCostUSD is the per-outcome cost, accrued even on failure when a
// prompt was already billed.
func (o CallOutcome) TotalCostUSD() float64 {
	return o.InputCostUSD + o.OutputCostUSD
}

// JobPlan is the executor's complete input.
type JobPlan struct {
	Targets       []ProviderTarget `json:"targets"`
	Tests         []TestCase       `json:"tests"`
	Config        ExecutionConfig  `json:"config"`
	PriorityOrder PriorityOrder    `json:"priority_order"`
	CorrelationID string           `json:"correlation_id"`
}

// AggregatedStats summarizes one (provider_name, model_id) group.
type AggregatedStats struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`

	P50Ms   float64 `json:"p50"`
	P95Ms   float64 `json:"p95"`
	P99Ms   float64 `json:"p99"`
	MeanMs  float64 `json:"mean"`
	MinMs   float64 `json:"min"`
	MaxMs   float64 `json:"max"`
	StddevMs float64 `json:"stddev"`

	TotalTokens         int64   `json:"total_tokens"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	TotalCostUSD        float64 `json:"total_cost_usd"`
	AvgCostPerRequestUSD float64 `json:"avg_cost_per_request_usd"`
	AvgTokensPerSecond  float64 `json:"avg_tokens_per_second"`
}

// JobReport is the executor's complete output: every outcome plus
// per-group aggregated stats, derived entirely from the outcomes.
type JobReport struct {
	CorrelationID      string                     `json:"correlation_id"`
	Outcomes           []CallOutcome              `json:"outcomes"`
	Groups             map[string]AggregatedStats `json:"groups"`
	ConstraintsApplied []ConstraintApplied        `json:"constraints_applied"`
}

// ConstraintApplied is one member of a DecisionRecord's constraints_applied
// enum set.
type ConstraintApplied string

const (
	ConstraintMaxDurationExceeded ConstraintApplied = "max_duration_exceeded"
	ConstraintMaxCostExceeded     ConstraintApplied = "max_cost_exceeded"
	ConstraintRateLimitApplied    ConstraintApplied = "rate_limit_applied"
	ConstraintFailFastTriggered   ConstraintApplied = "fail_fast_triggered"
	ConstraintWarmUpSkipped       ConstraintApplied = "warm_up_skipped"
	ConstraintConcurrencyLimited  ConstraintApplied = "concurrency_limited"
	ConstraintProviderUnavailable ConstraintApplied = "provider_unavailable"
	ConstraintMaxSamplesExceeded  ConstraintApplied = "max_samples_exceeded"
	ConstraintTimeoutExceeded     ConstraintApplied = "timeout_exceeded"
	ConstraintSampleMismatch      ConstraintApplied = "sample_mismatch"
	ConstraintLowConfidenceResult ConstraintApplied = "low_confidence_result"
	ConstraintMaxTotalRequestsExceeded ConstraintApplied = "max_total_requests_exceeded"
)

// ConfidenceFactor is one weighted component of a decision's confidence
// score. Sum of weights across a record must be <= 1.
type ConfidenceFactor struct {
	Factor string  `json:"factor"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// ExecutionRef links a DecisionRecord to its originating trace.
type ExecutionRef struct {
	ExecutionID   string `json:"execution_id"`
	TraceID       string `json:"trace_id,omitempty"`
	SpanID        string `json:"span_id,omitempty"`
	ParentSpanID  string `json:"parent_span_id,omitempty"`
}

// DecisionRecord is the append-only audit event emitted once per agent
// invocation. Never mutated after emission.
type DecisionRecord struct {
	AgentID            string              `json:"agent_id"`
	AgentVersion       string              `json:"agent_version"`
	DecisionType       string              `json:"decision_type"`
	DecisionID         string              `json:"decision_id"`
	InputsHash         string              `json:"inputs_hash"`
	InputsSummary      map[string]any      `json:"inputs_summary"`
	Outputs            any                 `json:"outputs"`
	Confidence         float64             `json:"confidence"`
	ConfidenceFactors  []ConfidenceFactor  `json:"confidence_factors"`
	ConstraintsApplied []ConstraintApplied `json:"constraints_applied"`
	ExecutionRef       ExecutionRef        `json:"execution_ref"`
	Timestamp          time.Time           `json:"timestamp"`
	DurationMs         int64               `json:"duration_ms"`
}
