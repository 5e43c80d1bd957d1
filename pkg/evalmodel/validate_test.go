package evalmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTarget() ProviderTarget {
	return ProviderTarget{
		ProviderName: ProviderOpenAI,
		ModelID:      "gpt-4o",
		APIKeyRef:    "ref:openai",
		TimeoutMs:    30000,
		MaxRetries:   2,
	}
}

func validTest() TestCase {
	return TestCase{TestID: "t1", Prompt: "hello"}
}

func TestValidateProviderTarget_Valid(t *testing.T) {
	assert.Nil(t, ValidateProviderTarget("targets[0]", validTarget()))
}

func TestValidateProviderTarget_ReportsFieldPaths(t *testing.T) {
	target := ProviderTarget{ProviderName: "not-a-provider", TimeoutMs: 0, MaxRetries: -1}
	verr := ValidateProviderTarget("targets[0]", target)
	require.NotNil(t, verr)

	paths := make(map[string]bool)
	for _, f := range verr.Fields {
		paths[f.Path] = true
	}
	assert.True(t, paths["targets[0].provider_name"])
	assert.True(t, paths["targets[0].model_id"])
	assert.True(t, paths["targets[0].api_key_ref"])
	assert.True(t, paths["targets[0].timeout_ms"])
	assert.True(t, paths["targets[0].max_retries"])
}

func TestValidateTestCase_Valid(t *testing.T) {
	assert.Nil(t, ValidateTestCase("tests[0]", validTest()))
}

func TestValidateTestCase_TemperatureOutOfRange(t *testing.T) {
	tc := TestCase{TestID: "t1", Prompt: "hi", Temperature: 2.5}
	verr := ValidateTestCase("tests[0]", tc)
	require.NotNil(t, verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "tests[0].temperature", verr.Fields[0].Path)
}

func TestValidateTestCase_TopPOutOfRange(t *testing.T) {
	tc := TestCase{TestID: "t1", Prompt: "hi", TopP: 1.5}
	verr := ValidateTestCase("tests[0]", tc)
	require.NotNil(t, verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "tests[0].top_p", verr.Fields[0].Path)
}

func TestValidateExecutionConfig_Defaults(t *testing.T) {
	assert.Nil(t, ValidateExecutionConfig(DefaultExecutionConfig()))
}

func TestValidateExecutionConfig_NegativeMaxTotalCost(t *testing.T) {
	cost := -1.0
	cfg := DefaultExecutionConfig()
	cfg.MaxTotalCostUSD = &cost
	verr := ValidateExecutionConfig(cfg)
	require.NotNil(t, verr)
	assert.Equal(t, "config.max_total_cost_usd", verr.Fields[0].Path)
}

func TestValidateJobPlan_EmptyTargetsAndTests(t *testing.T) {
	plan := JobPlan{Config: DefaultExecutionConfig()}
	verr := ValidateJobPlan(plan)
	require.NotNil(t, verr)

	paths := make(map[string]bool)
	for _, f := range verr.Fields {
		paths[f.Path] = true
	}
	assert.True(t, paths["targets"])
	assert.True(t, paths["tests"])
}

func TestValidateJobPlan_Valid(t *testing.T) {
	plan := JobPlan{
		Targets:       []ProviderTarget{validTarget()},
		Tests:         []TestCase{validTest()},
		Config:        DefaultExecutionConfig(),
		PriorityOrder: ByTargetThenTest,
	}
	assert.Nil(t, ValidateJobPlan(plan))
}

func TestValidateJobPlan_InvalidPriorityOrder(t *testing.T) {
	plan := JobPlan{
		Targets:       []ProviderTarget{validTarget()},
		Tests:         []TestCase{validTest()},
		Config:        DefaultExecutionConfig(),
		PriorityOrder: "not-a-real-order",
	}
	verr := ValidateJobPlan(plan)
	require.NotNil(t, verr)

	found := false
	for _, f := range verr.Fields {
		if f.Path == "priority_order" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateJobPlan_PropagatesNestedFieldPaths(t *testing.T) {
	plan := JobPlan{
		Targets: []ProviderTarget{validTarget(), {ProviderName: "bogus"}},
		Tests:   []TestCase{validTest()},
		Config:  DefaultExecutionConfig(),
	}
	verr := ValidateJobPlan(plan)
	require.NotNil(t, verr)

	found := false
	for _, f := range verr.Fields {
		if f.Path == "targets[1].provider_name" {
			found = true
		}
	}
	assert.True(t, found)
}
