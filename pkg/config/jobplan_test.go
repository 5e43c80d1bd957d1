package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJobPlan(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJobPlan_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY_REF", "vault://openai-key")
	path := writeTempJobPlan(t, `
targets:
  - provider_name: openai
    model_id: gpt-4o
    api_key_ref: "${TEST_API_KEY_REF}"
    timeout_ms: 30000
    max_retries: 2
tests:
  - test_id: t1
    prompt: "hello"
correlation_id: corr-1
`)

	plan, err := LoadJobPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "vault://openai-key", plan.Targets[0].APIKeyRef)
	assert.Equal(t, 1, plan.Config.Concurrency)
	assert.True(t, plan.Config.SaveResponses)
	assert.Equal(t, "corr-1", plan.CorrelationID)
}

func TestLoadJobPlan_PartialConfigOverlayPreservesOtherDefaults(t *testing.T) {
	path := writeTempJobPlan(t, `
targets:
  - provider_name: openai
    model_id: gpt-4o
    api_key_ref: "ref-1"
    timeout_ms: 30000
tests:
  - test_id: t1
    prompt: "hello"
config:
  concurrency: 8
  save_responses: false
`)

	plan, err := LoadJobPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 8, plan.Config.Concurrency)
	assert.False(t, plan.Config.SaveResponses)
	assert.Equal(t, 1, plan.Config.IterationsPerTest, "unset field should keep default")
}

func TestLoadJobPlan_MissingFileReturnsConfigNotFound(t *testing.T) {
	_, err := LoadJobPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoadJobPlan_InvalidTargetFailsValidation(t *testing.T) {
	path := writeTempJobPlan(t, `
targets:
  - provider_name: not-a-real-provider
    model_id: gpt-4o
    api_key_ref: "ref-1"
    timeout_ms: 30000
tests:
  - test_id: t1
    prompt: "hello"
`)

	_, err := LoadJobPlan(path)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
