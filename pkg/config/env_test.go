package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAllStartupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RUVECTOR_SERVICE_URL", "https://ruvector.internal")
	t.Setenv("RUVECTOR_API_KEY", "key-123")
	t.Setenv("AGENT_NAME", "evalharness")
	t.Setenv("AGENT_DOMAIN", "llm-evaluation")
	t.Setenv("AGENT_PHASE", "phase1")
	t.Setenv("AGENT_LAYER", "layer1")
}

func TestLoadStartupEnv_Succeeds(t *testing.T) {
	setAllStartupEnv(t)
	env, err := LoadStartupEnv()
	require.NoError(t, err)
	assert.Equal(t, "evalharness", env.AgentName)
}

func TestLoadStartupEnv_MissingVariableFails(t *testing.T) {
	setAllStartupEnv(t)
	t.Setenv("RUVECTOR_API_KEY", "")
	_, err := LoadStartupEnv()
	assert.True(t, errors.Is(err, ErrMissingEnv))
}

func TestLoadStartupEnv_WrongPhaseFails(t *testing.T) {
	setAllStartupEnv(t)
	t.Setenv("AGENT_PHASE", "phase2")
	_, err := LoadStartupEnv()
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestLoadStartupEnv_WrongLayerFails(t *testing.T) {
	setAllStartupEnv(t)
	t.Setenv("AGENT_LAYER", "layer2")
	_, err := LoadStartupEnv()
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
