package config

import (
	"fmt"
	"log/slog"
	"os"
)

// StartupEnv is the process-identity/durable-store configuration read
// once at boot, distinct from job-plan YAML which changes per run.
type StartupEnv struct {
	RuvectorServiceURL string
	RuvectorAPIKey     string
	AgentName          string
	AgentDomain        string
	AgentPhase         string
	AgentLayer         string
}

const (
	requiredAgentPhase = "phase1"
	requiredAgentLayer = "layer1"
)

// LoadStartupEnv reads and validates the six required startup
// variables. A missing or malformed value is a fail-fast condition: the
// caller should abort the process rather than start half-configured,
// mirroring the teacher's `log.Fatalf`-on-bad-bootstrap idiom (promoted
// here to structured slog + os.Exit to keep one logging surface).
func LoadStartupEnv() (StartupEnv, error) {
	env := StartupEnv{
		RuvectorServiceURL: os.Getenv("RUVECTOR_SERVICE_URL"),
		RuvectorAPIKey:     os.Getenv("RUVECTOR_API_KEY"),
		AgentName:          os.Getenv("AGENT_NAME"),
		AgentDomain:        os.Getenv("AGENT_DOMAIN"),
		AgentPhase:         os.Getenv("AGENT_PHASE"),
		AgentLayer:         os.Getenv("AGENT_LAYER"),
	}

	var missing []string
	if env.RuvectorServiceURL == "" {
		missing = append(missing, "RUVECTOR_SERVICE_URL")
	}
	if env.RuvectorAPIKey == "" {
		missing = append(missing, "RUVECTOR_API_KEY")
	}
	if env.AgentName == "" {
		missing = append(missing, "AGENT_NAME")
	}
	if env.AgentDomain == "" {
		missing = append(missing, "AGENT_DOMAIN")
	}
	if env.AgentPhase == "" {
		missing = append(missing, "AGENT_PHASE")
	}
	if env.AgentLayer == "" {
		missing = append(missing, "AGENT_LAYER")
	}
	if len(missing) > 0 {
		return StartupEnv{}, fmt.Errorf("%w: %v", ErrMissingEnv, missing)
	}

	if env.AgentPhase != requiredAgentPhase {
		return StartupEnv{}, fmt.Errorf("%w: AGENT_PHASE must be %q, got %q", ErrInvalidValue, requiredAgentPhase, env.AgentPhase)
	}
	if env.AgentLayer != requiredAgentLayer {
		return StartupEnv{}, fmt.Errorf("%w: AGENT_LAYER must be %q, got %q", ErrInvalidValue, requiredAgentLayer, env.AgentLayer)
	}

	return env, nil
}

// MustLoadStartupEnv is the cmd/evalharness/main.go entry point: load
// the startup environment or abort the process with a structured log
// line, exactly once, before anything else starts.
func MustLoadStartupEnv() StartupEnv {
	env, err := LoadStartupEnv()
	if err != nil {
		slog.Error("agent_abort", "reason", err.Error())
		os.Exit(1)
	}
	return env
}
