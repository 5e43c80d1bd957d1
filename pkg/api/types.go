package api

import "time"

// AgentInvokeResponse is the POST /api/v1/agents/:agentId success body:
// the agent's typed output plus the decision_id(s) the gateway now owns.
// DecisionID is the first (and almost always only) record produced;
// DecisionIDs carries the full list for benchmark, which emits one
// record per target group (provider/model).
type AgentInvokeResponse struct {
	DecisionID  string   `json:"decision_id"`
	DecisionIDs []string `json:"decision_ids,omitempty"`
	Output      any      `json:"output"`
}

// AgentDescriptor is one entry in the GET /api/v1/agents listing.
type AgentDescriptor struct {
	AgentID      string `json:"agent_id"`
	AgentVersion string `json:"agent_version"`
	DecisionType string `json:"decision_type"`
}

// ListAgentsResponse is the GET /api/v1/agents body.
type ListAgentsResponse struct {
	Agents []AgentDescriptor `json:"agents"`
}

// HealthResponse is the GET /health body: liveness only, never touches
// the gateway or a provider.
type HealthResponse struct {
	Status       string    `json:"status"`
	AgentName    string    `json:"agent_name"`
	AgentVersion string    `json:"agent_version"`
	StartedAt    time.Time `json:"started_at"`
}

// ReadyResponse is the GET /ready body: readiness, gated on a fresh
// decision-gateway liveness probe run for each request (bounded to 3s),
// plus the count of decisions still buffered.
type ReadyResponse struct {
	Status        string `json:"status"`
	GatewayLive   bool   `json:"gateway_live"`
	BufferedCount int    `json:"buffered_decisions"`
}
