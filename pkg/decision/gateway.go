// Package decision implements the decision pipeline (spec §4.G): building
// an append-only DecisionRecord, emitting a telemetry event, and handing
// the record to the durable-store gateway via a bounded write-behind
// queue. Grounded on the teacher's pkg/events (typed publish methods,
// persist-then-notify ordering) with the Postgres/pg_notify transport
// replaced by an HTTP client against the external gateway named in §6,
// since the core persists nothing locally.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// Gateway is the HTTP client for the durable-store gateway described in
// §6: decisions and telemetry events are appended there; the core keeps
// no local persistence.
type Gateway struct {
	BaseURL     string
	BearerToken string
	APIKey      string
	HTTPClient  *http.Client
}

// NewGateway builds a Gateway with a sane default per-request timeout.
func NewGateway(baseURL, bearerToken, apiKey string) *Gateway {
	return &Gateway{
		BaseURL:     baseURL,
		BearerToken: bearerToken,
		APIKey:      apiKey,
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

// TelemetryEvent is the minimal shape posted to /api/v1/telemetry (§6):
// decision_emitted and persistence_drop events from the pipeline.
type TelemetryEvent struct {
	EventType  string         `json:"event_type"`
	DecisionID string         `json:"decision_id,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PostDecision appends a DecisionRecord. The gateway is idempotent on
// decision_id (its responsibility, per §6), so retrying a timed-out
// attempt is always safe.
func (g *Gateway) PostDecision(ctx context.Context, record evalmodel.DecisionRecord) error {
	return g.post(ctx, "/api/v1/decisions", record)
}

// PostTelemetry appends one telemetry event.
func (g *Gateway) PostTelemetry(ctx context.Context, event TelemetryEvent) error {
	return g.post(ctx, "/api/v1/telemetry", event)
}

func (g *Gateway) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.BearerToken)
	}
	if g.APIKey != "" {
		req.Header.Set("X-API-Key", g.APIKey)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, path)
	}
	return nil
}

// Probe performs the mandatory startup liveness check against the
// gateway's /health endpoint with a 5s deadline (§6). A non-2xx response
// or transport error means the caller should abort process start.
func (g *Gateway) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway liveness probe failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway liveness probe returned status %d", resp.StatusCode)
	}
	return nil
}
