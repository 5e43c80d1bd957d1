package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalforge/evalharness/pkg/decision"
)

// fakeGateway spins up an httptest backend that accepts every gateway
// call (health probe, decision post, telemetry post) with 200 OK, so
// tests exercise the real decision.Gateway/Pipeline wiring without
// reaching an external service.
func fakeGateway(t *testing.T) *decision.Gateway {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)
	return decision.NewGateway(backend.URL, "", "")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gw := fakeGateway(t)
	pipeline := decision.NewPipeline(gw, nil, 16)
	t.Cleanup(func() { pipeline.Shutdown(t.Context()) })
	registry := NewAgentRegistry(nil)
	return NewServer("evalharness-test", registry, pipeline, gw)
}

func TestInvokeAgentHandler_ConsistencySuccess(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"Groups": [{"GroupID": "g1", "Outputs": ["hello world", "hello world", "hello world"]}],
		"Method": "jaccard",
		"Threshold": 0.5
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/output-consistency", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Decision-Id"))
	assert.Equal(t, "evalharness-test", rec.Header().Get("X-Agent-Id"))
	assert.Equal(t, agentVersion, rec.Header().Get("X-Agent-Version"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var resp AgentInvokeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.DecisionID)
	assert.Empty(t, resp.DecisionIDs)
}

func TestInvokeAgentHandler_UnknownAgentReturns404(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/not-a-real-agent", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var boundaryErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &boundaryErr))
	assert.Equal(t, "VALIDATION_ERROR", boundaryErr.Code)
}

func TestInvokeAgentHandler_MalformedJSONReturns400(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/output-consistency", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAgentsHandler_ReturnsAllThirteen(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListAgentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Agents, 13)
}

func TestHealthHandler_LivenessOnly(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "evalharness-test", resp.AgentName)
	assert.WithinDuration(t, time.Now(), resp.StartedAt, time.Minute)
}

func TestReadyHandler_GatewayLive(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.True(t, resp.GatewayLive)
}

func TestReadyHandler_GatewayDownReturns503(t *testing.T) {
	gw := decision.NewGateway("http://127.0.0.1:1", "", "")
	pipeline := decision.NewPipeline(gw, nil, 16)
	t.Cleanup(func() { pipeline.Shutdown(t.Context()) })
	s := NewServer("evalharness-test", NewAgentRegistry(nil), pipeline, gw)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.GatewayLive)
}
