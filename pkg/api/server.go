// Package api implements the HTTP agent surface described in spec §6:
// one process exposing all thirteen evaluation agents behind a uniform
// POST /api/v1/agents/:agentId envelope, plus health/ready/listing
// endpoints. Grounded on the teacher's pkg/api/server.go (Echo v5 server
// struct, setupRoutes, Start/StartWithListener/Shutdown lifecycle), with
// the session/alert domain replaced by agent dispatch.
package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/evalforge/evalharness/pkg/decision"
)

// agentVersion is stamped onto every response and every agent descriptor.
// Bumped alongside a release, not per-agent.
const agentVersion = "1.0.0"

// Server is the HTTP API server exposing the agent surface.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	registry  *AgentRegistry
	pipeline  *decision.Pipeline
	gateway   *decision.Gateway
	agentName string
	startedAt time.Time
}

// NewServer wires the agent registry, decision pipeline, and gateway
// liveness check behind an Echo v5 server and registers all routes.
func NewServer(agentName string, registry *AgentRegistry, pipeline *decision.Pipeline, gateway *decision.Gateway) *Server {
	s := &Server{
		echo:      echo.New(),
		registry:  registry,
		pipeline:  pipeline,
		gateway:   gateway,
		agentName: agentName,
		startedAt: time.Now().UTC(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes (§6).
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())
	s.echo.Use(agentIdentityHeaders(s.agentName, agentVersion))

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/ready", s.readyHandler)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/agents", s.listAgentsHandler)
	v1.POST("/agents/:agentId", s.invokeAgentHandler)
}

// invokeAgentHandler handles POST /api/v1/agents/:agentId: dispatches
// the request body to the named agent, hands every DecisionRecord it
// produced to the pipeline for write-behind persistence, and returns the
// agent's typed output alongside the decision_id(s) the gateway now owns.
func (s *Server) invokeAgentHandler(c *echo.Context) error {
	agentID := c.Param("agentId")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		status, boundaryErr := mapAgentError(err)
		return c.JSON(status, boundaryErr)
	}

	output, records, err := s.registry.Dispatch(c.Request().Context(), agentID, body)
	if err != nil {
		status, boundaryErr := mapAgentError(err)
		return c.JSON(status, boundaryErr)
	}

	for _, record := range records {
		s.pipeline.Emit(c.Request().Context(), record)
	}

	resp := AgentInvokeResponse{Output: output}
	if len(records) > 0 {
		resp.DecisionID = records[0].DecisionID
		setDecisionIDHeader(c, resp.DecisionID)
	}
	if len(records) > 1 {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.DecisionID
		}
		resp.DecisionIDs = ids
	}

	return c.JSON(http.StatusOK, resp)
}

// listAgentsHandler handles GET /api/v1/agents.
func (s *Server) listAgentsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, ListAgentsResponse{Agents: s.registry.List()})
}

// healthHandler handles GET /health: liveness only. Never touches the
// gateway or a provider, so a downstream outage never gets this process
// restarted by an orchestrator.
func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		AgentName:    s.agentName,
		AgentVersion: agentVersion,
		StartedAt:    s.startedAt,
	})
}

// readyHandler handles GET /ready: readiness, gated on the decision
// gateway's liveness (a fresh probe, bounded to 3s so a slow gateway
// doesn't hang the readiness check itself) and how full the write-behind
// buffer is.
func (s *Server) readyHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	gatewayLive := s.gateway.Probe(reqCtx) == nil
	buffered := s.pipeline.BufferLen()

	status := "ready"
	httpStatus := http.StatusOK
	if !gatewayLive {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, ReadyResponse{
		Status:        status,
		GatewayLive:   gatewayLive,
		BufferedCount: buffered,
	})
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
