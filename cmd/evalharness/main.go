// evalharness is the agent process: it exposes the thirteen evaluation
// agents (§4.F) over HTTP (§6), executes benchmark/stress-test job plans
// against real provider backends, and write-behinds every DecisionRecord
// to the durable-store gateway.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/evalforge/evalharness/pkg/api"
	"github.com/evalforge/evalharness/pkg/catalog"
	"github.com/evalforge/evalharness/pkg/config"
	"github.com/evalforge/evalharness/pkg/decision"
	"github.com/evalforge/evalharness/pkg/provider"
	"github.com/evalforge/evalharness/pkg/telemetry"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	env := config.MustLoadStartupEnv()
	slog.Info("startup environment validated", "agent_name", env.AgentName, "agent_domain", env.AgentDomain)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := decision.NewGateway(env.RuvectorServiceURL, "", env.RuvectorAPIKey)
	if err := gateway.Probe(ctx); err != nil {
		slog.Error("agent_abort", "reason", "gateway liveness probe failed: "+err.Error())
		os.Exit(1)
	}
	slog.Info("gateway liveness probe succeeded", "url", env.RuvectorServiceURL)

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    env.AgentName,
		ServiceVersion: agentBuildVersion,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:       getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
	})
	if err != nil {
		slog.Error("agent_abort", "reason", "telemetry provider init failed: "+err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := tp.ShutdownWithDefaultTimeout(context.Background()); err != nil {
			slog.Warn("telemetry provider shutdown error", "error", err)
		}
	}()

	cat, err := catalog.Load(os.Getenv("CATALOG_OVERLAY_PATH"))
	if err != nil {
		slog.Error("agent_abort", "reason", "catalog load failed: "+err.Error())
		os.Exit(1)
	}
	slog.Info("pricing catalog loaded", "entries", cat.Len())

	invoker := provider.NewInvoker(&http.Client{}, cat)

	bufferCapacity := 1024
	if v := os.Getenv("DECISION_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			bufferCapacity = n
		}
	}
	pipeline := decision.NewPipeline(gateway, telemetry.SpanNotifier{}, bufferCapacity)

	registry := api.NewAgentRegistry(invoker)
	server := api.NewServer(env.AgentName, registry, pipeline, gateway)

	httpPort := getEnv("HTTP_PORT", "8080")
	errCh := make(chan error, 1)
	go func() {
		slog.Info("agent HTTP server listening", "port", httpPort)
		if err := server.Start(":" + httpPort); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("agent HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown error", "error", err)
	}
	pipeline.Shutdown(shutdownCtx)
	slog.Info("agent shutdown complete")
}

// agentBuildVersion is stamped onto the telemetry resource's
// service.version attribute. Bumped alongside a release.
const agentBuildVersion = "1.0.0"
