package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanNotifier implements pkg/decision.Notifier by recording the
// decision_emitted and persistence_drop events (§4.G, §6) as span events
// on whatever span is active on ctx. decision imports only the Notifier
// interface, never this package, so there is no import cycle between
// pkg/decision and pkg/telemetry.
type SpanNotifier struct{}

// EmitDecisionEmitted records a decision_emitted event on ctx's span.
func (SpanNotifier) EmitDecisionEmitted(ctx context.Context, decisionID, agentID string, confidence float64) {
	trace.SpanFromContext(ctx).AddEvent("decision_emitted", trace.WithAttributes(
		attribute.String("decision_id", decisionID),
		attribute.String("agent_id", agentID),
		attribute.Float64("confidence", confidence),
	))
}

// EmitPersistenceDrop records a persistence_drop event on ctx's span.
func (SpanNotifier) EmitPersistenceDrop(ctx context.Context, decisionID, agentID string) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("persistence_drop", trace.WithAttributes(
		attribute.String("decision_id", decisionID),
		attribute.String("agent_id", agentID),
	))
	span.SetStatus(codes.Error, "decision record dropped by bounded buffer")
}
