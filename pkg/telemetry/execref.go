package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// StartJobSpan starts the top-level span for one executor run, tagged
// with the JobPlan's correlation_id so every decision record emitted
// underneath it — one per agent invocation — shares a trace with the job
// that produced it. Callers must invoke the returned end func once the
// job finishes.
func StartJobSpan(ctx context.Context, tracer trace.Tracer, correlationID string) (context.Context, func()) {
	ctx, span := tracer.Start(ctx, "evalharness.job",
		trace.WithAttributes(attribute.String("correlation_id", correlationID)),
	)
	return ctx, func() { span.End() }
}

// StartAgentSpan starts a child span for one agent's Execute call and
// derives the ExecutionRef that call's DecisionRecord should carry: the
// new span's own (trace_id, span_id) plus the parent_span_id of whatever
// span was active on ctx (StartJobSpan's span, in the normal path).
// Callers must invoke the returned end func when Execute returns.
func StartAgentSpan(ctx context.Context, tracer trace.Tracer, agentID, executionID string) (context.Context, evalmodel.ExecutionRef, func()) {
	parentSC := trace.SpanContextFromContext(ctx)

	ctx, span := tracer.Start(ctx, "evalharness.agent."+agentID,
		trace.WithAttributes(attribute.String("agent_id", agentID)),
	)
	sc := span.SpanContext()

	ref := evalmodel.ExecutionRef{ExecutionID: executionID}
	if sc.HasTraceID() {
		ref.TraceID = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		ref.SpanID = sc.SpanID().String()
	}
	if parentSC.HasSpanID() {
		ref.ParentSpanID = parentSC.SpanID().String()
	}

	return ctx, ref, func() { span.End() }
}
