package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRoundSpan starts a span covering one search round of a session.
	StartRoundSpan(ctx context.Context, sessionID string, round int) (context.Context, trace.Span)

	// StartStageSpan starts a child span for a single stage.
	StartStageSpan(ctx context.Context, stage models.Stage) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by the given provider
func NewSpanManager(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: tp.Tracer(instrumentationName)}
}

func (m *otelSpanManager) StartRoundSpan(ctx context.Context, sessionID string, round int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "assistant.round",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("round", round),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage models.Stage) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "assistant.stage."+string(stage),
		trace.WithAttributes(attribute.String("stage", string(stage))),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	endSpan(span, err)
}

func endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
