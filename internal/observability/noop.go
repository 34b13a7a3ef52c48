package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) RecordStage(context.Context, models.Stage, string, time.Duration) {}
func (NoopMetrics) RecordFallback(context.Context, models.Stage, string)             {}
func (NoopMetrics) RecordOutcome(context.Context, models.Outcome, int)               {}

// NoopSpanManager creates non-recording spans
type NoopSpanManager struct{}

var noopTracer = noop.NewTracerProvider().Tracer(instrumentationName)

func (NoopSpanManager) StartRoundSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return noopTracer.Start(ctx, "assistant.round")
}

func (NoopSpanManager) StartStageSpan(ctx context.Context, _ models.Stage) (context.Context, trace.Span) {
	return noopTracer.Start(ctx, "assistant.stage")
}

func (NoopSpanManager) EndSpanWithError(span trace.Span, _ error) {
	if span != nil {
		span.End()
	}
}
