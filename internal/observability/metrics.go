// Package observability records pipeline metrics and traces with
// OpenTelemetry.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const instrumentationName = "flight-assistant"

// MetricsRecorder records pipeline metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStage records one stage execution and the signal it emitted.
	RecordStage(ctx context.Context, stage models.Stage, signal string, duration time.Duration)

	// RecordFallback records a degraded path, such as the ranking fallback.
	RecordFallback(ctx context.Context, stage models.Stage, reason string)

	// RecordOutcome records how a session ended.
	RecordOutcome(ctx context.Context, outcome models.Outcome, rounds int)
}

type otelMetrics struct {
	stageExecutions metric.Int64Counter
	stageLatency    metric.Float64Histogram
	fallbacks       metric.Int64Counter
	outcomes        metric.Int64Counter
	rounds          metric.Int64Histogram
}

// NewMetricsRecorder creates OTel instruments on the given provider
func NewMetricsRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	meter := mp.Meter(instrumentationName)

	stageExecutions, err := meter.Int64Counter("assistant.stage.executions",
		metric.WithDescription("Number of pipeline stage executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage counter: %w", err)
	}

	stageLatency, err := meter.Float64Histogram("assistant.stage.latency_ms",
		metric.WithDescription("Pipeline stage latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage histogram: %w", err)
	}

	fallbacks, err := meter.Int64Counter("assistant.fallbacks",
		metric.WithDescription("Number of degraded stage results"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}

	outcomes, err := meter.Int64Counter("assistant.session.outcomes",
		metric.WithDescription("Number of finished sessions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outcome counter: %w", err)
	}

	rounds, err := meter.Int64Histogram("assistant.session.rounds",
		metric.WithDescription("Search rounds per finished session"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rounds histogram: %w", err)
	}

	return &otelMetrics{
		stageExecutions: stageExecutions,
		stageLatency:    stageLatency,
		fallbacks:       fallbacks,
		outcomes:        outcomes,
		rounds:          rounds,
	}, nil
}

func (m *otelMetrics) RecordStage(ctx context.Context, stage models.Stage, signal string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("signal", signal),
	)
	m.stageExecutions.Add(ctx, 1, attrs)
	m.stageLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordFallback(ctx context.Context, stage models.Stage, reason string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("reason", reason),
	))
}

func (m *otelMetrics) RecordOutcome(ctx context.Context, outcome models.Outcome, rounds int) {
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.outcomes.Add(ctx, 1, attrs)
	m.rounds.Record(ctx, int64(rounds), attrs)
}
