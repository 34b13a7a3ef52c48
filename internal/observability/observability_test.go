package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	rec, err := NewMetricsRecorder(provider)
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordStage(ctx, models.StageFilter, "ok", 15*time.Millisecond)
	rec.RecordStage(ctx, models.StageRank, "ok", 120*time.Millisecond)
	rec.RecordFallback(ctx, models.StageRank, "oracle_error")
	rec.RecordOutcome(ctx, models.OutcomeBookingConfirmed, 2)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "assistant.stage.executions")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "assistant.fallbacks")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "assistant.session.outcomes")))

	latency := findMetric(rm, "assistant.stage.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
	assert.Equal(t, "ms", latency.Unit)
}

func TestSpanManager(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	spans := NewSpanManager(tp)
	ctx, round := spans.StartRoundSpan(context.Background(), "s-1", 1)
	_, stage := spans.StartStageSpan(ctx, models.StageFetchCandidates)
	spans.EndSpanWithError(stage, errors.New("provider down"))
	spans.EndSpanWithError(round, nil)

	got := exporter.GetSpans()
	require.Len(t, got, 2)

	assert.Equal(t, "assistant.stage.FETCH_CANDIDATES", got[0].Name)
	assert.Equal(t, codes.Error, got[0].Status.Code)
	assert.Equal(t, got[1].SpanContext.SpanID(), got[0].Parent.SpanID())

	assert.Equal(t, "assistant.round", got[1].Name)
	assert.Equal(t, codes.Ok, got[1].Status.Code)
}

func TestNoop(t *testing.T) {
	var rec MetricsRecorder = NoopMetrics{}
	rec.RecordStage(context.Background(), models.StageRank, "ok", time.Second)
	rec.RecordOutcome(context.Background(), models.OutcomeIncomplete, 0)

	var spans SpanManager = NoopSpanManager{}
	ctx, span := spans.StartRoundSpan(context.Background(), "s-1", 1)
	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
	spans.EndSpanWithError(span, errors.New("ignored"))
}
