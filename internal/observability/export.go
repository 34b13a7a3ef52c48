package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// loggingSpanProcessor writes every finished span to a slog logger
type loggingSpanProcessor struct {
	logger *slog.Logger
}

// NewLoggingSpanProcessor returns a span processor that logs finished
// spans at debug level, or at warn when the span recorded an error
func NewLoggingSpanProcessor(logger *slog.Logger) sdktrace.SpanProcessor {
	return &loggingSpanProcessor{logger: logger}
}

func (p *loggingSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *loggingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := []any{
		"span", s.Name(),
		"trace_id", s.SpanContext().TraceID().String(),
		"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
	}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}
	if s.Status().Code == codes.Error {
		p.logger.Warn("Span failed", append(args, "error", s.Status().Description)...)
		return
	}
	p.logger.Debug("Span finished", args...)
}

func (p *loggingSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *loggingSpanProcessor) ForceFlush(context.Context) error { return nil }

// Providers bundles an in-process meter and tracer provider
type Providers struct {
	reader *sdkmetric.ManualReader
	Meter  *sdkmetric.MeterProvider
	Tracer *sdktrace.TracerProvider
}

// NewProviders builds SDK providers whose metrics are read on demand
// through Snapshot and whose spans are logged
func NewProviders(logger *slog.Logger) *Providers {
	reader := sdkmetric.NewManualReader()
	return &Providers{
		reader: reader,
		Meter:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Tracer: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLoggingSpanProcessor(logger))),
	}
}

// Series is one counter or histogram stream in a snapshot
type Series struct {
	Name       string
	Attributes string
	Count      uint64
	Sum        float64
}

// Snapshot collects the current metric values
func (p *Providers) Snapshot(ctx context.Context) ([]Series, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}
	return Summarize(rm), nil
}

// Shutdown flushes and stops both providers
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.Tracer.Shutdown(ctx), p.Meter.Shutdown(ctx))
}

// Summarize flattens collected metrics into sorted series. Counters
// report their value as Count; histograms report Count and Sum.
func Summarize(rm metricdata.ResourceMetrics) []Series {
	var out []Series
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Series{Name: m.Name, Attributes: formatAttributes(dp.Attributes), Count: uint64(dp.Value), Sum: float64(dp.Value)})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Series{Name: m.Name, Attributes: formatAttributes(dp.Attributes), Count: dp.Count, Sum: dp.Sum})
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Series{Name: m.Name, Attributes: formatAttributes(dp.Attributes), Count: dp.Count, Sum: float64(dp.Sum)})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Attributes < out[j].Attributes
	})
	return out
}

func formatAttributes(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}
