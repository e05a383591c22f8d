package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "riff.app/backend"

// TurnRecorder records chat turn metrics.
// Use NewTurnMetrics for OTel metrics or NoopTurnRecorder{} when disabled.
type TurnRecorder interface {
	// RecordTurn records one processed turn with its duration and outcome.
	RecordTurn(ctx context.Context, provider string, duration time.Duration, err error)
}

type otelTurnMetrics struct {
	turns   metric.Int64Counter
	latency metric.Float64Histogram
	errors  metric.Int64Counter
}

// NewTurnMetrics builds OTel instruments on the given meter.
func NewTurnMetrics(meter metric.Meter) (TurnRecorder, error) {
	turns, err := meter.Int64Counter("riff.chat.turns",
		metric.WithDescription("Number of processed chat turns"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("riff.chat.turn.latency_ms",
		metric.WithDescription("Chat turn latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("riff.chat.turn.errors",
		metric.WithDescription("Number of failed chat turns"),
	)
	if err != nil {
		return nil, err
	}

	return &otelTurnMetrics{turns: turns, latency: latency, errors: errs}, nil
}

// NewDefaultTurnMetrics uses the global meter provider and falls back to a
// no-op recorder if the instruments cannot be created.
func NewDefaultTurnMetrics() TurnRecorder {
	m, err := NewTurnMetrics(otel.Meter(instrumentationName))
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder", slog.String("error", err.Error()))
		return NoopTurnRecorder{}
	}
	return m
}

func (m *otelTurnMetrics) RecordTurn(ctx context.Context, provider string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))

	m.turns.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

// NoopTurnRecorder discards everything.
type NoopTurnRecorder struct{}

func (NoopTurnRecorder) RecordTurn(context.Context, string, time.Duration, error) {}
