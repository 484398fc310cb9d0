package otel

import (
	"context"
	"time"

	"github.com/jilio/statecore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/jilio/statecore"
)

// Observability implements statecore.Observability using OpenTelemetry
type Observability struct {
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	notifyCounter    metric.Int64Counter
	observerCounter  metric.Int64Counter
	observerDuration metric.Float64Histogram
	observerErrors   metric.Int64Counter
}

// Option configures the Observability
type Option func(*Observability)

// WithTracerProvider sets a custom tracer provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Observability) {
		o.tracer = provider.Tracer(instrumentationName)
	}
}

// WithMeterProvider sets a custom meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *Observability) {
		o.meter = provider.Meter(instrumentationName)
	}
}

// New creates a new OpenTelemetry observability implementation
func New(opts ...Option) (*Observability, error) {
	obs := &Observability{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(obs)
	}

	var err error

	obs.notifyCounter, err = obs.meter.Int64Counter(
		"statecore.notify.count",
		metric.WithDescription("Number of dispatch rounds"),
		metric.WithUnit("{dispatch}"),
	)
	if err != nil {
		return nil, err
	}

	obs.observerCounter, err = obs.meter.Int64Counter(
		"statecore.observer.count",
		metric.WithDescription("Number of observer executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	obs.observerDuration, err = obs.meter.Float64Histogram(
		"statecore.observer.duration",
		metric.WithDescription("Observer execution duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	obs.observerErrors, err = obs.meter.Int64Counter(
		"statecore.observer.errors",
		metric.WithDescription("Number of observers that returned an error or panicked"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return obs, nil
}

// OnNotifyStart starts a span for the dispatch round
func (o *Observability) OnNotifyStart(ctx context.Context, instanceID string, event statecore.Event, observers int) context.Context {
	ctx, _ = o.tracer.Start(ctx, "statecore.notify: "+string(event),
		trace.WithAttributes(
			attribute.String("statecore.instance", instanceID),
			attribute.String("statecore.event", string(event)),
			attribute.Int("statecore.observers", observers),
		),
	)

	o.notifyCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("statecore.event", string(event)),
		),
	)

	return ctx
}

// OnNotifyComplete ends the dispatch span
func (o *Observability) OnNotifyComplete(ctx context.Context, event statecore.Event, matched, failed int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("statecore.matched", matched),
		attribute.Int("statecore.failed", failed),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, "observer failed")
	}
	span.End()
}

// OnObserverStart starts a child span for one observer
func (o *Observability) OnObserverStart(ctx context.Context, event statecore.Event) context.Context {
	ctx, _ = o.tracer.Start(ctx, "statecore.observer: "+string(event),
		trace.WithAttributes(
			attribute.String("statecore.event", string(event)),
		),
	)

	o.observerCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("statecore.event", string(event)),
		),
	)

	return ctx
}

// OnObserverComplete records the duration and outcome, then ends the observer span
func (o *Observability) OnObserverComplete(ctx context.Context, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)

	durationMs := float64(duration.Microseconds()) / 1000
	o.observerDuration.Record(ctx, durationMs)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		o.observerErrors.Add(ctx, 1)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// Ensure Observability implements statecore.Observability
var _ statecore.Observability = (*Observability)(nil)
