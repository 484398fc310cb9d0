// Package prometheus exports statecore dispatch metrics to Prometheus.
package prometheus

import (
	"context"
	"time"

	"github.com/jilio/statecore"
	"github.com/prometheus/client_golang/prometheus"
)

type eventKey struct{}

// Observability implements statecore.Observability with Prometheus collectors
type Observability struct {
	notifies         *prometheus.CounterVec
	observers        *prometheus.CounterVec
	observerFailures *prometheus.CounterVec
	observerDuration *prometheus.HistogramVec
	label            func(statecore.Event) string
}

// Option configures the Observability
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
	label     func(statecore.Event) string
}

// WithNamespace sets the metric namespace (default "statecore")
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithBuckets sets the observer duration histogram buckets, in seconds
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// WithEventLabel sets how an event becomes the "event" label value.
// The default uses the event name as is.
func WithEventLabel(label func(statecore.Event) string) Option {
	return func(o *options) {
		if label != nil {
			o.label = label
		}
	}
}

// CustomEventLabel is an event label function that keeps the reserved events
// and reports every custom event as "custom".
func CustomEventLabel(event statecore.Event) string {
	if event.Reserved() {
		return string(event)
	}
	return "custom"
}

// New creates the collectors and registers them with reg.
//
// Every distinct event name becomes a label value. If Notify is called with
// unbounded event names, use WithEventLabel(CustomEventLabel) or another
// mapping to keep the series count bounded.
func New(reg prometheus.Registerer, opts ...Option) (*Observability, error) {
	cfg := &options{
		namespace: "statecore",
		buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		label:     func(event statecore.Event) string { return string(event) },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	obs := &Observability{
		label: cfg.label,
		notifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "notify_total",
			Help:      "Number of dispatch rounds.",
		}, []string{"event"}),
		observers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "observer_calls_total",
			Help:      "Number of observer executions.",
		}, []string{"event"}),
		observerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "observer_failures_total",
			Help:      "Number of observers that returned an error or panicked.",
		}, []string{"event"}),
		observerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "observer_duration_seconds",
			Help:      "Observer execution duration.",
			Buckets:   cfg.buckets,
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{obs.notifies, obs.observers, obs.observerFailures, obs.observerDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return obs, nil
}

// OnNotifyStart counts the dispatch round
func (o *Observability) OnNotifyStart(ctx context.Context, instanceID string, event statecore.Event, observers int) context.Context {
	o.notifies.WithLabelValues(o.label(event)).Inc()
	return ctx
}

// OnNotifyComplete is a no-op; per-observer outcomes are counted individually
func (o *Observability) OnNotifyComplete(ctx context.Context, event statecore.Event, matched, failed int) {}

// OnObserverStart counts the execution and remembers the event for OnObserverComplete
func (o *Observability) OnObserverStart(ctx context.Context, event statecore.Event) context.Context {
	o.observers.WithLabelValues(o.label(event)).Inc()
	return context.WithValue(ctx, eventKey{}, event)
}

// OnObserverComplete records the duration and failure
func (o *Observability) OnObserverComplete(ctx context.Context, duration time.Duration, err error) {
	event, _ := ctx.Value(eventKey{}).(statecore.Event)
	label := o.label(event)
	o.observerDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		o.observerFailures.WithLabelValues(label).Inc()
	}
}

var _ statecore.Observability = (*Observability)(nil)
