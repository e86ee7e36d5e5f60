package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric names
const (
	MetricStoreOperations    = "vidro.store.operations"
	MetricStoreDuration      = "vidro.store.operation.duration"
	MetricStoreStaleDiscards = "vidro.store.fetch.discarded"
)

// Outcomes recorded on store operation metrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Attribute keys of the store instruments
var (
	AttrStore     = attribute.Key("store")
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
)

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// StoreMetrics records per-operation counts and latency of the state stores,
// plus fetch results dropped because newer state had already been applied.
// A nil *StoreMetrics records nothing.
type StoreMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	discarded  metric.Int64Counter
}

// NewStoreMetrics registers the store instruments on meter.
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	var (
		m   StoreMetrics
		err error
	)
	if m.operations, err = meter.Int64Counter(MetricStoreOperations,
		metric.WithDescription("Number of store operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("counter %s: %w", MetricStoreOperations, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricStoreDuration,
		metric.WithDescription("Duration of store operations including the remote call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("histogram %s: %w", MetricStoreDuration, err)
	}
	if m.discarded, err = meter.Int64Counter(MetricStoreStaleDiscards,
		metric.WithDescription("Fetch results discarded as stale"),
		metric.WithUnit("{fetch}"),
	); err != nil {
		return nil, fmt.Errorf("counter %s: %w", MetricStoreStaleDiscards, err)
	}
	return &m, nil
}

// NewNoopStoreMetrics returns store metrics backed by a no-op meter.
func NewNoopStoreMetrics() *StoreMetrics {
	m, _ := NewStoreMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordOperation records one finished store operation.
func (m *StoreMetrics) RecordOperation(ctx context.Context, store, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := metric.WithAttributes(
		AttrStore.String(store),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordStaleDiscard records a fetch whose result was dropped.
func (m *StoreMetrics) RecordStaleDiscard(ctx context.Context, store, operation string) {
	if m == nil {
		return
	}
	m.discarded.Add(ctx, 1, metric.WithAttributes(AttrStore.String(store), AttrOperation.String(operation)))
}
