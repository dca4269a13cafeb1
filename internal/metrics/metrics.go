// Package metrics records OpenTelemetry counters for rendered outcomes, batch
// aggregations and report deliveries.
package metrics

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// MeterName is the instrumentation scope of every instrument.
const MeterName = "github.com/dwsmith1983/outcome"

// Recorder holds the instruments. A nil *Recorder records nothing.
type Recorder struct {
	responses       metric.Int64Counter
	aggregations    metric.Int64Counter
	groupMembers    metric.Int64Counter
	reportsSent     metric.Int64Counter
	reportsFailed   metric.Int64Counter
	storeBreakerOps metric.Int64Counter
}

// New creates the instruments on mp.
func New(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(MeterName)
	var (
		r   Recorder
		err error
	)
	if r.responses, err = m.Int64Counter("outcome.responses",
		metric.WithDescription("Outcomes rendered as transport responses.")); err != nil {
		return nil, fmt.Errorf("creating responses counter: %w", err)
	}
	if r.aggregations, err = m.Int64Counter("outcome.aggregations",
		metric.WithDescription("Batches aggregated by Merge or Summarize.")); err != nil {
		return nil, fmt.Errorf("creating aggregations counter: %w", err)
	}
	if r.groupMembers, err = m.Int64Counter("outcome.aggregation.members",
		metric.WithDescription("Failed batch members, by status.")); err != nil {
		return nil, fmt.Errorf("creating members counter: %w", err)
	}
	if r.reportsSent, err = m.Int64Counter("outcome.reports.dispatched",
		metric.WithDescription("Grouped reports delivered to a sink.")); err != nil {
		return nil, fmt.Errorf("creating reports counter: %w", err)
	}
	if r.reportsFailed, err = m.Int64Counter("outcome.reports.failed",
		metric.WithDescription("Grouped report deliveries that failed.")); err != nil {
		return nil, fmt.Errorf("creating report failures counter: %w", err)
	}
	if r.storeBreakerOps, err = m.Int64Counter("outcome.store.breaker.transitions",
		metric.WithDescription("Store circuit breaker state changes.")); err != nil {
		return nil, fmt.Errorf("creating breaker counter: %w", err)
	}
	return &r, nil
}

// Global creates a Recorder on the global meter provider. It falls back to nil,
// which records nothing, if the instruments cannot be created.
func Global() *Recorder {
	r, err := New(otel.GetMeterProvider())
	if err != nil {
		return nil
	}
	return r
}

// Response counts one rendered outcome.
func (r *Recorder) Response(ctx context.Context, status types.Status, kind types.Kind, code int) {
	if r == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("status", status.String()),
		attribute.String("code", strconv.Itoa(code)),
	}
	if status == types.StatusError {
		attrs = append(attrs, attribute.String("kind", string(kind)))
	}
	r.responses.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Aggregation counts one aggregated batch and its failed members per status.
func (r *Recorder) Aggregation(ctx context.Context, mode string, report outcome.Report) {
	if r == nil {
		return
	}
	r.aggregations.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	for _, g := range report {
		r.groupMembers.Add(ctx, int64(len(g.Members)),
			metric.WithAttributes(attribute.String("status", g.Status.String())))
	}
}

// ReportDispatched counts a successful sink delivery.
func (r *Recorder) ReportDispatched(ctx context.Context, sink string) {
	if r == nil {
		return
	}
	r.reportsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// ReportFailed counts a failed sink delivery.
func (r *Recorder) ReportFailed(ctx context.Context, sink string) {
	if r == nil {
		return
	}
	r.reportsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// BreakerTransition counts a circuit breaker state change.
func (r *Recorder) BreakerTransition(ctx context.Context, name, from, to string) {
	if r == nil {
		return
	}
	r.storeBreakerOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
