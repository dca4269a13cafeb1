// Package report delivers grouped batch reports to multiple sinks.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/pkg/outcome"
)

// BatchReport is the grouped summary of one batch, as delivered to sinks.
type BatchReport struct {
	BatchID   string         `json:"batchId"`
	Fidelity  string         `json:"fidelity"`
	Size      int            `json:"size"`
	Failed    int            `json:"failed"`
	Groups    outcome.Report `json:"groups"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewBatchReport wraps groups summarising a batch of size members under a fresh id.
func NewBatchReport(size int, fidelity outcome.Fidelity, groups outcome.Report) BatchReport {
	failed := 0
	for _, g := range groups {
		failed += len(g.Members)
	}
	return BatchReport{
		BatchID:   ulid.Make().String(),
		Fidelity:  fidelity.String(),
		Size:      size,
		Failed:    failed,
		Groups:    groups,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink is a report destination.
type Sink interface {
	Send(ctx context.Context, r BatchReport) error
	Name() string
}

// Dispatcher routes reports to configured sinks.
type Dispatcher struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Recorder

	sqsClient SQSAPI
	ebClient  EventBridgeAPI
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics records deliveries on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(d *Dispatcher) { d.metrics = rec }
}

// WithSQSClient sets the client used by configured SQS sinks.
func WithSQSClient(c SQSAPI) Option {
	return func(d *Dispatcher) { d.sqsClient = c }
}

// WithEventBridgeClient sets the client used by configured EventBridge sinks.
func WithEventBridgeClient(c EventBridgeAPI) Option {
	return func(d *Dispatcher) { d.ebClient = c }
}

// WithSinks adds already built sinks.
func WithSinks(sinks ...Sink) Option {
	return func(d *Dispatcher) { d.sinks = append(d.sinks, sinks...) }
}

// NewDispatcher creates a dispatcher from report configs.
func NewDispatcher(configs []config.ReportConfig, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	for _, cfg := range configs {
		sink, err := d.newSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.sinks = append(d.sinks, sink)
	}
	return d, nil
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Dispatch sends r to every sink concurrently. A failing sink does not stop the
// others; all failures are returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, r BatchReport) error {
	errs := make([]error, len(d.sinks))
	var g errgroup.Group
	for i, sink := range d.sinks {
		g.Go(func() error {
			if err := sink.Send(ctx, r); err != nil {
				d.logger.Error("report delivery failed", "sink", sink.Name(), "batchId", r.BatchID, "error", err)
				d.metrics.ReportFailed(ctx, sink.Name())
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
				return nil
			}
			d.metrics.ReportDispatched(ctx, sink.Name())
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Deliver wraps groups in a BatchReport and dispatches it. Delivery failures are
// logged and do not change the returned report. A nil Dispatcher only builds it.
func (d *Dispatcher) Deliver(ctx context.Context, size int, fidelity outcome.Fidelity, groups outcome.Report) BatchReport {
	r := NewBatchReport(size, fidelity, groups)
	if d == nil {
		return r
	}
	if err := d.Dispatch(ctx, r); err != nil {
		d.logger.Warn("batch report not delivered to every sink", "batchId", r.BatchID, "error", err)
	}
	return r
}

func (d *Dispatcher) newSink(cfg config.ReportConfig) (Sink, error) {
	switch cfg.Type {
	case "log":
		return NewLogSink(d.logger), nil
	case "console":
		return NewConsoleSink(), nil
	case "sqs":
		var opts []SQSSinkOption
		if d.sqsClient != nil {
			opts = append(opts, WithSQS(d.sqsClient))
		}
		return NewSQSSink(cfg.QueueURL, opts...)
	case "eventbridge":
		var opts []EventBridgeSinkOption
		if d.ebClient != nil {
			opts = append(opts, WithEventBridge(d.ebClient))
		}
		return NewEventBridgeSink(cfg.BusName, cfg.Source, opts...)
	default:
		return nil, fmt.Errorf("unknown report type %q", cfg.Type)
	}
}
