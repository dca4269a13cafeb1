package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/metrics"
)

var _ Store = (*BreakerStore)(nil)

// Breaker defaults.
const (
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

// BreakerStore guards a Store with a circuit breaker. ErrNotFound and ErrConflict
// are answers, not failures, and a caller giving up with context.Canceled says
// nothing about the backend; none of them trip it. While open, calls fail fast with
// gobreaker.ErrOpenState.
type BreakerStore struct {
	next    Store
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// BreakerOption configures a BreakerStore.
type BreakerOption func(*BreakerStore)

// WithBreakerLogger sets the logger for state changes.
func WithBreakerLogger(l *slog.Logger) BreakerOption {
	return func(b *BreakerStore) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBreakerMetrics records state changes on rec.
func WithBreakerMetrics(rec *metrics.Recorder) BreakerOption {
	return func(b *BreakerStore) { b.metrics = rec }
}

// WithBreaker wraps next in a circuit breaker configured by cfg.
func WithBreaker(next Store, cfg config.BreakerConfig, opts ...BreakerOption) (*BreakerStore, error) {
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return nil, fmt.Errorf("breaker interval: %w", err)
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("breaker timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}

	b := &BreakerStore{next: next, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: cfg.MaxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrConflict) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			b.metrics.BreakerTransition(context.Background(), name, from.String(), to.String())
		},
	})
	return b, nil
}

// State returns the current breaker state.
func (b *BreakerStore) State() gobreaker.State { return b.cb.State() }

// Create implements Store.
func (b *BreakerStore) Create(ctx context.Context, m Member) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Create(ctx, m)
	})
	return err
}

// Get implements Store.
func (b *BreakerStore) Get(ctx context.Context, id string) (Member, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, id)
	})
	if err != nil {
		return Member{}, err
	}
	return res.(Member), nil
}

// Ping bypasses the breaker so health checks see the backend itself.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}
