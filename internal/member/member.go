// Package member is a small member registry whose operations report their result
// as outcomes instead of errors.
package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dwsmith1983/outcome/internal/store"
	"github.com/dwsmith1983/outcome/pkg/classify"
	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// Member is a registered member.
type Member = store.Member

// Input is a registration request.
type Input struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
}

// Service registers and looks up members.
type Service struct {
	store       store.Store
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrency bounds how many batch members are registered at once.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the ULID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service on st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates in and stores a new member.
//
// The result is INVALID when in breaks a validation rule, ERROR of kind Conflict
// when the email is taken, and ERROR classified from the store failure otherwise.
func (s *Service) Register(ctx context.Context, in Input) outcome.Outcome[Member] {
	if failures := Validate(in); len(failures) > 0 {
		return outcome.InvalidFromFailures[Member](failures)
	}

	m := Member{
		ID:        s.newID(),
		Email:     strings.TrimSpace(in.Email),
		Name:      strings.TrimSpace(in.Name),
		Age:       in.Age,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, m); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return outcome.ErrorWithKind[Member](
				fmt.Sprintf("A member with email %s already exists.", m.Email), types.KindConflict)
		}
		s.logger.Error("failed to register member", "email", m.Email, "error", err)
		return outcome.ErrorWithKind[Member]("The member could not be registered.", classify.Kind(err))
	}

	s.logger.Info("member registered", "id", m.ID)
	return outcome.SuccessWithMessage(m, "Member registered.")
}

// Get looks up a member by id. An unknown id is NOT_FOUND.
func (s *Service) Get(ctx context.Context, id string) outcome.Outcome[Member] {
	if strings.TrimSpace(id) == "" {
		return outcome.Invalid[Member](map[string][]string{"id": {"id is required."}})
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return outcome.NotFound[Member]()
		}
		s.logger.Error("failed to load member", "id", id, "error", err)
		return outcome.ErrorWithKind[Member]("The member could not be loaded.", classify.Kind(err))
	}
	return outcome.Success(m)
}

// RegisterBatch registers every input concurrently. Outcomes are returned in input
// order; one failing member does not stop the others.
func (s *Service) RegisterBatch(ctx context.Context, inputs []Input) []outcome.Outcome[Member] {
	steps := make([]outcome.Step[Member], len(inputs))
	for i, in := range inputs {
		steps[i] = func(ctx context.Context) outcome.Outcome[Member] {
			return s.Register(ctx, in)
		}
	}
	results := outcome.Collect(ctx, s.concurrency, steps...)
	s.logger.Debug("batch registered", "size", len(inputs), "result", outcome.Merge(Voids(results)...))
	return results
}

// Voids drops the payloads of a batch so it can be aggregated.
func Voids(results []outcome.Outcome[Member]) []outcome.Void {
	out := make([]outcome.Void, len(results))
	for i, r := range results {
		out[i] = outcome.ToVoid(r)
	}
	return out
}
