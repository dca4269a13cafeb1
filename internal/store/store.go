// Package store persists members. Implementations report a missing member with
// ErrNotFound and a duplicate id or email with ErrConflict.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dwsmith1983/outcome/pkg/classify"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// Sentinel errors returned by every Store.
var (
	ErrNotFound = errors.New("store: member not found")
	ErrConflict = classify.New(types.KindConflict, "store: member already exists")
)

// Member is a registered member as persisted.
type Member struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Name      string    `json:"name" dynamodbav:"name"`
	Age       int       `json:"age" dynamodbav:"age"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

// Store is the member persistence contract.
type Store interface {
	// Create stores m. It fails with ErrConflict if the id or the email is taken.
	Create(ctx context.Context, m Member) error
	// Get returns the member with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Member, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// NormalizeEmail is the form under which email uniqueness is enforced.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
