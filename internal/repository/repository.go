package repository

import (
	"context"
	"errors"
	"fmt"

	"inventory-api/internal/domain"
)

var (
	ErrProductNotFound   = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrUserAlreadyExists = fmt.Errorf("user with this email already exists: %w", domain.ErrConflict)
	ErrSessionNotFound   = fmt.Errorf("session %w", domain.ErrNotFound)
	// ErrSessionExpired is returned by stores that cannot hold a session
	// whose expiry has already passed
	ErrSessionExpired = errors.New("session already expired")
)

// MutateFunc edits a product in place while the store holds it locked.
// Returning an error aborts the write.
type MutateFunc func(p *domain.Product) error

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// Update runs mutate on the stored product and persists the result as
	// one atomic step.
	Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Product, error)
	// Delete removes the product once check accepts it. check runs under
	// the same lock as the removal.
	Delete(ctx context.Context, id string, check MutateFunc) error
	// Search returns the window [offset, offset+limit) of products whose
	// manufacturer, model or type contains query, case-insensitively, in
	// insertion order, together with the number of matches. A negative
	// offset yields an empty window.
	Search(ctx context.Context, query string, offset, limit int) ([]*domain.Product, int, error)
	All(ctx context.Context) ([]*domain.Product, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create stores a new account and fails with ErrUserAlreadyExists
	// when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the interface for session token storage
type SessionRepository interface {
	// Create stores session. Stores backed by native key expiry reject an
	// already expired session with ErrSessionExpired.
	Create(ctx context.Context, session *domain.Session) error
	// FindByToken returns ErrSessionNotFound for unknown or expired tokens.
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	Close() error
}
