package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// uniqueViolation is the Postgres SQLSTATE for duplicate keys
const uniqueViolation = "23505"

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a Postgres-backed UserRepository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user; the unique email index rejects duplicates
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, avatar, role, created_at)
		VALUES (:id, :name, :email, :password_hash, :avatar, :role, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, password_hash, avatar, role, created_at FROM users WHERE email = $1`, email)
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, password_hash, avatar, role, created_at FROM users WHERE id = $1`, id)
}

// Count returns the number of users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
