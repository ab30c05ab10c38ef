package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/jmoiron/sqlx"
)

type sessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSessionRepository creates a Postgres-backed SessionRepository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

// sessionRow mirrors the sessions table; expires_at is NULL for sessions
// that never expire
type sessionRow struct {
	Token     string       `db:"token"`
	UserID    string       `db:"user_id"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	row := sessionRow{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: sql.NullTime{Time: session.ExpiresAt, Valid: !session.ExpiresAt.IsZero()},
		CreatedAt: session.CreatedAt,
	}

	query := `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (:token, :user_id, :expires_at, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken retrieves a live session by its token
func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := sessionRow{}
	err := r.db.GetContext(ctx, &row, `SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session := &domain.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}
	if row.ExpiresAt.Valid {
		session.ExpiresAt = row.ExpiresAt.Time
	}
	if session.Expired(r.now()) {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

// Close is a no-op; the connection pool is owned by the server
func (r *sessionRepository) Close() error {
	return nil
}
