// Package redisstore keeps login sessions in Redis so they survive restarts
// and are shared between instances.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys
const DefaultKeyPrefix = "session"

type sessionRepository struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewSessionRepository creates a Redis-backed session store. Sessions with an
// expiry are written with a matching key TTL; others never expire.
func NewSessionRepository(client *redis.Client, keyPrefix string) repository.SessionRepository {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &sessionRepository{client: client, keyPrefix: keyPrefix, now: time.Now}
}

func (r *sessionRepository) key(token string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, token)
}

// Create stores the session
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return repository.ErrSessionExpired
		}
	}

	if err := r.client.Set(ctx, r.key(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// FindByToken resolves a live session
func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Expired(r.now()) {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

// Close is a no-op; the client is owned by the caller
func (r *sessionRepository) Close() error {
	return nil
}
