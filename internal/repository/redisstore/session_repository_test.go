package redisstore

import (
	"context"
	"testing"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, repository.SessionRepository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewSessionRepository(client, "test-session")
}

func TestSessionWithoutExpiryPersists(t *testing.T) {
	mr, repo := setup(t)
	ctx := context.Background()

	session := &domain.Session{Token: "tok", UserID: "1", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, session))

	assert.True(t, mr.Exists("test-session:tok"))
	assert.Equal(t, time.Duration(0), mr.TTL("test-session:tok"))

	mr.FastForward(24 * time.Hour)

	found, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "1", found.UserID)
}

func TestSessionWithExpiryIsDroppedByRedis(t *testing.T) {
	mr, repo := setup(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "short",
		UserID:    "2",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, session))
	assert.Greater(t, mr.TTL("test-session:short"), time.Duration(0))

	_, err := repo.FindByToken(ctx, "short")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = repo.FindByToken(ctx, "short")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	_, repo := setup(t)

	_, err := repo.FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, repo.Close())
}

func TestRedisFailureIsReported(t *testing.T) {
	mr, repo := setup(t)
	mr.SetError("boom")

	_, err := repo.FindByToken(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	mr, repo := setup(t)

	session := &domain.Session{
		Token:     "late",
		UserID:    "3",
		CreatedAt: time.Now().Add(-time.Hour).UTC(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	err := repo.Create(context.Background(), session)
	assert.ErrorIs(t, err, repository.ErrSessionExpired)
	assert.False(t, mr.Exists("test-session:late"))
}
