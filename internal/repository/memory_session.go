package repository

import (
	"context"
	"sync"
	"time"

	"inventory-api/internal/domain"
)

// MemorySessionRepository maps tokens to sessions in process memory. When
// a sweep interval is given, a background goroutine drops expired sessions
// until Close is called.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemorySessionRepository creates a session store. A zero sweepEvery
// disables the background sweeper; expired sessions are still rejected on
// lookup.
func NewMemorySessionRepository(sweepEvery time.Duration) *MemorySessionRepository {
	r := &MemorySessionRepository{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if sweepEvery > 0 {
		go r.sweep(sweepEvery)
	} else {
		close(r.done)
	}
	return r
}

// Create binds a token to a user
func (r *MemorySessionRepository) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *session
	r.sessions[session.Token] = &stored
	return nil
}

// FindByToken resolves a live session
func (r *MemorySessionRepository) FindByToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	stored, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if stored.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, token)
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	session := *stored
	return &session, nil
}

// Len returns the number of stored sessions, expired ones included
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the sweeper
func (r *MemorySessionRepository) Close() error {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
	<-r.done
	return nil
}

func (r *MemorySessionRepository) sweep(every time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.removeExpired()
		}
	}
}

func (r *MemorySessionRepository) removeExpired() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for token, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, token)
		}
	}
}
