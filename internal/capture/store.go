// Package capture implements the meter-photo capture token protocol:
// short-lived, single-use tokens that bind a camera capture to a specific
// rental, meter type, and room, plus the timing checks that decide whether
// an uploaded photo is consistent with a live capture.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roomify/roomify/internal/model"
)

// ErrTokenNotFound is returned for tokens that are unknown, already used,
// or expired. Callers cannot distinguish the three cases; the collapsed
// signal is an anti-probing measure and must not be narrowed.
var ErrTokenNotFound = errors.New("capture token not found")

// Store is the token registry. The in-memory implementation below is the
// only one shipped; the interface exists so a networked key-value store
// with TTL support could replace it without touching the Service contract.
type Store interface {
	Get(ctx context.Context, token string) (*model.CaptureToken, error)
	Put(ctx context.Context, t *model.CaptureToken) error
	Remove(ctx context.Context, token string) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore keeps tokens in a process-local map. Tokens do not survive a
// restart; anything issued before the process died is silently invalidated,
// which the 60-second TTL makes acceptable.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]model.CaptureToken
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]model.CaptureToken),
	}
}

// Get returns a copy of the stored token, or ErrTokenNotFound.
func (s *MemoryStore) Get(_ context.Context, token string) (*model.CaptureToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &t, nil
}

// Put stores or overwrites a token record.
func (s *MemoryStore) Put(_ context.Context, t *model.CaptureToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.Token] = *t
	return nil
}

// Remove deletes a token record. Removing an absent token is not an error.
func (s *MemoryStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}

// SweepExpired removes every entry whose expiry has passed, used or not,
// and returns the number removed.
func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, t := range s.tokens {
		if now.After(t.ExpiresAt) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored tokens. Used by tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}
