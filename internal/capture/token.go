package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/roomify/roomify/internal/metrics"
	"github.com/roomify/roomify/internal/model"
)

// tokenBytes is the entropy of a capture token value. 32 random bytes,
// hex encoded to 64 characters.
const tokenBytes = 32

// DefaultTokenTTL is the issuance-to-capture validity window.
const DefaultTokenTTL = 60 * time.Second

// Service errors.
var (
	ErrMissingSubject   = errors.New("rental id and room code are required")
	ErrInvalidMeterType = errors.New("meter type must be electric or water")
)

// Service manages the full lifecycle of capture tokens: issue, peek,
// consume, and expiry cleanup. The store is injected so tests can run
// against isolated instances.
type Service struct {
	store   Store
	ttl     time.Duration
	metrics metrics.Recorder
}

// NewService creates a capture token service. A non-positive ttl falls back
// to DefaultTokenTTL.
func NewService(store Store, ttl time.Duration, recorder metrics.Recorder) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		store:   store,
		ttl:     ttl,
		metrics: recorder,
	}
}

// TTL returns the configured token validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new unused token bound to the given subject tuple.
// The subject is immutable for the token's lifetime.
func (s *Service) Issue(ctx context.Context, rentalID string, meterType model.MeterType, roomCode string) (*model.CaptureToken, error) {
	if rentalID == "" || roomCode == "" {
		return nil, ErrMissingSubject
	}
	if !meterType.IsValid() {
		return nil, ErrInvalidMeterType
	}

	value, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	// Client capture timestamps arrive as RFC3339 with at most second
	// precision. Store CreatedAt at the same precision so an honest
	// capture in the issuance second is never ordered before it.
	now := time.Now().UTC().Truncate(time.Second)
	token := &model.CaptureToken{
		Token:     value,
		RentalID:  rentalID,
		Type:      meterType,
		RoomCode:  roomCode,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Used:      false,
	}

	if err := s.store.Put(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	s.metrics.IncCaptureTokenIssued()

	return token, nil
}

// Peek validates a token without consuming it. Unknown, used, and expired
// tokens all return ErrTokenNotFound. An expired entry found here is
// evicted from the store as a side effect.
func (s *Service) Peek(ctx context.Context, token string) (*model.CaptureToken, error) {
	t, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if t.Used {
		return nil, ErrTokenNotFound
	}

	if t.IsExpired(time.Now().UTC()) {
		if err := s.store.Remove(ctx, token); err != nil {
			return nil, fmt.Errorf("evict expired token: %w", err)
		}
		return nil, ErrTokenNotFound
	}

	return t, nil
}

// Consume marks a token as used. Must only be called after the bound
// artifact has been durably accepted. Consuming an unknown or already-used
// token is a harmless no-op, but callers must never consume speculatively:
// this is the one-way transition that retires the token.
func (s *Service) Consume(ctx context.Context, token string) error {
	t, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil
		}
		return err
	}

	if t.Used {
		return nil
	}

	t.Used = true
	if err := s.store.Put(ctx, t); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}

	s.metrics.IncCaptureTokenConsumed()

	return nil
}

// CleanupExpired sweeps expired tokens from the store and returns the
// number removed. Not required for correctness (Peek evicts lazily) but
// bounds memory growth between peeks.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.store.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired tokens: %w", err)
	}
	if removed > 0 {
		s.metrics.ObserveCaptureTokensSwept(removed)
	}
	return removed, nil
}

// generateTokenValue returns a hex-encoded random token value.
func generateTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
