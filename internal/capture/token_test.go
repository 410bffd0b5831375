package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomify/roomify/internal/model"
)

func newTestService(ttl time.Duration) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, ttl, nil), store
}

func TestService_Issue(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(60 * time.Second)

	token, err := svc.Issue(context.Background(), "rental_1", model.MeterElectric, "A101")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if len(token.Token) != tokenBytes*2 {
		t.Errorf("token length = %d, want %d hex chars", len(token.Token), tokenBytes*2)
	}
	if token.Used {
		t.Error("new token should be unused")
	}
	if got := token.ExpiresAt.Sub(token.CreatedAt); got != 60*time.Second {
		t.Errorf("expires_at - created_at = %v, want 60s", got)
	}
	if token.RentalID != "rental_1" || token.Type != model.MeterElectric || token.RoomCode != "A101" {
		t.Errorf("subject tuple = (%s, %s, %s), want (rental_1, electric, A101)",
			token.RentalID, token.Type, token.RoomCode)
	}
	if store.Len() != 1 {
		t.Errorf("store size = %d, want 1", store.Len())
	}
}

func TestService_Issue_CreatedAtSecondPrecision(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	token, err := svc.Issue(context.Background(), "rental_1", model.MeterElectric, "A101")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if token.CreatedAt.Nanosecond() != 0 {
		t.Errorf("CreatedAt = %v, want second precision", token.CreatedAt)
	}

	// A client timestamp taken in the issuance second round-trips through
	// RFC3339 without fractional seconds. It must not sort before CreatedAt.
	wire := token.CreatedAt.Format(time.RFC3339)
	parsed, err := time.Parse(time.RFC3339, wire)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Before(token.CreatedAt) {
		t.Errorf("same-second capture timestamp %v sorts before CreatedAt %v", parsed, token.CreatedAt)
	}
}

func TestNewService_NonPositiveTTLFallsBack(t *testing.T) {
	t.Parallel()

	for _, ttl := range []time.Duration{0, -time.Second} {
		svc, _ := newTestService(ttl)
		if got := svc.TTL(); got != DefaultTokenTTL {
			t.Errorf("NewService(ttl=%v).TTL() = %v, want %v", ttl, got, DefaultTokenTTL)
		}
	}
}

func TestService_Issue_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	tests := []struct {
		name      string
		rentalID  string
		meterType model.MeterType
		roomCode  string
		wantErr   error
	}{
		{"missing rental", "", model.MeterElectric, "A101", ErrMissingSubject},
		{"missing room", "rental_1", model.MeterWater, "", ErrMissingSubject},
		{"empty meter type", "rental_1", model.MeterType(""), "A101", ErrInvalidMeterType},
		{"unknown meter type", "rental_1", model.MeterType("gas"), "A101", ErrInvalidMeterType},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Issue(context.Background(), tt.rentalID, tt.meterType, tt.roomCode)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Issue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Issue_UniqueTokens(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := svc.Issue(context.Background(), "rental_1", model.MeterWater, "A101")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if seen[token.Token] {
			t.Fatalf("duplicate token value issued: %s", token.Token)
		}
		seen[token.Token] = true
	}
}

func TestService_Peek_ReturnsSubjectUnchanged(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	issued, err := svc.Issue(context.Background(), "rental_42", model.MeterWater, "B207")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	peeked, err := svc.Peek(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}

	if peeked.RentalID != issued.RentalID || peeked.Type != issued.Type || peeked.RoomCode != issued.RoomCode {
		t.Errorf("Peek() subject = (%s, %s, %s), want (%s, %s, %s)",
			peeked.RentalID, peeked.Type, peeked.RoomCode,
			issued.RentalID, issued.Type, issued.RoomCode)
	}
	if peeked.Used {
		t.Error("Peek() must not mark the token used")
	}
}

func TestService_Peek_Unknown(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	_, err := svc.Peek(context.Background(), "no-such-token")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Peek() error = %v, want ErrTokenNotFound", err)
	}
}

func TestService_Peek_ExpiredEvicts(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(time.Minute)

	created := time.Now().UTC().Add(-2 * time.Minute)
	expired := &model.CaptureToken{
		Token:     "stale",
		RentalID:  "rental_1",
		Type:      model.MeterElectric,
		RoomCode:  "A101",
		CreatedAt: created,
		ExpiresAt: created.Add(time.Minute),
	}
	if err := store.Put(context.Background(), expired); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, err := svc.Peek(context.Background(), "stale")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("Peek() error = %v, want ErrTokenNotFound", err)
	}

	// Lazy eviction: the expired entry is gone after the peek.
	if store.Len() != 0 {
		t.Errorf("store size after expired peek = %d, want 0", store.Len())
	}
}

func TestService_ConsumeThenPeek_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	issued, err := svc.Issue(context.Background(), "rental_1", model.MeterElectric, "A101")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := svc.Consume(context.Background(), issued.Token); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	_, err = svc.Peek(context.Background(), issued.Token)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Peek() after Consume() error = %v, want ErrTokenNotFound", err)
	}
}

func TestService_Consume_TwiceIsNoOp(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(time.Minute)

	issued, err := svc.Issue(context.Background(), "rental_1", model.MeterWater, "A101")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := svc.Consume(context.Background(), issued.Token); err != nil {
		t.Fatalf("first Consume() error = %v", err)
	}
	if err := svc.Consume(context.Background(), issued.Token); err != nil {
		t.Fatalf("second Consume() error = %v", err)
	}

	stored, err := store.Get(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !stored.Used {
		t.Error("token should remain used after double consume")
	}
}

func TestService_Consume_UnknownIsNoOp(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(time.Minute)

	if err := svc.Consume(context.Background(), "never-issued"); err != nil {
		t.Errorf("Consume() on unknown token error = %v, want nil", err)
	}
}

func TestService_CleanupExpired(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(time.Minute)
	ctx := context.Background()

	now := time.Now().UTC()
	entries := []model.CaptureToken{
		{Token: "live", CreatedAt: now, ExpiresAt: now.Add(time.Minute)},
		{Token: "expired-unused", CreatedAt: now.Add(-3 * time.Minute), ExpiresAt: now.Add(-2 * time.Minute)},
		{Token: "expired-used", CreatedAt: now.Add(-3 * time.Minute), ExpiresAt: now.Add(-2 * time.Minute), Used: true},
	}
	for i := range entries {
		if err := store.Put(ctx, &entries[i]); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	removed, err := svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("CleanupExpired() removed = %d, want 2", removed)
	}
	if store.Len() != 1 {
		t.Errorf("store size after cleanup = %d, want 1", store.Len())
	}
	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("unexpired token should survive cleanup, got %v", err)
	}
}
