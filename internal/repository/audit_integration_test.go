//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/testutil"
)

// ============================================================================
// Capture Audit Repository Integration Tests
// ============================================================================

func TestIntegrationAuditRepository_BulkInsert(t *testing.T) {
	ctx, repo := newAuditTestEnv(t)

	rentalID := testutil.UniqueID("rental")
	events := []*model.CaptureAuditEvent{
		newAuditEvent(rentalID, "A101", model.AuditTokenIssued, "", 0),
		newAuditEvent(rentalID, "A101", model.AuditUploadAccepted, "", 4200),
	}

	if err := repo.BulkInsertAuditEvents(ctx, events); err != nil {
		t.Fatalf("BulkInsertAuditEvents failed: %v", err)
	}

	stored, err := repo.ListAuditEventsByRental(ctx, rentalID, 10)
	if err != nil {
		t.Fatalf("ListAuditEventsByRental failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 events, got %d", len(stored))
	}
}

func TestIntegrationAuditRepository_BulkInsert_Idempotent(t *testing.T) {
	ctx, repo := newAuditTestEnv(t)

	rentalID := testutil.UniqueID("rental")
	event := newAuditEvent(rentalID, "A102", model.AuditTokenIssued, "", 0)

	if err := repo.BulkInsertAuditEvents(ctx, []*model.CaptureAuditEvent{event}); err != nil {
		t.Fatalf("BulkInsertAuditEvents (first) failed: %v", err)
	}

	// Redelivery of the same stream message must not duplicate the row.
	duplicate := *event
	duplicate.ID = ulid.Make().String()
	if err := repo.BulkInsertAuditEvents(ctx, []*model.CaptureAuditEvent{&duplicate}); err != nil {
		t.Fatalf("BulkInsertAuditEvents (redelivery) failed: %v", err)
	}

	stored, err := repo.ListAuditEventsByRental(ctx, rentalID, 10)
	if err != nil {
		t.Fatalf("ListAuditEventsByRental failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 event after redelivery, got %d", len(stored))
	}
}

func TestIntegrationAuditRepository_ListOrderAndLimit(t *testing.T) {
	ctx, repo := newAuditTestEnv(t)

	rentalID := testutil.UniqueID("rental")
	base := time.Now().UTC().Add(-time.Hour)

	var events []*model.CaptureAuditEvent
	for i := 0; i < 5; i++ {
		event := newAuditEvent(rentalID, "A103", model.AuditTokenIssued, "", 0)
		event.OccurredAt = base.Add(time.Duration(i) * time.Minute)
		events = append(events, event)
	}
	if err := repo.BulkInsertAuditEvents(ctx, events); err != nil {
		t.Fatalf("BulkInsertAuditEvents failed: %v", err)
	}

	stored, err := repo.ListAuditEventsByRental(ctx, rentalID, 3)
	if err != nil {
		t.Fatalf("ListAuditEventsByRental failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 events, got %d", len(stored))
	}
	for i := 1; i < len(stored); i++ {
		if stored[i].OccurredAt.After(stored[i-1].OccurredAt) {
			t.Errorf("events not ordered newest first at index %d", i)
		}
	}
	// Newest event comes back first.
	if !stored[0].OccurredAt.Equal(events[4].OccurredAt.Truncate(time.Microsecond)) {
		t.Errorf("newest event mismatch: got %v, want %v", stored[0].OccurredAt, events[4].OccurredAt)
	}
}

func TestIntegrationAuditRepository_RejectionReason(t *testing.T) {
	ctx, repo := newAuditTestEnv(t)

	rentalID := testutil.UniqueID("rental")
	event := newAuditEvent(rentalID, "A104", model.AuditUploadRejected, "stale_upload", 95000)

	if err := repo.BulkInsertAuditEvents(ctx, []*model.CaptureAuditEvent{event}); err != nil {
		t.Fatalf("BulkInsertAuditEvents failed: %v", err)
	}

	stored, err := repo.ListAuditEventsByRental(ctx, rentalID, 1)
	if err != nil {
		t.Fatalf("ListAuditEventsByRental failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 event, got %d", len(stored))
	}
	if stored[0].Reason != "stale_upload" {
		t.Errorf("Reason mismatch: got %q, want %q", stored[0].Reason, "stale_upload")
	}
	if stored[0].DelayMs != 95000 {
		t.Errorf("DelayMs mismatch: got %d, want 95000", stored[0].DelayMs)
	}
}

func TestIntegrationAuditRepository_DailyStats(t *testing.T) {
	ctx, repo := newAuditTestEnv(t)

	rentalID := testutil.UniqueID("rental")
	roomCode := "A105"
	events := []*model.CaptureAuditEvent{
		newAuditEvent(rentalID, roomCode, model.AuditTokenIssued, "", 0),
		newAuditEvent(rentalID, roomCode, model.AuditTokenIssued, "", 0),
		newAuditEvent(rentalID, roomCode, model.AuditUploadAccepted, "", 3000),
		newAuditEvent(rentalID, roomCode, model.AuditUploadRejected, "stale_upload", 95000),
	}

	if err := repo.BulkInsertAuditEvents(ctx, events); err != nil {
		t.Fatalf("BulkInsertAuditEvents failed: %v", err)
	}
	if err := repo.UpdateAuditDailyStats(ctx, events); err != nil {
		t.Fatalf("UpdateAuditDailyStats failed: %v", err)
	}

	issued, accepted, rejected := queryDailyStat(t, ctx, repo, roomCode)
	if issued != 2 || accepted != 1 || rejected != 1 {
		t.Errorf("daily stat mismatch: got issued=%d accepted=%d rejected=%d, want 2/1/1",
			issued, accepted, rejected)
	}

	// Recalculation is idempotent: running again over the same events
	// must not inflate the counters.
	if err := repo.UpdateAuditDailyStats(ctx, events); err != nil {
		t.Fatalf("UpdateAuditDailyStats (rerun) failed: %v", err)
	}

	issued, accepted, rejected = queryDailyStat(t, ctx, repo, roomCode)
	if issued != 2 || accepted != 1 || rejected != 1 {
		t.Errorf("daily stat changed on rerun: got issued=%d accepted=%d rejected=%d, want 2/1/1",
			issued, accepted, rejected)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func newAuditTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAuditSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset audit schema: %v", err)
	}

	return ctx, repo
}

func newAuditEvent(rentalID, roomCode, action, reason string, delayMs int64) *model.CaptureAuditEvent {
	return &model.CaptureAuditEvent{
		ID:         ulid.Make().String(),
		EventID:    fmt.Sprintf("%d-%s", time.Now().UnixMilli(), ulid.Make().String()),
		RentalID:   rentalID,
		RoomCode:   roomCode,
		MeterType:  model.MeterElectric,
		Action:     action,
		Reason:     reason,
		DelayMs:    delayMs,
		OccurredAt: time.Now().UTC(),
	}
}

func queryDailyStat(t *testing.T, ctx context.Context, repo *Repository, roomCode string) (issued, accepted, rejected int64) {
	t.Helper()

	query := `
		SELECT tokens_issued, uploads_accepted, uploads_rejected
		FROM capture_audit_daily
		WHERE room_code = $1
	`
	if err := repo.Pool().QueryRow(ctx, query, roomCode).Scan(&issued, &accepted, &rejected); err != nil {
		t.Fatalf("query daily stat: %v", err)
	}
	return issued, accepted, rejected
}
