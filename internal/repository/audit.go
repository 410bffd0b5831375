package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roomify/roomify/internal/model"
)

// BulkInsertAuditEvents inserts capture audit events with idempotency via
// ON CONFLICT DO NOTHING on the stream event ID.
func (r *Repository) BulkInsertAuditEvents(ctx context.Context, events []*model.CaptureAuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO capture_audit_events (
			id, event_id, rental_id, room_code, meter_type,
			action, reason, delay_ms, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.RentalID,
			event.RoomCode,
			event.MeterType,
			event.Action,
			nullableString(event.Reason),
			event.DelayMs,
			event.OccurredAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// UpdateAuditDailyStats refreshes the per-room daily counters for every
// room/day touched by the batch. Counts are recalculated from the base
// table so retried batches stay idempotent.
func (r *Repository) UpdateAuditDailyStats(ctx context.Context, events []*model.CaptureAuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, key := range uniqueAuditDays(events) {
		if err := r.upsertAuditDailyStat(ctx, key.roomCode, key.date); err != nil {
			return fmt.Errorf("upsert audit daily stat %s:%s: %w", key.roomCode, key.date.Format("2006-01-02"), err)
		}
	}

	return nil
}

type auditDailyKey struct {
	roomCode string
	date     time.Time
}

func uniqueAuditDays(events []*model.CaptureAuditEvent) []auditDailyKey {
	seen := make(map[string]auditDailyKey)
	for _, event := range events {
		day := event.OccurredAt.UTC().Truncate(24 * time.Hour)
		key := fmt.Sprintf("%s:%s", event.RoomCode, day.Format("2006-01-02"))
		seen[key] = auditDailyKey{roomCode: event.RoomCode, date: day}
	}

	keys := make([]auditDailyKey, 0, len(seen))
	for _, key := range seen {
		keys = append(keys, key)
	}
	return keys
}

func (r *Repository) upsertAuditDailyStat(ctx context.Context, roomCode string, date time.Time) error {
	start := date.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	query := `
		INSERT INTO capture_audit_daily (
			id, room_code, date, tokens_issued, uploads_accepted, uploads_rejected,
			created_at, updated_at
		)
		SELECT $1, $2, $3,
			COUNT(*) FILTER (WHERE action = 'token_issued'),
			COUNT(*) FILTER (WHERE action = 'upload_accepted'),
			COUNT(*) FILTER (WHERE action = 'upload_rejected'),
			NOW(), NOW()
		FROM capture_audit_events
		WHERE room_code = $2 AND occurred_at >= $3 AND occurred_at < $4
		ON CONFLICT (room_code, date) DO UPDATE SET
			tokens_issued = EXCLUDED.tokens_issued,
			uploads_accepted = EXCLUDED.uploads_accepted,
			uploads_rejected = EXCLUDED.uploads_rejected,
			updated_at = NOW()
	`

	id := fmt.Sprintf("%s:%s", roomCode, start.Format("2006-01-02"))
	_, err := r.pool.Exec(ctx, query, id, roomCode, start, end)
	return err
}

// ListAuditEventsByRental returns the most recent audit events for a rental.
func (r *Repository) ListAuditEventsByRental(ctx context.Context, rentalID string, limit int) ([]*model.CaptureAuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, event_id, rental_id, room_code, meter_type,
			   action, COALESCE(reason, ''), delay_ms, occurred_at
		FROM capture_audit_events
		WHERE rental_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, rentalID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []*model.CaptureAuditEvent
	for rows.Next() {
		var event model.CaptureAuditEvent
		err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.RentalID,
			&event.RoomCode,
			&event.MeterType,
			&event.Action,
			&event.Reason,
			&event.DelayMs,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
