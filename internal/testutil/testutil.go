package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/roomify/roomify/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// applyMigration executes a single migration file against the pool.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, file string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	sql, err := os.ReadFile(filepath.Join(root, "migrations", file))
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", file, err)
	}
	return nil
}

// resetSchema applies the down then up migration for a single schema file pair.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	if err := applyMigration(ctx, pool, name+".down.sql"); err != nil {
		return err
	}
	return applyMigration(ctx, pool, name+".up.sql")
}

// ResetCoreSchema drops and recreates the rental domain tables for tests.
// Order matters: children first on the way down, parents first on the way up.
func ResetCoreSchema(ctx context.Context, pool *pgxpool.Pool) error {
	names := []string{
		"000001_users", "000002_rooms", "000003_rentals", "000004_meters",
		"000005_invoices", "000006_issues", "000007_capture_audit",
	}

	for i := len(names) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, names[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := applyMigration(ctx, pool, name+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

// ResetAuditSchema drops and recreates only the capture audit tables.
func ResetAuditSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000007_capture_audit")
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a tenant user with sensible defaults.
func NewTestUser(t testing.TB, phone string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Phone:        phone,
		FullName:     "Test Tenant",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		Role:         model.RoleTenant,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestRoom creates a vacant room owned by the given admin.
func NewTestRoom(t testing.TB, roomCode, adminID string) *model.Room {
	t.Helper()
	return &model.Room{
		ID:            ulid.Make().String(),
		RoomCode:      roomCode,
		Price:         3000000,
		ElectricPrice: 3500,
		WaterPrice:    15000,
		ExtraFee:      100000,
		Status:        model.RoomStatusVacant,
		AdminID:       adminID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewTestRental creates an active rental linking a user to a room.
func NewTestRental(t testing.TB, userID, roomID string) *model.Rental {
	t.Helper()
	return &model.Rental{
		ID:        ulid.Make().String(),
		UserID:    userID,
		RoomID:    roomID,
		StartDate: time.Now().UTC().AddDate(0, -1, 0),
		Status:    model.RentalStatusRenting,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestMeter creates an unconfirmed meter reading for a rental.
func NewTestMeter(t testing.TB, rentalID string, meterType model.MeterType, month string) *model.Meter {
	t.Helper()
	return &model.Meter{
		ID:        ulid.Make().String(),
		RentalID:  rentalID,
		Type:      meterType,
		Month:     month,
		OldValue:  100,
		NewValue:  150,
		OCRValue:  150,
		Confirmed: false,
		CreatedAt: time.Now().UTC(),
	}
}

// UniquePhone generates a unique valid phone number for tests.
func UniquePhone() string {
	return fmt.Sprintf("09%08d", time.Now().UnixNano()%100000000)
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
