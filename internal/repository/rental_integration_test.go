//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/testutil"
)

// ============================================================================
// Rental Repository Integration Tests
// ============================================================================

func TestIntegrationRentalRepository_CreateRental(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	user, room := seedUserAndRoom(t, ctx, repo, "R101")
	rental := testutil.NewTestRental(t, user.ID, room.ID)

	if err := repo.CreateRental(ctx, rental); err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}

	retrieved, err := repo.GetRentalByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetRentalByID failed: %v", err)
	}

	if retrieved.UserID != user.ID {
		t.Errorf("UserID mismatch: got %q, want %q", retrieved.UserID, user.ID)
	}
	if retrieved.RoomID != room.ID {
		t.Errorf("RoomID mismatch: got %q, want %q", retrieved.RoomID, room.ID)
	}
	if retrieved.Status != model.RentalStatusRenting {
		t.Errorf("Status mismatch: got %q, want %q", retrieved.Status, model.RentalStatusRenting)
	}
	if retrieved.EndDate != nil {
		t.Errorf("EndDate should be nil for an active rental, got %v", retrieved.EndDate)
	}
}

func TestIntegrationRentalRepository_GetRentalByID_NotFound(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	_, err := repo.GetRentalByID(ctx, "nonexistent-rental-id")
	if !errors.Is(err, ErrRentalNotFound) {
		t.Errorf("expected ErrRentalNotFound, got %v", err)
	}
}

func TestIntegrationRentalRepository_ActiveRentalPerRoom(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	user, room := seedUserAndRoom(t, ctx, repo, "R102")
	first := testutil.NewTestRental(t, user.ID, room.ID)

	if err := repo.CreateRental(ctx, first); err != nil {
		t.Fatalf("CreateRental (first) failed: %v", err)
	}

	// The partial unique index on rentals(room_id) WHERE status='renting'
	// rejects a second active rental for the same room.
	second := testutil.NewTestRental(t, user.ID, room.ID)
	if err := repo.CreateRental(ctx, second); err == nil {
		t.Fatal("expected second active rental on the same room to fail")
	}

	active, err := repo.GetActiveRentalByRoomID(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetActiveRentalByRoomID failed: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("active rental mismatch: got %q, want %q", active.ID, first.ID)
	}
}

func TestIntegrationRentalRepository_EndRental(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	user, room := seedUserAndRoom(t, ctx, repo, "R103")
	rental := testutil.NewTestRental(t, user.ID, room.ID)

	if err := repo.CreateRental(ctx, rental); err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}

	endDate := time.Now().UTC()
	rental.EndDate = &endDate
	rental.Status = model.RentalStatusEnded

	if err := repo.UpdateRental(ctx, rental); err != nil {
		t.Fatalf("UpdateRental failed: %v", err)
	}

	retrieved, err := repo.GetRentalByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetRentalByID failed: %v", err)
	}
	if retrieved.Status != model.RentalStatusEnded {
		t.Errorf("Status mismatch: got %q, want %q", retrieved.Status, model.RentalStatusEnded)
	}
	if retrieved.EndDate == nil {
		t.Fatal("EndDate should be set after ending the rental")
	}

	// The room is free for a new rental once the old one ended.
	if _, err := repo.GetActiveRentalByRoomID(ctx, room.ID); !errors.Is(err, ErrRentalNotFound) {
		t.Errorf("expected ErrRentalNotFound after ending rental, got %v", err)
	}

	replacement := testutil.NewTestRental(t, user.ID, room.ID)
	if err := repo.CreateRental(ctx, replacement); err != nil {
		t.Fatalf("CreateRental (replacement) failed: %v", err)
	}
}

func TestIntegrationRentalRepository_ListRentalsByUserID(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	user, roomA := seedUserAndRoom(t, ctx, repo, "R104")
	admin, err := repo.GetUserByID(ctx, roomA.AdminID)
	if err != nil {
		t.Fatalf("GetUserByID (admin) failed: %v", err)
	}

	roomB := testutil.NewTestRoom(t, "R105", admin.ID)
	if err := repo.CreateRoom(ctx, roomB); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	other := testutil.NewTestUser(t, testutil.UniquePhone())
	if err := repo.CreateUser(ctx, other); err != nil {
		t.Fatalf("CreateUser (other) failed: %v", err)
	}

	mine := testutil.NewTestRental(t, user.ID, roomA.ID)
	theirs := testutil.NewTestRental(t, other.ID, roomB.ID)
	for _, rental := range []*model.Rental{mine, theirs} {
		if err := repo.CreateRental(ctx, rental); err != nil {
			t.Fatalf("CreateRental failed: %v", err)
		}
	}

	rentals, err := repo.ListRentalsByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRentalsByUserID failed: %v", err)
	}
	if len(rentals) != 1 {
		t.Fatalf("expected 1 rental for user, got %d", len(rentals))
	}
	if rentals[0].ID != mine.ID {
		t.Errorf("rental mismatch: got %q, want %q", rentals[0].ID, mine.ID)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newCoreTestEnv(t *testing.T) (context.Context, *Repository) {
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

	if err := testutil.ResetCoreSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset core schema: %v", err)
	}

	return ctx, repo
}

// seedUserAndRoom creates an admin, a tenant, and a room owned by the admin.
func seedUserAndRoom(t *testing.T, ctx context.Context, repo *Repository, roomCode string) (*model.User, *model.Room) {
	t.Helper()

	admin := testutil.NewTestUser(t, testutil.UniquePhone())
	admin.Role = model.RoleAdmin
	admin.FullName = "Test Admin"
	if err := repo.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser (admin) failed: %v", err)
	}

	tenant := testutil.NewTestUser(t, testutil.UniquePhone())
	if err := repo.CreateUser(ctx, tenant); err != nil {
		t.Fatalf("CreateUser (tenant) failed: %v", err)
	}

	room := testutil.NewTestRoom(t, roomCode, admin.ID)
	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	return tenant, room
}
