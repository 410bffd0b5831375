//go:build integration

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
	"github.com/roomify/roomify/internal/testutil"
)

// ============================================================================
// Rental Lifecycle + Billing Integration Tests
// ============================================================================

func TestIntegrationRentalService_OccupancyConflict(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)

	tenant, room := seedTenantAndRoom(t, ctx, repo, "B201")
	rentals := NewRentalService(repo, nil, nil, nil)

	first, err := rentals.CreateRental(ctx, CreateRentalInput{UserID: tenant.ID, RoomID: room.ID})
	if err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}

	// Starting the rental flips the room to occupied.
	updated, err := repo.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoomByID failed: %v", err)
	}
	if updated.Status != model.RoomStatusOccupied {
		t.Errorf("room status = %q, want %q", updated.Status, model.RoomStatusOccupied)
	}

	// A second rental on the occupied room is refused.
	if _, err := rentals.CreateRental(ctx, CreateRentalInput{UserID: tenant.ID, RoomID: room.ID}); !errors.Is(err, ErrRoomNotVacant) {
		t.Errorf("expected ErrRoomNotVacant, got %v", err)
	}

	// Ending the rental frees the room again.
	if _, err := rentals.EndRental(ctx, first.ID, time.Time{}); err != nil {
		t.Fatalf("EndRental failed: %v", err)
	}
	updated, err = repo.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoomByID failed: %v", err)
	}
	if updated.Status != model.RoomStatusVacant {
		t.Errorf("room status after end = %q, want %q", updated.Status, model.RoomStatusVacant)
	}
}

func TestIntegrationInvoiceService_GenerateFromMeters(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)

	tenant, room := seedTenantAndRoom(t, ctx, repo, "B202")
	rentalSvc := NewRentalService(repo, nil, nil, nil)
	meterSvc := NewMeterService(repo)
	invoiceSvc := NewInvoiceService(repo, nil)

	rental, err := rentalSvc.CreateRental(ctx, CreateRentalInput{UserID: tenant.ID, RoomID: room.ID})
	if err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}

	const month = "2026-08"

	// No readings yet: generation is refused.
	if _, err := invoiceSvc.GenerateInvoice(ctx, rental.ID, month); !errors.Is(err, ErrMissingMeterReadings) {
		t.Fatalf("expected ErrMissingMeterReadings, got %v", err)
	}

	electric, err := meterSvc.RecordReading(ctx, RecordReadingInput{
		RentalID: rental.ID, Type: model.MeterElectric, Month: month, NewValue: 120,
	})
	if err != nil {
		t.Fatalf("RecordReading (electric) failed: %v", err)
	}
	water, err := meterSvc.RecordReading(ctx, RecordReadingInput{
		RentalID: rental.ID, Type: model.MeterWater, Month: month, NewValue: 30,
	})
	if err != nil {
		t.Fatalf("RecordReading (water) failed: %v", err)
	}

	// Unconfirmed readings do not bill.
	if _, err := invoiceSvc.GenerateInvoice(ctx, rental.ID, month); !errors.Is(err, ErrMeterNotConfirmed) {
		t.Fatalf("expected ErrMeterNotConfirmed, got %v", err)
	}

	if _, err := meterSvc.ConfirmReading(ctx, electric.ID, nil); err != nil {
		t.Fatalf("ConfirmReading (electric) failed: %v", err)
	}
	if _, err := meterSvc.ConfirmReading(ctx, water.ID, nil); err != nil {
		t.Fatalf("ConfirmReading (water) failed: %v", err)
	}

	invoice, err := invoiceSvc.GenerateInvoice(ctx, rental.ID, month)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}

	// Consumption is new - old; old is 0 with no prior confirmed reading.
	// Room factory prices: room 3000000, electric 3500/unit, water 15000/unit,
	// extra fee 100000.
	wantElectric := int64(120 * 3500)
	wantWater := int64(30 * 15000)
	wantTotal := room.Price + wantElectric + wantWater + room.ExtraFee

	if invoice.ElectricCost != wantElectric {
		t.Errorf("ElectricCost = %d, want %d", invoice.ElectricCost, wantElectric)
	}
	if invoice.WaterCost != wantWater {
		t.Errorf("WaterCost = %d, want %d", invoice.WaterCost, wantWater)
	}
	if invoice.Total != wantTotal {
		t.Errorf("Total = %d, want %d", invoice.Total, wantTotal)
	}
	if invoice.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("PaymentStatus = %q, want %q", invoice.PaymentStatus, model.PaymentUnpaid)
	}

	// Monthly billing is once per rental.
	if _, err := invoiceSvc.GenerateInvoice(ctx, rental.ID, month); !errors.Is(err, ErrInvoiceExists) {
		t.Errorf("expected ErrInvoiceExists, got %v", err)
	}
}

func TestIntegrationInvoiceService_MarkPaid(t *testing.T) {
	ctx, repo := newServiceTestEnv(t)

	tenant, room := seedTenantAndRoom(t, ctx, repo, "B203")
	rentalSvc := NewRentalService(repo, nil, nil, nil)
	meterSvc := NewMeterService(repo)
	invoiceSvc := NewInvoiceService(repo, nil)

	rental, err := rentalSvc.CreateRental(ctx, CreateRentalInput{UserID: tenant.ID, RoomID: room.ID})
	if err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}

	const month = "2026-08"
	for _, meterType := range []model.MeterType{model.MeterElectric, model.MeterWater} {
		meter, err := meterSvc.RecordReading(ctx, RecordReadingInput{
			RentalID: rental.ID, Type: meterType, Month: month, NewValue: 10,
		})
		if err != nil {
			t.Fatalf("RecordReading failed: %v", err)
		}
		if _, err := meterSvc.ConfirmReading(ctx, meter.ID, nil); err != nil {
			t.Fatalf("ConfirmReading failed: %v", err)
		}
	}

	invoice, err := invoiceSvc.GenerateInvoice(ctx, rental.ID, month)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}

	paid, err := invoiceSvc.MarkPaid(ctx, invoice.ID, model.MethodCash, "")
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.PaymentStatus != model.PaymentPaid {
		t.Errorf("PaymentStatus = %q, want %q", paid.PaymentStatus, model.PaymentPaid)
	}
	if paid.PaidAt == nil {
		t.Error("PaidAt should be set")
	}

	// Settled invoices stay settled.
	if _, err := invoiceSvc.MarkPaid(ctx, invoice.ID, model.MethodCash, ""); !errors.Is(err, ErrInvoicePaid) {
		t.Errorf("expected ErrInvoicePaid, got %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newServiceTestEnv(t *testing.T) (context.Context, *repository.Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := repository.New(ctx, dbURL)
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

func seedTenantAndRoom(t *testing.T, ctx context.Context, repo *repository.Repository, roomCode string) (*model.User, *model.Room) {
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
