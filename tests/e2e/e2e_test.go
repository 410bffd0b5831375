//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
	"github.com/roomify/roomify/internal/testutil"
)

type identity struct {
	UserID string
	Role   string
	Phone  string
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	RoomCode  string    `json:"room_code"`
	MeterType string    `json:"meter_type"`
	RentalID  string    `json:"rental_id"`
}

type uploadResponse struct {
	ImageURL      string `json:"image_url"`
	FileID        string `json:"file_id"`
	WatermarkData *struct {
		RoomCode   string    `json:"room_code"`
		CapturedAt time.Time `json:"captured_at"`
		VerifiedAt time.Time `json:"verified_at"`
	} `json:"watermark_data"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// TestE2ECaptureFlow walks the full meter-capture path against a running
// server: seed a rental, issue a token, upload an image, and verify the
// token is single-use.
func TestE2ECaptureFlow(t *testing.T) {
	baseURL := envOrDefault("ROOMIFY_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	tenant, rentalID := seedRental(t, dbURL)

	// Issue a capture token
	var token tokenResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/token", tenant,
		map[string]any{"rental_id": rentalID, "meter_type": "electric"}, &token)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from token issue, got %d", status)
	}
	if len(token.Token) != 64 {
		t.Fatalf("token length = %d, want 64", len(token.Token))
	}
	if token.RentalID != rentalID {
		t.Fatalf("token bound to rental %q, want %q", token.RentalID, rentalID)
	}

	// Upload a captured image within the window
	capturedAt := time.Now().UTC().Add(-3 * time.Second)
	upload := map[string]any{
		"token":             token.Token,
		"image":             base64.StdEncoding.EncodeToString([]byte("e2e jpeg bytes")),
		"capture_timestamp": capturedAt.Format(time.RFC3339),
	}

	var accepted uploadResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/upload", tenant, upload, &accepted)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from upload, got %d", status)
	}
	if accepted.ImageURL == "" || accepted.FileID == "" {
		t.Fatalf("upload response missing artifact fields: %+v", accepted)
	}
	if accepted.WatermarkData == nil || accepted.WatermarkData.VerifiedAt.IsZero() {
		t.Fatalf("upload response missing watermark data")
	}

	// The stored image must be publicly reachable
	assertArtifact(t, accepted.ImageURL)

	// The token is consumed: replay gets the generic 401
	var replayErr errorResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/upload", tenant, upload, &replayErr)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 on token replay, got %d", status)
	}
	if replayErr.Error != "Invalid, expired, or already used token. Please request a new capture token." {
		t.Fatalf("unexpected replay error: %q", replayErr.Error)
	}
}

// TestE2ECaptureLateUpload verifies the upload-delay bound end to end.
func TestE2ECaptureLateUpload(t *testing.T) {
	baseURL := envOrDefault("ROOMIFY_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	tenant, rentalID := seedRental(t, dbURL)

	var token tokenResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/token", tenant,
		map[string]any{"rental_id": rentalID, "meter_type": "water"}, &token)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from token issue, got %d", status)
	}

	// Claim the capture happened 95 seconds ago
	late := map[string]any{
		"token":             token.Token,
		"image":             base64.StdEncoding.EncodeToString([]byte("late jpeg bytes")),
		"capture_timestamp": time.Now().UTC().Add(-95 * time.Second).Format(time.RFC3339),
	}

	var lateErr errorResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/upload", tenant, late, &lateErr)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 on late upload, got %d", status)
	}
	if lateErr.Error != "Upload too late: image must be uploaded within 90 seconds of capture" {
		t.Fatalf("unexpected error: %q", lateErr.Error)
	}

	// The rejection did not burn the token; a timely retry succeeds.
	retry := map[string]any{
		"token":             token.Token,
		"image":             late["image"],
		"capture_timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/capture/upload", tenant, retry, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on timely retry, got %d", status)
	}
}

// seedRental creates an admin, tenant, room and active rental directly in
// the database and returns the tenant identity plus the rental ID.
func seedRental(t *testing.T, dbURL string) (identity, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	hash, err := auth.HashPassword("e2e-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	admin := testutil.NewTestUser(t, testutil.UniquePhone())
	admin.Role = model.RoleAdmin
	admin.PasswordHash = hash
	if err := repo.CreateUser(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	tenant := testutil.NewTestUser(t, testutil.UniquePhone())
	tenant.PasswordHash = hash
	if err := repo.CreateUser(ctx, tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	room := testutil.NewTestRoom(t, fmt.Sprintf("e2e-%d", time.Now().UnixNano()%1000000), admin.ID)
	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	rental := testutil.NewTestRental(t, tenant.ID, room.ID)
	rental.ID = ulid.Make().String()
	if err := repo.CreateRental(ctx, rental); err != nil {
		t.Fatalf("create rental: %v", err)
	}

	return identity{UserID: tenant.ID, Role: model.RoleTenant, Phone: tenant.Phone}, rental.ID
}

func assertArtifact(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("fetch artifact: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 fetching artifact, got %d", resp.StatusCode)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func doJSON(t *testing.T, method, url string, id identity, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id.UserID != "" {
		req.Header.Set("X-User-Id", id.UserID)
		req.Header.Set("X-User-Role", id.Role)
		req.Header.Set("X-User-Phone", id.Phone)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
