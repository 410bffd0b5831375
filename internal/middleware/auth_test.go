package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth_ValidHeaders(t *testing.T) {
	var captured *model.AuthContext

	handler := Auth(AuthConfig{Logger: testLogger()})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = auth.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderUserRole, model.RoleTenant)
	req.Header.Set(HeaderUserPhone, "0912345678")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if captured == nil {
		t.Fatal("Expected auth context to be injected")
	}
	if captured.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", captured.UserID, "user-1")
	}
	if captured.Role != model.RoleTenant {
		t.Errorf("Role = %q, want %q", captured.Role, model.RoleTenant)
	}
	if captured.Phone != "0912345678" {
		t.Errorf("Phone = %q, want %q", captured.Phone, "0912345678")
	}
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{
			name:    "no headers",
			headers: nil,
		},
		{
			name: "missing user ID",
			headers: map[string]string{
				HeaderUserRole: model.RoleTenant,
			},
		},
		{
			name: "missing role",
			headers: map[string]string{
				HeaderUserID: "user-1",
			},
		},
		{
			name: "unknown role",
			headers: map[string]string{
				HeaderUserID:   "user-1",
				HeaderUserRole: "superuser",
			},
		},
	}

	handler := Auth(AuthConfig{Logger: testLogger()})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached on auth failure")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin allowed", model.RoleAdmin, http.StatusOK},
		{"tenant forbidden", model.RoleTenant, http.StatusForbidden},
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(testLogger())(inner)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", nil)
			ctx := auth.ContextWithAuth(req.Context(), &model.AuthContext{
				UserID: "user-1",
				Role:   tt.role,
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequireAdmin_NoAuthContext(t *testing.T) {
	handler := RequireAdmin(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached without auth context")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
