package middleware

import (
	"log/slog"
	"net/http"

	"github.com/roomify/roomify/internal/auth"
	"github.com/roomify/roomify/internal/model"
)

// Identity headers set by the authenticating gateway.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRole  = "X-User-Role"
	HeaderUserPhone = "X-User-Phone"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
}

// Auth returns a middleware that reads the gateway identity headers and
// injects the auth context into the request. Requests without a valid
// identity are rejected with the same generic 401 regardless of which
// header is missing or malformed.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(HeaderUserID)
			role := r.Header.Get(HeaderUserRole)
			phone := r.Header.Get(HeaderUserPhone)

			if userID == "" || !model.IsValidRole(role) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_identity"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				UserID: userID,
				Phone:  phone,
				Role:   role,
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns a middleware that rejects non-admin callers with
// 403. Must run after Auth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeAuthError(w)
				return
			}

			if !authCtx.IsAdmin() {
				logger.Warn("authorization failed",
					slog.String("reason", "admin_required"),
					slog.String("user_id", authCtx.UserID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeForbiddenError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Authentication required","code":"UNAUTHORIZED"}`))
}

// writeForbiddenError writes a 403 Forbidden response.
func writeForbiddenError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"Admin access required","code":"FORBIDDEN"}`))
}
