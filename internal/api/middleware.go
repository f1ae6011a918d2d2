package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// UserLookup loads the stored user a token names.
type UserLookup interface {
	CurrentUser(ctx context.Context, p access.Principal) (*models.User, error)
}

// AuthMiddleware is a middleware that validates bearer tokens and stores the
// resulting principal in the request context. The principal's role is the
// user's stored role, not the one signed into the token.
func AuthMiddleware(tokenManager *auth.TokenManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "No token, authorization denied")
				return
			}

			// Parse Bearer token.
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
				return
			}

			p, err := tokenManager.ValidateToken(parts[1])
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token is not valid")
				return
			}

			u, err := users.CurrentUser(r.Context(), p)
			if errors.Is(err, ledger.ErrNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found")
				return
			}
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			p = access.Principal{UserID: u.ID, Role: u.Role}

			next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin rejects requests whose principal is not a platform admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := access.FromContext(r.Context())
		if !ok || !p.IsPlatformAdmin() {
			writeJSONError(w, http.StatusForbidden, "access_denied", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principal returns the authenticated principal. Handlers mounted behind
// AuthMiddleware always have one.
func principal(r *http.Request) access.Principal {
	p, _ := access.FromContext(r.Context())
	return p
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, error, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service failure onto the error envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "validation_error",
			ErrorDescription: verr.Message,
			Errors:           verr.Details,
		})
		return
	}

	var lerr *ledger.Error
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		msg := "Resource not found"
		if errors.As(err, &lerr) {
			msg = lerr.Error()
		}
		writeJSONError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, ledger.ErrAccessDenied):
		msg := "Access denied"
		if errors.As(err, &lerr) {
			msg = lerr.Error()
		}
		writeJSONError(w, http.StatusForbidden, "access_denied", msg)
	case errors.Is(err, ledger.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Server error")
	}
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}
