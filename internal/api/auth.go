package api

import (
	"log/slog"
	"net/http"

	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// AuthHandler handles login, signup and session endpoints.
type AuthHandler struct {
	svc    *ledger.Service
	tokens *auth.TokenManager
	google *auth.GoogleVerifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *ledger.Service, tokens *auth.TokenManager, google *auth.GoogleVerifier) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		tokens: tokens,
		google: google,
	}
}

// TokenResponse is returned by every successful sign-in.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// GoogleLoginRequest carries a Google OAuth2 access token.
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusOK, u)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.svc.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusCreated, u)
}

// Google handles POST /auth/google.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Token is required")
		return
	}

	profile, err := h.google.Verify(r.Context(), req.Token)
	if err != nil {
		slog.WarnContext(r.Context(), "google token rejected", "error", err)
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Google authentication failed")
		return
	}

	u, err := h.svc.LoginWithGoogle(r.Context(), profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusOK, u)
}

// Current handles GET /auth/current.
func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.CurrentUser(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"user": u,
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, r *http.Request, status int, u *models.User) {
	token, err := h.tokens.GenerateToken(u)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", "user_id", u.ID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to generate token")
		return
	}
	writeJSON(w, status, TokenResponse{Token: token, User: u})
}
