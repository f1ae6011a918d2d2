package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// UsersHandler handles the user administration endpoints.
type UsersHandler struct {
	svc *ledger.Service
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(svc *ledger.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"users": users,
	}
	writeJSON(w, http.StatusOK, response)
}

// Invite handles POST /users.
func (h *UsersHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req models.InviteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.svc.InviteUser(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"message": "Invitation sent successfully",
		"user":    u,
	}
	writeJSON(w, http.StatusCreated, response)
}

// Update handles PUT /users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := models.UserID(chi.URLParam(r, "id"))

	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.svc.UpdateUser(r.Context(), principal(r), id, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"user": u,
	}
	writeJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := models.UserID(chi.URLParam(r, "id"))

	if err := h.svc.DeleteUser(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
