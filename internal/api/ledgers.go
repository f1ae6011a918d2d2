package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// LedgersHandler handles ledger-related API endpoints.
type LedgersHandler struct {
	svc *ledger.Service
}

// NewLedgersHandler creates a new LedgersHandler.
func NewLedgersHandler(svc *ledger.Service) *LedgersHandler {
	return &LedgersHandler{svc: svc}
}

// List handles GET /ledgers.
func (h *LedgersHandler) List(w http.ResponseWriter, r *http.Request) {
	ledgers, err := h.svc.ListLedgersForUser(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"ledgers": ledgers,
	}
	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /ledgers/{id}.
func (h *LedgersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "id"))

	view, err := h.svc.GetLedger(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Create handles POST /ledgers.
func (h *LedgersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLedgerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.svc.CreateLedger(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"ledger": l,
	}
	writeJSON(w, http.StatusCreated, response)
}

// Update handles PUT /ledgers/{id}.
func (h *LedgersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "id"))

	var req models.UpdateLedgerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.svc.UpdateLedger(r.Context(), principal(r), id, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"ledger": l,
	}
	writeJSON(w, http.StatusOK, response)
}

// UpdatePermissions handles PUT /ledgers/{id}/permissions.
func (h *LedgersHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "id"))

	var req models.UpdatePermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.svc.UpdateLedgerPermissions(r.Context(), principal(r), id, req.Permissions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"ledger": l,
	}
	writeJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /ledgers/{id}.
func (h *LedgersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "id"))

	if err := h.svc.DeleteLedger(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Ledger deleted successfully"})
}
