package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// MessagesHandler handles the contact-the-admins mailbox.
type MessagesHandler struct {
	svc *ledger.Service
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(svc *ledger.Service) *MessagesHandler {
	return &MessagesHandler{svc: svc}
}

// Send handles POST /messages.
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"message": msg,
	}
	writeJSON(w, http.StatusCreated, response)
}

// List handles GET /messages.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListMessages(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"messages": msgs,
	}
	writeJSON(w, http.StatusOK, response)
}

// MarkRead handles PUT /messages/{id}/read.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := models.MessageID(chi.URLParam(r, "id"))

	msg, err := h.svc.MarkMessageRead(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"message": msg,
	}
	writeJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /messages/{id}.
func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := models.MessageID(chi.URLParam(r, "id"))

	if err := h.svc.DeleteMessage(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully"})
}
