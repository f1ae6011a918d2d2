package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Domi-X-in/financial-ledger-app/internal/csvio"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/metrics"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// maxUploadSize bounds multipart CSV uploads.
const maxUploadSize = 5 << 20

// TransactionsHandler handles transaction-related API requests, including CSV
// import and export.
type TransactionsHandler struct {
	svc       *ledger.Service
	metrics   *metrics.Metrics
	uploadDir string
}

// NewTransactionsHandler creates a new TransactionsHandler. Uploaded files are
// staged under uploadDir while they are parsed.
func NewTransactionsHandler(svc *ledger.Service, m *metrics.Metrics, uploadDir string) *TransactionsHandler {
	return &TransactionsHandler{
		svc:       svc,
		metrics:   m,
		uploadDir: uploadDir,
	}
}

// ListByLedger handles GET /transactions/ledger/{ledgerId}.
func (h *TransactionsHandler) ListByLedger(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "ledgerId"))

	txns, err := h.svc.ListTransactions(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"transactions": txns,
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.svc.CreateTransaction(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"transaction": txn,
	}
	writeJSON(w, http.StatusCreated, response)
}

// Update handles PUT /transactions/{id}.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := models.TransactionID(chi.URLParam(r, "id"))

	var req models.UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.svc.UpdateTransaction(r.Context(), principal(r), id, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"transaction": txn,
	}
	writeJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := models.TransactionID(chi.URLParam(r, "id"))

	if err := h.svc.DeleteTransaction(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// Import handles POST /transactions/import/csv with rows already parsed by the client.
func (h *TransactionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportTransactionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.svc.ImportTransactions(r.Context(), principal(r), req.LedgerID, req.Transactions)
	h.writeImportResult(w, r, n, err)
}

// ImportFile handles POST /transactions/import/file with a multipart upload.
func (h *TransactionsHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	ledgerID := r.FormValue("ledgerId")
	if ledgerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing ledgerId")
		return
	}

	file, _, err := r.FormFile("csvFile")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "No file uploaded")
		return
	}
	defer file.Close()

	staged, err := h.stage(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to stage upload", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to save file")
		return
	}
	defer func() { _ = os.Remove(staged) }()

	f, err := os.Open(staged)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to read file")
		return
	}
	defer f.Close()

	n, err := h.svc.ImportCSV(r.Context(), principal(r), models.LedgerID(ledgerID), f)
	h.writeImportResult(w, r, n, err)
}

// stage copies an upload into the upload directory and returns its path.
func (h *TransactionsHandler) stage(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(h.uploadDir, "import_"+uuid.NewString()+".csv")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

func (h *TransactionsHandler) writeImportResult(w http.ResponseWriter, r *http.Request, n int, err error) {
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			h.metrics.ImportRejected()
		}
		writeServiceError(w, r, err)
		return
	}
	h.metrics.Imported(n)

	response := map[string]interface{}{
		"message": fmt.Sprintf("Successfully imported %d transactions", n),
		"count":   n,
	}
	writeJSON(w, http.StatusCreated, response)
}

// Export handles GET /transactions/ledger/{ledgerId}/export/csv.
func (h *TransactionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := models.LedgerID(chi.URLParam(r, "ledgerId"))

	name, body, err := h.svc.ExportCSV(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCSV(w, name, body)
}

// Template handles GET /transactions/template/csv.
func (h *TransactionsHandler) Template(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := csvio.WriteTemplate(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to generate template")
		return
	}
	writeCSV(w, "transaction_template.csv", buf.Bytes())
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
