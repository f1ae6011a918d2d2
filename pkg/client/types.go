package client

import (
	"fmt"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// LedgersResponse represents the response from GET /ledgers.
type LedgersResponse struct {
	Ledgers []models.LedgerSummary `json:"ledgers"`
}

// TransactionResponse represents the response from POST /transactions.
type TransactionResponse struct {
	Transaction models.Transaction `json:"transaction"`
}

// ImportResponse represents the response from the import endpoints.
type ImportResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// TokenResponse represents the response from the sign-in endpoints.
type TokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// ErrorResponse represents an error response from the ledger API.
type ErrorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	ErrorResponse
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("ledger API error (status %d): %s", e.StatusCode, e.ErrorResponse.Error)
	if e.ErrorDescription != "" {
		msg += " - " + e.ErrorDescription
	}
	if len(e.Errors) > 0 {
		msg += " [" + strings.Join(e.Errors, "; ") + "]"
	}
	return msg
}
