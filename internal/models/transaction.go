package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used on the wire and in CSV files.
const DateFormat = "2006-01-02"

// Transaction is a dated, signed amount recorded on a ledger. A positive
// amount is a credit, a negative amount a debit.
type Transaction struct {
	ID          TransactionID   `json:"id"`
	Ledger      LedgerID        `json:"ledger"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Seq is the storage insertion sequence; it orders transactions sharing a date.
	Seq       int64     `json:"seq"`
	CreatedBy UserID    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BalancedTransaction is a transaction annotated with the running balance
// after it. The balance is computed on read and never persisted.
type BalancedTransaction struct {
	Transaction
	Balance decimal.Decimal `json:"balance"`
}

// LedgerView is a ledger together with its balanced transactions.
type LedgerView struct {
	Ledger         *Ledger               `json:"ledger"`
	Transactions   []BalancedTransaction `json:"transactions"`
	Balance        decimal.Decimal       `json:"balance"`
	BalanceDisplay string                `json:"balance_display"`
}

// CreateTransactionRequest represents the request to create a transaction.
type CreateTransactionRequest struct {
	LedgerID    LedgerID         `json:"ledgerId"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

// UpdateTransactionRequest represents a partial transaction update.
type UpdateTransactionRequest struct {
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// ImportTransactionsRequest carries raw CSV rows for a bulk import.
type ImportTransactionsRequest struct {
	LedgerID     LedgerID `json:"ledgerId"`
	Transactions []RawRow `json:"transactions"`
}

// RawRow is one untyped tabular row keyed by column name. Values are kept as
// the caller sent them; JSON numbers are accepted and kept in their literal form.
type RawRow map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	row := make(RawRow, len(fields))
	for k, raw := range fields {
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.Equal(raw, []byte("null")):
			continue
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			row[k] = s
		default:
			row[k] = string(raw)
		}
	}
	*r = row
	return nil
}
