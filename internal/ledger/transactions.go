package ledger

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/csvio"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// CreateTransaction records one transaction on an existing ledger.
func (s *Service) CreateTransaction(ctx context.Context, p access.Principal, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	l, err := s.ledger(ctx, req.LedgerID)
	if err != nil {
		return nil, err
	}

	var problems []string
	description := strings.TrimSpace(req.Description)
	if description == "" {
		problems = append(problems, "Description is required")
	}
	if req.Amount == nil {
		problems = append(problems, "Amount is required")
	} else if csvio.CheckAmount(*req.Amount) != nil {
		problems = append(problems, csvio.AmountOutOfRangeMessage)
	}
	date, err := csvio.ParseDate(req.Date)
	if strings.TrimSpace(req.Date) == "" {
		problems = append(problems, "Date is required")
	} else if err != nil {
		problems = append(problems, "Invalid date format. Please use YYYY-MM-DD format")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Message: "Invalid transaction", Details: problems}
	}

	t := &models.Transaction{
		ID:          models.NewTransactionID(),
		Ledger:      l.ID,
		Date:        date,
		Description: description,
		Amount:      *req.Amount,
		CreatedBy:   p.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateTransactions(ctx, []*models.Transaction{t}); err != nil {
		return nil, storageError("create transaction", err)
	}
	return t, nil
}

// UpdateTransaction replaces the supplied fields of a transaction. Empty
// dates and descriptions are ignored. The ledger reference never changes.
func (s *Service) UpdateTransaction(ctx context.Context, p access.Principal, id models.TransactionID, req *models.UpdateTransactionRequest) (*models.Transaction, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	t, err := s.transaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err := csvio.ParseDate(*req.Date)
		if err != nil {
			return nil, invalid("Invalid date format. Please use YYYY-MM-DD format")
		}
		t.Date = date
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			t.Description = d
		}
	}
	if req.Amount != nil {
		if csvio.CheckAmount(*req.Amount) != nil {
			return nil, invalid(csvio.AmountOutOfRangeMessage)
		}
		t.Amount = *req.Amount
	}

	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return nil, storageError("update transaction", err)
	}
	return t, nil
}

// DeleteTransaction removes one transaction.
func (s *Service) DeleteTransaction(ctx context.Context, p access.Principal, id models.TransactionID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	t, err := s.transaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, t.ID); err != nil {
		return storageError("delete transaction", err)
	}
	return nil
}

// ImportTransactions validates rows and stores them as one batch. If any row
// is invalid nothing is stored and the error lists every rejected row.
func (s *Service) ImportTransactions(ctx context.Context, p access.Principal, ledgerID models.LedgerID, rows []models.RawRow) (int, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	l, err := s.ledger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, invalid("Invalid transactions data")
	}
	return s.importRows(ctx, p, l, rows)
}

// ImportCSV reads a CSV document and imports it like ImportTransactions.
func (s *Service) ImportCSV(ctx context.Context, p access.Principal, ledgerID models.LedgerID, r io.Reader) (int, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	l, err := s.ledger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}

	rows, err := csvio.ReadRows(r)
	if err != nil && !errors.Is(err, csvio.ErrEmptyFile) {
		return 0, invalid("Invalid CSV file: %v", err)
	}
	if len(rows) == 0 {
		return 0, invalid("No valid transactions found in CSV")
	}
	return s.importRows(ctx, p, l, rows)
}

func (s *Service) importRows(ctx context.Context, p access.Principal, l *models.Ledger, rows []models.RawRow) (int, error) {
	res := csvio.ParseAndValidate(rows)
	if res.Failed() {
		return 0, &ValidationError{
			Message: "Validation errors",
			Details: res.Messages(),
			Rows:    res.Rows(),
		}
	}

	now := s.now()
	txns := make([]*models.Transaction, len(res.Valid))
	for i, e := range res.Valid {
		txns[i] = &models.Transaction{
			ID:          models.NewTransactionID(),
			Ledger:      l.ID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			CreatedBy:   p.UserID,
			CreatedAt:   now,
		}
	}
	if err := s.repo.CreateTransactions(ctx, txns); err != nil {
		return 0, storageError("import transactions", err)
	}
	s.logger.InfoContext(ctx, "transactions imported", "ledger_id", l.ID, "count", len(txns), "by", p.UserID)
	return len(txns), nil
}

func (s *Service) transaction(ctx context.Context, id models.TransactionID) (*models.Transaction, error) {
	if id == "" {
		return nil, notFound("Transaction")
	}
	t, err := s.repo.GetTransaction(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Transaction")
	}
	if err != nil {
		return nil, storageError("get transaction", err)
	}
	return t, nil
}
