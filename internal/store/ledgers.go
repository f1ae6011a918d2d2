package store

import (
	"context"
	"fmt"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// CreateLedger stores a new ledger with its permissions inline.
func (s *Store) CreateLedger(ctx context.Context, l *models.Ledger) error {
	if l.ID == "" {
		return fmt.Errorf("ledger has no ID")
	}
	if err := s.Put(ctx, BucketLedgers, l.ID.String(), l); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// GetLedger retrieves a ledger by ID.
func (s *Store) GetLedger(ctx context.Context, id models.LedgerID) (*models.Ledger, error) {
	var l models.Ledger
	if err := s.Get(ctx, BucketLedgers, id.String(), &l); err != nil {
		return nil, err
	}
	if l.Permissions == nil {
		l.Permissions = []models.Permission{}
	}
	return &l, nil
}

// ListLedgers retrieves all ledgers.
func (s *Store) ListLedgers(ctx context.Context) ([]*models.Ledger, error) {
	ledgers, err := listAs[models.Ledger](ctx, s, BucketLedgers, nil)
	if err != nil {
		return nil, err
	}
	for _, l := range ledgers {
		if l.Permissions == nil {
			l.Permissions = []models.Permission{}
		}
	}
	return ledgers, nil
}

// UpdateLedger overwrites an existing ledger, permissions included.
func (s *Store) UpdateLedger(ctx context.Context, l *models.Ledger) error {
	return s.Replace(ctx, BucketLedgers, l.ID.String(), l)
}

// DeleteLedger deletes a ledger by ID. Its transactions are not touched.
func (s *Store) DeleteLedger(ctx context.Context, id models.LedgerID) error {
	return s.Delete(ctx, BucketLedgers, id.String())
}
