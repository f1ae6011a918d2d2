package store

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// CreateTransactions stores txns in a single bbolt transaction. Each
// transaction gets the next bucket sequence as its Seq, in slice order.
func (s *Store) CreateTransactions(ctx context.Context, txns []*models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seqs := make([]int64, len(txns))
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTransactions)
		if err != nil {
			return err
		}
		for i, t := range txns {
			if t.ID == "" {
				return fmt.Errorf("transaction %d has no ID", i)
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			stored := *t
			stored.Seq = int64(seq)
			data, err := json.Marshal(&stored)
			if err != nil {
				return fmt.Errorf("failed to marshal transaction: %w", err)
			}
			if err := b.Put([]byte(t.ID), data); err != nil {
				return err
			}
			seqs[i] = stored.Seq
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	for i, t := range txns {
		t.Seq = seqs[i]
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id models.TransactionID) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.Get(ctx, BucketTransactions, id.String(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions retrieves the transactions of one ledger in no particular order.
func (s *Store) ListTransactions(ctx context.Context, ledger models.LedgerID) ([]*models.Transaction, error) {
	return listAs(ctx, s, BucketTransactions, func(t *models.Transaction) bool {
		return t.Ledger == ledger
	})
}

// UpdateTransaction overwrites an existing transaction, keeping its Seq.
func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTransactions)
		if err != nil {
			return err
		}
		existing := b.Get([]byte(t.ID))
		if existing == nil {
			return ErrNotFound
		}
		var prev models.Transaction
		if err := json.Unmarshal(existing, &prev); err != nil {
			return fmt.Errorf("failed to unmarshal transaction: %w", err)
		}
		t.Seq = prev.Seq
		return putJSON(tx, BucketTransactions, t.ID.String(), t)
	})
}

// DeleteTransaction deletes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	return s.Delete(ctx, BucketTransactions, id.String())
}

// DeleteTransactionsByLedger deletes every transaction of ledger in one
// bbolt transaction.
func (s *Store) DeleteTransactionsByLedger(ctx context.Context, ledger models.LedgerID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTransactions)
		if err != nil {
			return err
		}
		var keys [][]byte
		err = b.ForEach(func(k, v []byte) error {
			var t models.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if t.Ledger == ledger {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	return removed, err
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	return s.Count(ctx, BucketTransactions)
}

// CountLedgerTransactions returns the number of transactions of one ledger.
func (s *Store) CountLedgerTransactions(ctx context.Context, ledger models.LedgerID) (int, error) {
	txns, err := s.ListTransactions(ctx, ledger)
	if err != nil {
		return 0, err
	}
	return len(txns), nil
}
