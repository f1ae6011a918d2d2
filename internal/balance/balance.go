// Package balance computes running balances over a ledger's transactions.
//
// Balances are derived on every read and never written back: the stored
// amounts are the single source of truth.
package balance

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// Sort orders transactions by date ascending. Transactions sharing a date
// keep their creation order (Seq), and equal Seq values keep their input order.
// The input slice is not modified.
func Sort(txns []*models.Transaction) []*models.Transaction {
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b *models.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	return sorted
}

// WithBalances sorts txns and annotates each with the balance after it,
// starting from zero. An empty input yields an empty, non-nil result.
func WithBalances(txns []*models.Transaction) []models.BalancedTransaction {
	out := make([]models.BalancedTransaction, 0, len(txns))
	running := decimal.Zero
	for _, t := range Sort(txns) {
		running = running.Add(t.Amount)
		out = append(out, models.BalancedTransaction{Transaction: *t, Balance: running})
	}
	return out
}

// Final returns the closing balance of an annotated sequence.
func Final(balanced []models.BalancedTransaction) decimal.Decimal {
	if len(balanced) == 0 {
		return decimal.Zero
	}
	return balanced[len(balanced)-1].Balance
}

// Sum returns the plain sum of the transaction amounts.
func Sum(txns []*models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}
