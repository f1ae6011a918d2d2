package ledger

import (
	"context"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
)

// Stats summarizes the stored records.
type Stats struct {
	Users          int `json:"users"`
	Ledgers        int `json:"ledgers"`
	Transactions   int `json:"transactions"`
	Messages       int `json:"messages"`
	UnreadMessages int `json:"unread_messages"`
}

// Stats counts users, ledgers, transactions and messages.
func (s *Service) Stats(ctx context.Context, p access.Principal) (*Stats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	ledgers, err := s.repo.ListLedgers(ctx)
	if err != nil {
		return nil, storageError("list ledgers", err)
	}
	txns, err := s.repo.CountTransactions(ctx)
	if err != nil {
		return nil, storageError("count transactions", err)
	}
	msgs, err := s.repo.ListMessages(ctx)
	if err != nil {
		return nil, storageError("list messages", err)
	}

	st := &Stats{
		Users:        len(users),
		Ledgers:      len(ledgers),
		Transactions: txns,
		Messages:     len(msgs),
	}
	for _, m := range msgs {
		if !m.IsRead {
			st.UnreadMessages++
		}
	}
	return st, nil
}
