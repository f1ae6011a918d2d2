package ledger

import (
	"context"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// UserStore persists users. Lookups of absent records return models.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByInviteToken(ctx context.Context, token string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id models.UserID) error
}

// LedgerStore persists ledgers together with their inline permission lists.
type LedgerStore interface {
	CreateLedger(ctx context.Context, l *models.Ledger) error
	GetLedger(ctx context.Context, id models.LedgerID) (*models.Ledger, error)
	ListLedgers(ctx context.Context) ([]*models.Ledger, error)
	UpdateLedger(ctx context.Context, l *models.Ledger) error
	DeleteLedger(ctx context.Context, id models.LedgerID) error
}

// TransactionStore persists transactions.
type TransactionStore interface {
	// CreateTransactions inserts txns as one batch, assigning each a Seq in
	// slice order. Either all are stored or none are.
	CreateTransactions(ctx context.Context, txns []*models.Transaction) error
	GetTransaction(ctx context.Context, id models.TransactionID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ledger models.LedgerID) ([]*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id models.TransactionID) error
	// DeleteTransactionsByLedger removes every transaction of ledger and
	// returns how many were removed.
	DeleteTransactionsByLedger(ctx context.Context, ledger models.LedgerID) (int, error)
	CountTransactions(ctx context.Context) (int, error)
}

// MessageStore persists admin mailbox messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error)
	ListMessages(ctx context.Context) ([]*models.Message, error)
	UpdateMessage(ctx context.Context, m *models.Message) error
	DeleteMessage(ctx context.Context, id models.MessageID) error
}

// Repository is the full storage surface the service runs on.
type Repository interface {
	UserStore
	LedgerStore
	TransactionStore
	MessageStore
}
