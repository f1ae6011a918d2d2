package models

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by storage backends when a record is not found.
var ErrNotFound = errors.New("record not found")

// UserID identifies a User.
type UserID string

// LedgerID identifies a Ledger.
type LedgerID string

// TransactionID identifies a Transaction.
type TransactionID string

// MessageID identifies a Message.
type MessageID string

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.NewString()) }

// NewLedgerID returns a fresh random LedgerID.
func NewLedgerID() LedgerID { return LedgerID(uuid.NewString()) }

// NewTransactionID returns a fresh random TransactionID.
func NewTransactionID() TransactionID { return TransactionID(uuid.NewString()) }

// NewMessageID returns a fresh random MessageID.
func NewMessageID() MessageID { return MessageID(uuid.NewString()) }

func (id UserID) String() string        { return string(id) }
func (id LedgerID) String() string      { return string(id) }
func (id TransactionID) String() string { return string(id) }
func (id MessageID) String() string     { return string(id) }
