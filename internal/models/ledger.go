package models

import (
	"fmt"
	"strings"
	"time"
)

// Currency is the denomination of a ledger.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBTC Currency = "BTC"
)

// ParseCurrency parses a currency code. An empty code defaults to USD.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case "":
		return CurrencyUSD, nil
	case CurrencyUSD, CurrencyBTC:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported currency %q", s)
	}
}

// LedgerRole is a role granted on a single ledger. It is unrelated to the
// platform-level GlobalRole.
type LedgerRole string

const (
	LedgerRoleViewer LedgerRole = "viewer"
	LedgerRoleEditor LedgerRole = "editor"
	LedgerRoleAdmin  LedgerRole = "admin"
)

// ParseLedgerRole parses a ledger role. An empty role defaults to viewer.
func ParseLedgerRole(s string) (LedgerRole, error) {
	switch r := LedgerRole(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return LedgerRoleViewer, nil
	case LedgerRoleViewer, LedgerRoleEditor, LedgerRoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unsupported ledger role %q", s)
	}
}

// Permission grants a user a role on a ledger.
type Permission struct {
	User    UserID     `json:"user"`
	Role    LedgerRole `json:"role"`
	AddedBy UserID     `json:"added_by,omitempty"`
	AddedAt time.Time  `json:"added_at"`
}

// Ledger is a named account with one owner and zero or more shared users.
type Ledger struct {
	ID          LedgerID     `json:"id"`
	Name        string       `json:"name"`
	Owner       UserID       `json:"owner"`
	Currency    Currency     `json:"currency"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	CreatedBy   UserID       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PermissionFor returns the permission entry of user, if any.
func (l *Ledger) PermissionFor(user UserID) (Permission, bool) {
	for _, p := range l.Permissions {
		if p.User == user {
			return p, true
		}
	}
	return Permission{}, false
}

// HasMember reports whether user owns l or appears in its permissions.
func (l *Ledger) HasMember(user UserID) bool {
	if l.Owner == user {
		return true
	}
	_, ok := l.PermissionFor(user)
	return ok
}

// Admins returns the users holding the ledger-level admin role, in
// permission-list order.
func (l *Ledger) Admins() []UserID {
	var out []UserID
	for _, p := range l.Permissions {
		if p.Role == LedgerRoleAdmin {
			out = append(out, p.User)
		}
	}
	return out
}

// LedgerSummary is a ledger with its owner populated for display.
type LedgerSummary struct {
	Ledger
	OwnerRef *UserRef `json:"owner_ref,omitempty"`
}

// PermissionRequest is a permission entry as supplied by a caller.
type PermissionRequest struct {
	User UserID `json:"user"`
	Role string `json:"role,omitempty"`
}

// CreateLedgerRequest represents the request to create a ledger.
type CreateLedgerRequest struct {
	Name        string              `json:"name"`
	OwnerID     UserID              `json:"ownerId"`
	Currency    string              `json:"currency,omitempty"`
	Description string              `json:"description,omitempty"`
	Permissions []PermissionRequest `json:"permissions,omitempty"`
}

// UpdateLedgerRequest represents a partial ledger update. Nil fields are left untouched.
type UpdateLedgerRequest struct {
	Name        *string              `json:"name,omitempty"`
	OwnerID     *UserID              `json:"ownerId,omitempty"`
	Currency    *string              `json:"currency,omitempty"`
	Description *string              `json:"description,omitempty"`
	Permissions *[]PermissionRequest `json:"permissions,omitempty"`
}

// UpdatePermissionsRequest replaces the permission list of a ledger.
type UpdatePermissionsRequest struct {
	Permissions []PermissionRequest `json:"permissions"`
}
