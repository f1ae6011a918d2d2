// Package access resolves what a principal may do on a ledger.
//
// Resolution is a pure function of the principal and a ledger snapshot. The
// order of checks is fixed: platform admin, owner, permission entry, none.
package access

import (
	"context"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// Role is the effective role of a principal on one ledger.
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleEditor
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Principal is the authenticated caller of an operation, as resolved by the
// identity layer before the core is invoked.
type Principal struct {
	UserID models.UserID
	Role   models.GlobalRole
}

// System is the principal of trusted maintenance tasks that run outside an
// HTTP request, such as seeding and command-line exports.
var System = Principal{UserID: "system", Role: models.GlobalRoleAdmin}

// IsPlatformAdmin reports whether p holds the platform admin role.
func (p Principal) IsPlatformAdmin() bool { return p.Role == models.GlobalRoleAdmin }

// Resolve returns the effective role of p on l.
func Resolve(p Principal, l *models.Ledger) Role {
	if p.IsPlatformAdmin() {
		return RoleAdmin
	}
	if l == nil || p.UserID == "" {
		return RoleNone
	}
	if l.Owner == p.UserID {
		return RoleOwner
	}
	if perm, ok := l.PermissionFor(p.UserID); ok {
		return fromLedgerRole(perm.Role)
	}
	return RoleNone
}

func fromLedgerRole(r models.LedgerRole) Role {
	switch r {
	case models.LedgerRoleAdmin:
		return RoleAdmin
	case models.LedgerRoleEditor:
		return RoleEditor
	case models.LedgerRoleViewer:
		return RoleViewer
	default:
		// Unknown roles persisted by older data still grant visibility.
		return RoleViewer
	}
}

// CanRead reports whether p may see l and its transactions.
func CanRead(p Principal, l *models.Ledger) bool {
	return Resolve(p, l) != RoleNone
}

// CanManagePermissions reports whether p may replace the permission list of l.
// Only the owner and platform admins qualify; a ledger-level admin does not.
func CanManagePermissions(p Principal, l *models.Ledger) bool {
	if p.IsPlatformAdmin() {
		return true
	}
	return l != nil && p.UserID != "" && l.Owner == p.UserID
}

// CanMutate reports whether p may create, update or delete ledgers and
// transactions. Ledger-level editor and admin roles do not grant writes.
func CanMutate(p Principal) bool {
	return p.IsPlatformAdmin()
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
