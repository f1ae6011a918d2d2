package ledger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/balance"
	"github.com/Domi-X-in/financial-ledger-app/internal/csvio"
	"github.com/Domi-X-in/financial-ledger-app/internal/events"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// ListLedgersForUser returns the ledgers p can see: every ledger for a
// platform admin, otherwise those p owns or appears in. Owners are populated
// for display.
func (s *Service) ListLedgersForUser(ctx context.Context, p access.Principal) ([]models.LedgerSummary, error) {
	all, err := s.repo.ListLedgers(ctx)
	if err != nil {
		return nil, storageError("list ledgers", err)
	}
	sortLedgers(all)

	owners := make(map[models.UserID]*models.UserRef)
	out := make([]models.LedgerSummary, 0, len(all))
	for _, l := range all {
		if !p.IsPlatformAdmin() && !l.HasMember(p.UserID) {
			continue
		}
		ref, ok := owners[l.Owner]
		if !ok {
			ref, err = s.userRef(ctx, l.Owner)
			if err != nil {
				return nil, err
			}
			owners[l.Owner] = ref
		}
		out = append(out, models.LedgerSummary{Ledger: *l, OwnerRef: ref})
	}
	return out, nil
}

// GetLedger returns a readable ledger with its transactions sorted by date and
// annotated with running balances.
func (s *Service) GetLedger(ctx context.Context, p access.Principal, id models.LedgerID) (*models.LedgerView, error) {
	l, err := s.readableLedger(ctx, p, id)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.ListTransactions(ctx, l.ID)
	if err != nil {
		return nil, storageError("list transactions", err)
	}

	balanced := balance.WithBalances(txns)
	total := balance.Final(balanced)
	return &models.LedgerView{
		Ledger:         l,
		Transactions:   balanced,
		Balance:        total,
		BalanceDisplay: balance.Format(total, l.Currency),
	}, nil
}

// ListTransactions returns the balanced transactions of a readable ledger.
func (s *Service) ListTransactions(ctx context.Context, p access.Principal, id models.LedgerID) ([]models.BalancedTransaction, error) {
	view, err := s.GetLedger(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return view.Transactions, nil
}

// ExportCSV renders the transactions of a readable ledger as CSV and returns
// the suggested file name with the document.
func (s *Service) ExportCSV(ctx context.Context, p access.Principal, id models.LedgerID) (string, []byte, error) {
	view, err := s.GetLedger(ctx, p, id)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := csvio.Write(&buf, view.Transactions); err != nil {
		return "", nil, storageError("write csv", err)
	}
	return csvio.FileName(view.Ledger.Name), buf.Bytes(), nil
}

// CreateLedger creates a ledger. The owner must exist and always receives an
// admin permission entry in addition to implicit ownership.
func (s *Service) CreateLedger(ctx context.Context, p access.Principal, req *models.CreateLedgerRequest) (*models.Ledger, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	owner, err := s.existingUser(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, invalid("Invalid owner ID")
	}
	currency, err := models.ParseCurrency(req.Currency)
	if err != nil {
		return nil, invalid("Invalid currency %q", req.Currency)
	}

	now := s.now()
	l := &models.Ledger{
		ID:          models.NewLedgerID(),
		Name:        name,
		Owner:       owner.ID,
		Currency:    currency,
		Description: req.Description,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
	}
	perms, err := s.resolvePermissions(ctx, p, l.ID, req.Permissions)
	if err != nil {
		return nil, err
	}
	l.Permissions = withOwnerAdmin(perms, owner.ID, p.UserID, now)

	if err := s.repo.CreateLedger(ctx, l); err != nil {
		return nil, storageError("create ledger", err)
	}
	s.logger.InfoContext(ctx, "ledger created", "ledger_id", l.ID, "owner", l.Owner, "created_by", p.UserID)

	if owner.ID != p.UserID {
		s.publish(ctx, events.New(events.TypeLedgerCreated, l.ID.String(), map[string]any{
			"ledger_id":   l.ID,
			"ledger_name": l.Name,
			"owner_id":    owner.ID,
			"owner_email": owner.Email,
			"created_by":  p.UserID,
		}))
	}
	return l, nil
}

// UpdateLedger applies a partial update. A supplied permission list replaces
// the current one; entries naming unknown users are dropped.
func (s *Service) UpdateLedger(ctx context.Context, p access.Principal, id models.LedgerID, req *models.UpdateLedgerRequest) (*models.Ledger, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	l, err := s.ledger(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			l.Name = name
		}
	}
	if req.OwnerID != nil && *req.OwnerID != "" {
		owner, err := s.existingUser(ctx, *req.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, invalid("Invalid owner ID")
		}
		l.Owner = owner.ID
	}
	if req.Currency != nil && *req.Currency != "" {
		currency, err := models.ParseCurrency(*req.Currency)
		if err != nil {
			return nil, invalid("Invalid currency %q", *req.Currency)
		}
		l.Currency = currency
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Permissions != nil {
		perms, err := s.resolvePermissions(ctx, p, l.ID, *req.Permissions)
		if err != nil {
			return nil, err
		}
		l.Permissions = perms
	}

	if err := s.repo.UpdateLedger(ctx, l); err != nil {
		return nil, storageError("update ledger", err)
	}
	return l, nil
}

// UpdateLedgerPermissions replaces the permission list of a ledger. Only the
// owner and platform admins may do so.
func (s *Service) UpdateLedgerPermissions(ctx context.Context, p access.Principal, id models.LedgerID, perms []models.PermissionRequest) (*models.Ledger, error) {
	l, err := s.ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManagePermissions(p, l) {
		return nil, accessDenied("Only the owner or admin can update permissions")
	}
	if perms == nil {
		return nil, invalid("Invalid permissions format")
	}

	resolved, err := s.resolvePermissions(ctx, p, l.ID, perms)
	if err != nil {
		return nil, err
	}
	l.Permissions = resolved

	if err := s.repo.UpdateLedger(ctx, l); err != nil {
		return nil, storageError("update permissions", err)
	}
	s.logger.InfoContext(ctx, "ledger permissions replaced", "ledger_id", l.ID, "entries", len(resolved), "by", p.UserID)
	return l, nil
}

// DeleteLedger removes a ledger and all its transactions. Transactions go
// first, so a failure part way leaves the ledger in place without them.
func (s *Service) DeleteLedger(ctx context.Context, p access.Principal, id models.LedgerID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	l, err := s.ledger(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.repo.DeleteTransactionsByLedger(ctx, l.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete ledger transactions", "ledger_id", l.ID, "error", err)
		return storageError("delete ledger transactions", err)
	}
	if err := s.repo.DeleteLedger(ctx, l.ID); err != nil {
		s.logger.ErrorContext(ctx, "ledger delete failed after its transactions were removed",
			"ledger_id", l.ID, "transactions_removed", removed, "error", err)
		return storageError("delete ledger", err)
	}
	s.logger.InfoContext(ctx, "ledger deleted", "ledger_id", l.ID, "transactions_removed", removed)
	return nil
}

func (s *Service) ledger(ctx context.Context, id models.LedgerID) (*models.Ledger, error) {
	if id == "" {
		return nil, notFound("Ledger")
	}
	l, err := s.repo.GetLedger(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Ledger")
	}
	if err != nil {
		return nil, storageError("get ledger", err)
	}
	return l, nil
}

func (s *Service) readableLedger(ctx context.Context, p access.Principal, id models.LedgerID) (*models.Ledger, error) {
	l, err := s.ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(p, l) {
		s.logger.InfoContext(ctx, "ledger access denied", "ledger_id", l.ID, "user_id", p.UserID)
		return nil, accessDenied("Access denied")
	}
	return l, nil
}

// existingUser returns the user with id, or nil when there is none.
func (s *Service) existingUser(ctx context.Context, id models.UserID) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get user", err)
	}
	return u, nil
}

func (s *Service) userRef(ctx context.Context, id models.UserID) (*models.UserRef, error) {
	u, err := s.existingUser(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	ref := u.Ref()
	return &ref, nil
}

// resolvePermissions converts requested entries into permissions granted by
// actor. Entries whose user does not exist are dropped and logged; an unknown
// role is rejected. A user listed twice keeps its first position and its last
// role.
func (s *Service) resolvePermissions(ctx context.Context, actor access.Principal, ledgerID models.LedgerID, reqs []models.PermissionRequest) ([]models.Permission, error) {
	now := s.now()
	perms := make([]models.Permission, 0, len(reqs))
	for _, r := range reqs {
		role, err := models.ParseLedgerRole(r.Role)
		if err != nil {
			return nil, invalid("Invalid permission role %q", r.Role)
		}
		u, err := s.existingUser(ctx, r.User)
		if err != nil {
			return nil, err
		}
		if u == nil {
			s.logger.WarnContext(ctx, "dropping permission for unknown user", "ledger_id", ledgerID, "user_id", r.User)
			continue
		}
		perms = upsertPermission(perms, models.Permission{
			User:    u.ID,
			Role:    role,
			AddedBy: actor.UserID,
			AddedAt: now,
		})
	}
	return perms, nil
}

func upsertPermission(perms []models.Permission, p models.Permission) []models.Permission {
	for i := range perms {
		if perms[i].User == p.User {
			perms[i] = p
			return perms
		}
	}
	return append(perms, p)
}

// withOwnerAdmin makes sure owner holds an admin entry.
func withOwnerAdmin(perms []models.Permission, owner, actor models.UserID, now time.Time) []models.Permission {
	return upsertPermission(perms, models.Permission{User: owner, Role: models.LedgerRoleAdmin, AddedBy: actor, AddedAt: now})
}

func sortLedgers(ls []*models.Ledger) {
	slices.SortStableFunc(ls, func(a, b *models.Ledger) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
}
