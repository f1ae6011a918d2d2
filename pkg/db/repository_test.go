package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

var _ ledger.Repository = (*Repository)(nil)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	repo := NewRepository(conn)
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRebind(t *testing.T) {
	pg := &Connection{dialect: DialectPostgres}
	if got := pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("Rebind() = %q", got)
	}
	lite := &Connection{dialect: DialectSQLite}
	if got := lite.Rebind("a = ?"); got != "a = ?" {
		t.Errorf("Rebind() = %q", got)
	}
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	u := &models.User{ID: "u1", Name: "Ricky", Email: "Ricky@Example.com", PasswordHash: "h", Role: models.GlobalRoleAdmin, Temp: true, InviteToken: "tok", CreatedAt: created}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "ricky@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error: %v", err)
	}
	if got.ID != "u1" || !got.Temp || got.PasswordHash != "h" || !got.CreatedAt.Equal(created) || got.Role != models.GlobalRoleAdmin {
		t.Errorf("user = %+v", got)
	}

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() missing error = %v", err)
	}
	if err := repo.UpdateUser(ctx, &models.User{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser() missing error = %v", err)
	}
}

func TestTransactionsBatch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	date := time.Date(2023, 7, 27, 0, 0, 0, 0, time.UTC)
	txns := []*models.Transaction{
		{ID: "t1", Ledger: "L1", Date: date, Description: "a", Amount: decimal.RequireFromString("500.00")},
		{ID: "t2", Ledger: "L1", Date: date, Description: "b", Amount: decimal.RequireFromString("-0.125")},
	}
	if err := repo.CreateTransactions(ctx, txns); err != nil {
		t.Fatalf("CreateTransactions() error: %v", err)
	}
	if txns[0].Seq >= txns[1].Seq {
		t.Errorf("seq not increasing: %d, %d", txns[0].Seq, txns[1].Seq)
	}

	got, err := repo.ListTransactions(ctx, "L1")
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(got) != 2 || !got[1].Amount.Equal(decimal.RequireFromString("-0.125")) || !got[0].Date.Equal(date) {
		t.Errorf("transactions = %+v", got)
	}

	bad := []*models.Transaction{
		{ID: "t3", Ledger: "L1", Date: date, Description: "c", Amount: decimal.NewFromInt(1)},
		{ID: "t1", Ledger: "L1", Date: date, Description: "duplicate", Amount: decimal.NewFromInt(1)},
	}
	if err := repo.CreateTransactions(ctx, bad); err == nil {
		t.Fatal("CreateTransactions() with duplicate ID should fail")
	}
	if n, _ := repo.CountTransactions(ctx); n != 2 {
		t.Errorf("CountTransactions() = %d after failed batch, expected 2", n)
	}

	removed, err := repo.DeleteTransactionsByLedger(ctx, "L1")
	if err != nil || removed != 2 {
		t.Errorf("DeleteTransactionsByLedger() = %d, %v", removed, err)
	}
}

func TestServiceOnSQLite(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	svc := ledger.NewService(repo, ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	owner, err := svc.CreateUser(ctx, access.System, &models.CreateUserRequest{Name: "Ricky", Email: "ricky@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	l, err := svc.CreateLedger(ctx, access.System, &models.CreateLedgerRequest{Name: "Ricky", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("CreateLedger() error: %v", err)
	}

	rows := []models.RawRow{
		{"date": "2023-07-27", "description": "Savings", "amount": "500.00"},
		{"date": "2023-07-28", "description": "Savings", "amount": "1000.00"},
		{"date": "2023-08-02", "description": "Savings", "amount": "1500.00"},
	}
	if _, err := svc.ImportTransactions(ctx, access.System, l.ID, rows); err != nil {
		t.Fatalf("ImportTransactions() error: %v", err)
	}

	p := access.Principal{UserID: owner.ID, Role: owner.Role}
	view, err := svc.GetLedger(ctx, p, l.ID)
	if err != nil {
		t.Fatalf("GetLedger() error: %v", err)
	}
	if len(view.Ledger.Permissions) != 1 || view.Ledger.Permissions[0].Role != models.LedgerRoleAdmin {
		t.Errorf("permissions = %+v", view.Ledger.Permissions)
	}
	if !view.Balance.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Balance = %s, expected 3000", view.Balance)
	}

	if err := svc.DeleteLedger(ctx, access.System, l.ID); err != nil {
		t.Fatalf("DeleteLedger() error: %v", err)
	}
	if n, _ := repo.CountTransactions(ctx); n != 0 {
		t.Errorf("%d transactions left after cascade", n)
	}
}
