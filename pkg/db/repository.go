package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = models.ErrNotFound

const timeLayout = time.RFC3339Nano

// Repository stores users, ledgers, transactions and messages in SQL tables.
type Repository struct {
	conn *Connection
}

// NewRepository creates a Repository on conn.
func NewRepository(conn *Connection) *Repository {
	return &Repository{conn: conn}
}

// Close closes the underlying connection.
func (r *Repository) Close() error {
	return r.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// affected maps an UPDATE or DELETE that touched no row to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Users.

const userColumns = `id, name, email, password_hash, google_id, role, temp, invite_token, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		temp      int
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID, &u.Role, &temp, &u.InviteToken, &createdAt); err != nil {
		return nil, err
	}
	u.Temp = temp != 0
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.GoogleID, u.Role,
		boolToInt(u.Temp), u.InviteToken, formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, noRows(err)
}

// GetUserByEmail retrieves a user by email, compared case-insensitively.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	return u, noRows(err)
}

// GetUserByInviteToken retrieves the pending user holding token.
func (r *Repository) GetUserByInviteToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE invite_token = ?`, token)
	u, err := scanUser(row)
	return u, noRows(err)
}

// ListUsers retrieves all users.
func (r *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser overwrites an existing user.
func (r *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	return affected(r.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, google_id = ?, role = ?, temp = ?, invite_token = ? WHERE id = ?`,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, u.GoogleID, u.Role, boolToInt(u.Temp), u.InviteToken, u.ID,
	))
}

// DeleteUser deletes a user by ID.
func (r *Repository) DeleteUser(ctx context.Context, id models.UserID) error {
	return affected(r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id))
}

// Ledgers.

const ledgerColumns = `id, name, owner_id, currency, description, permissions, created_by, created_at`

func scanLedger(row rowScanner) (*models.Ledger, error) {
	var (
		l         models.Ledger
		perms     string
		createdAt string
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Owner, &l.Currency, &l.Description, &perms, &l.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(perms), &l.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions of ledger %s: %w", l.ID, err)
	}
	if l.Permissions == nil {
		l.Permissions = []models.Permission{}
	}
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

func encodePermissions(perms []models.Permission) (string, error) {
	if perms == nil {
		perms = []models.Permission{}
	}
	data, err := json.Marshal(perms)
	if err != nil {
		return "", fmt.Errorf("failed to encode permissions: %w", err)
	}
	return string(data), nil
}

// CreateLedger inserts a ledger.
func (r *Repository) CreateLedger(ctx context.Context, l *models.Ledger) error {
	perms, err := encodePermissions(l.Permissions)
	if err != nil {
		return err
	}
	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO ledgers (`+ledgerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Owner, l.Currency, l.Description, perms, l.CreatedBy, formatTime(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}

// GetLedger retrieves a ledger by ID.
func (r *Repository) GetLedger(ctx context.Context, id models.LedgerID) (*models.Ledger, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM ledgers WHERE id = ?`, id)
	l, err := scanLedger(row)
	return l, noRows(err)
}

// ListLedgers retrieves all ledgers.
func (r *Repository) ListLedgers(ctx context.Context) ([]*models.Ledger, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+ledgerColumns+` FROM ledgers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []*models.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, rows.Err()
}

// UpdateLedger overwrites an existing ledger, permissions included.
func (r *Repository) UpdateLedger(ctx context.Context, l *models.Ledger) error {
	perms, err := encodePermissions(l.Permissions)
	if err != nil {
		return err
	}
	return affected(r.conn.ExecContext(ctx,
		`UPDATE ledgers SET name = ?, owner_id = ?, currency = ?, description = ?, permissions = ? WHERE id = ?`,
		l.Name, l.Owner, l.Currency, l.Description, perms, l.ID,
	))
}

// DeleteLedger deletes a ledger by ID. Its transactions are not touched.
func (r *Repository) DeleteLedger(ctx context.Context, id models.LedgerID) error {
	return affected(r.conn.ExecContext(ctx, `DELETE FROM ledgers WHERE id = ?`, id))
}

// Transactions.

const transactionColumns = `seq, id, ledger_id, date, description, amount, created_by, created_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t         models.Transaction
		date      string
		createdAt string
	)
	if err := row.Scan(&t.Seq, &t.ID, &t.Ledger, &date, &t.Description, &t.Amount, &t.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	d, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	t.Date = d
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// CreateTransactions inserts txns in one SQL transaction. Seq comes from the
// table's auto-increment key.
func (r *Repository) CreateTransactions(ctx context.Context, txns []*models.Transaction) error {
	seqs := make([]int64, len(txns))
	query := r.conn.Rebind(`INSERT INTO transactions (id, ledger_id, date, description, amount, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING seq`)

	err := r.conn.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range txns {
			if t.ID == "" {
				return fmt.Errorf("transaction %d has no ID", i)
			}
			err := stmt.QueryRowContext(ctx,
				t.ID, t.Ledger, t.Date.Format(models.DateFormat), t.Description,
				t.Amount.String(), t.CreatedBy, formatTime(t.CreatedAt),
			).Scan(&seqs[i])
			if err != nil {
				return fmt.Errorf("failed to insert transaction %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, t := range txns {
		t.Seq = seqs[i]
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (r *Repository) GetTransaction(ctx context.Context, id models.TransactionID) (*models.Transaction, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	return t, noRows(err)
}

// ListTransactions retrieves the transactions of one ledger in insertion order.
func (r *Repository) ListTransactions(ctx context.Context, ledger models.LedgerID) ([]*models.Transaction, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE ledger_id = ? ORDER BY seq`, ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// UpdateTransaction overwrites the mutable fields of a transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	return affected(r.conn.ExecContext(ctx,
		`UPDATE transactions SET date = ?, description = ?, amount = ? WHERE id = ?`,
		t.Date.Format(models.DateFormat), t.Description, t.Amount.String(), t.ID,
	))
}

// DeleteTransaction deletes a transaction by ID.
func (r *Repository) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	return affected(r.conn.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id))
}

// DeleteTransactionsByLedger deletes every transaction of ledger.
func (r *Repository) DeleteTransactionsByLedger(ctx context.Context, ledger models.LedgerID) (int, error) {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM transactions WHERE ledger_id = ?`, ledger)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountTransactions returns the number of stored transactions.
func (r *Repository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Messages.

const messageColumns = `id, sender_id, content, is_read, created_at`

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m         models.Message
		isRead    int
		createdAt string
	)
	if err := row.Scan(&m.ID, &m.Sender, &m.Content, &isRead, &createdAt); err != nil {
		return nil, err
	}
	m.IsRead = isRead != 0
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// CreateMessage inserts a message.
func (r *Repository) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Sender, m.Content, boolToInt(m.IsRead), formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (r *Repository) GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	return m, noRows(err)
}

// ListMessages retrieves all messages.
func (r *Repository) ListMessages(ctx context.Context) ([]*models.Message, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// UpdateMessage overwrites an existing message.
func (r *Repository) UpdateMessage(ctx context.Context, m *models.Message) error {
	return affected(r.conn.ExecContext(ctx,
		`UPDATE messages SET content = ?, is_read = ? WHERE id = ?`,
		m.Content, boolToInt(m.IsRead), m.ID,
	))
}

// DeleteMessage deletes a message by ID.
func (r *Repository) DeleteMessage(ctx context.Context, id models.MessageID) error {
	return affected(r.conn.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id))
}
