// Package seed loads users, ledgers and transactions from a YAML file and
// applies them through the ledger service.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// File is the top-level seed document.
type File struct {
	Users   []models.CreateUserRequest `yaml:"users"`
	Ledgers []Ledger                   `yaml:"ledgers"`
}

// Ledger describes a ledger by its owner's email.
type Ledger struct {
	Name         string        `yaml:"name"`
	Owner        string        `yaml:"owner"`
	Currency     string        `yaml:"currency"`
	Description  string        `yaml:"description"`
	Permissions  []Permission  `yaml:"permissions"`
	Transactions []Transaction `yaml:"transactions"`
}

// Permission grants the user with Email a role on the enclosing ledger.
type Permission struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Transaction is one seeded row, validated like a CSV import.
type Transaction struct {
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
}

// Result counts what Apply created.
type Result struct {
	Users        int
	SkippedUsers int
	Ledgers      int
	Transactions int
}

// Load reads a seed file from path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a seed document.
func Parse(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return &file, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &file, nil
}

// Apply creates the users and ledgers of file. Users whose email already
// exists are skipped. Ledger owners and permission holders may be users from
// the file or users already stored.
func Apply(ctx context.Context, svc *ledger.Service, file *File, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := svc.ListUsers(ctx, access.System)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	byEmail := make(map[string]models.UserID, len(existing))
	for _, u := range existing {
		byEmail[strings.ToLower(u.Email)] = u.ID
	}

	res := &Result{}
	for i := range file.Users {
		req := file.Users[i]
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if _, ok := byEmail[email]; ok {
			logger.InfoContext(ctx, "seed user exists, skipping", "email", email)
			res.SkippedUsers++
			continue
		}
		u, err := svc.CreateUser(ctx, access.System, &req)
		if err != nil {
			return res, fmt.Errorf("user %s: %w", req.Email, err)
		}
		byEmail[email] = u.ID
		res.Users++
	}

	lookup := func(email string) (models.UserID, error) {
		id, ok := byEmail[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			return "", fmt.Errorf("unknown user %q", email)
		}
		return id, nil
	}

	for _, sl := range file.Ledgers {
		owner, err := lookup(sl.Owner)
		if err != nil {
			return res, fmt.Errorf("ledger %s: owner: %w", sl.Name, err)
		}
		perms := make([]models.PermissionRequest, 0, len(sl.Permissions))
		for _, sp := range sl.Permissions {
			id, err := lookup(sp.Email)
			if err != nil {
				return res, fmt.Errorf("ledger %s: permission: %w", sl.Name, err)
			}
			perms = append(perms, models.PermissionRequest{User: id, Role: sp.Role})
		}

		l, err := svc.CreateLedger(ctx, access.System, &models.CreateLedgerRequest{
			Name:        sl.Name,
			OwnerID:     owner,
			Currency:    sl.Currency,
			Description: sl.Description,
			Permissions: perms,
		})
		if err != nil {
			return res, fmt.Errorf("ledger %s: %w", sl.Name, err)
		}
		res.Ledgers++

		if len(sl.Transactions) == 0 {
			continue
		}
		rows := make([]models.RawRow, len(sl.Transactions))
		for i, t := range sl.Transactions {
			rows[i] = models.RawRow{"date": t.Date, "description": t.Description, "amount": t.Amount}
		}
		n, err := svc.ImportTransactions(ctx, access.System, l.ID, rows)
		if err != nil {
			return res, fmt.Errorf("ledger %s: transactions: %w", sl.Name, err)
		}
		res.Transactions += n
	}

	logger.InfoContext(ctx, "seed applied",
		"users", res.Users,
		"skipped_users", res.SkippedUsers,
		"ledgers", res.Ledgers,
		"transactions", res.Transactions,
	)
	return res, nil
}
