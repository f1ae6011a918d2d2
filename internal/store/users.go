package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// userRecord is the stored form of a user. It keeps the credential fields
// that the API representation hides.
type userRecord struct {
	ID           models.UserID     `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password_hash,omitempty"`
	GoogleID     string            `json:"google_id,omitempty"`
	Role         models.GlobalRole `json:"role"`
	Temp         bool              `json:"temp,omitempty"`
	InviteToken  string            `json:"invite_token,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func toUserRecord(u *models.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		Role:         u.Role,
		Temp:         u.Temp,
		InviteToken:  u.InviteToken,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRecord) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		GoogleID:     r.GoogleID,
		Role:         r.Role,
		Temp:         r.Temp,
		InviteToken:  r.InviteToken,
		CreatedAt:    r.CreatedAt,
	}
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		return fmt.Errorf("user has no ID")
	}
	if err := s.Put(ctx, BucketUsers, u.ID.String(), toUserRecord(u)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var rec userRecord
	if err := s.Get(ctx, BucketUsers, id.String(), &rec); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

// GetUserByEmail retrieves a user by email, compared case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, func(r *userRecord) bool {
		return strings.EqualFold(r.Email, email)
	})
}

// GetUserByInviteToken retrieves the pending user holding token.
func (s *Store) GetUserByInviteToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.findUser(ctx, func(r *userRecord) bool {
		return r.InviteToken == token
	})
}

func (s *Store) findUser(ctx context.Context, match func(*userRecord) bool) (*models.User, error) {
	recs, err := listAs(ctx, s, BucketUsers, match)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0].user(), nil
}

// ListUsers retrieves all users.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	recs, err := listAs[userRecord](ctx, s, BucketUsers, nil)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, len(recs))
	for i, r := range recs {
		users[i] = r.user()
	}
	return users, nil
}

// UpdateUser overwrites an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return s.Replace(ctx, BucketUsers, u.ID.String(), toUserRecord(u))
}

// DeleteUser deletes a user by ID.
func (s *Store) DeleteUser(ctx context.Context, id models.UserID) error {
	return s.Delete(ctx, BucketUsers, id.String())
}
