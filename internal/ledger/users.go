package ledger

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/events"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

const invitedUserName = "Invited User"

// ListUsers returns every user, oldest first.
func (s *Service) ListUsers(ctx context.Context, p access.Principal) ([]*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	slices.SortStableFunc(users, func(a, b *models.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return users, nil
}

// CurrentUser returns the user behind p.
func (s *Service) CurrentUser(ctx context.Context, p access.Principal) (*models.User, error) {
	return s.user(ctx, p.UserID)
}

// CreateUser creates an active user with a password.
func (s *Service) CreateUser(ctx context.Context, p access.Principal, req *models.CreateUserRequest) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, invalid("Email is required")
	}
	role, err := parseGlobalRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, invalid("Password is required")
	}

	u := &models.User{
		ID:           models.NewUserID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if u.Name == "" {
		u.Name = email
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, storageError("create user", err)
	}
	return u, nil
}

// InviteUser creates a temporary user and publishes an invitation carrying
// the signup link.
func (s *Service) InviteUser(ctx context.Context, p access.Principal, req *models.InviteUserRequest) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, invalid("Email is required")
	}
	role, err := parseGlobalRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	token, err := auth.NewInviteToken()
	if err != nil {
		return nil, storageError("invite user", err)
	}

	u := &models.User{
		ID:          models.NewUserID(),
		Name:        invitedUserName,
		Email:       email,
		Role:        role,
		Temp:        true,
		InviteToken: token,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, storageError("create user", err)
	}

	s.publish(ctx, events.New(events.TypeUserInvited, u.ID.String(), map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"role":       u.Role,
		"invited_by": p.UserID,
		"invite_url": s.clientURL + "/signup?token=" + url.QueryEscape(token),
	}))
	return u, nil
}

// UpdateUser changes a user's name and platform role.
func (s *Service) UpdateUser(ctx context.Context, p access.Principal, id models.UserID, req *models.UpdateUserRequest) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			u.Name = name
		}
	}
	if req.Role != nil && *req.Role != "" {
		if !req.Role.Valid() {
			return nil, invalid("Invalid role %q", *req.Role)
		}
		u.Role = *req.Role
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, storageError("update user", err)
	}
	return u, nil
}

// DeleteUser removes a user. Ledgers referencing the user are left as they are.
func (s *Service) DeleteUser(ctx context.Context, p access.Principal, id models.UserID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, u.ID); err != nil {
		return storageError("delete user", err)
	}
	return nil
}

// Signup completes an invitation: the temporary user becomes active with the
// given name and password.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, invalid("Invitation token is required")
	}
	u, err := s.repo.GetUserByInviteToken(ctx, req.Token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalid("Invalid or expired invitation")
	}
	if err != nil {
		return nil, storageError("get user by invite", err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, invalid("Password is required")
	}

	u.Name = name
	u.PasswordHash = hash
	u.Temp = false
	u.InviteToken = ""
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, storageError("complete signup", err)
	}
	return u, nil
}

// Login checks password credentials.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalid("Invalid credentials")
	}
	if err != nil {
		return nil, storageError("get user by email", err)
	}
	if u.Temp {
		return nil, invalid("Invalid credentials")
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, invalid("Invalid credentials")
	}
	return u, nil
}

// LoginWithGoogle finds or creates the user matching a verified Google
// profile. A pending invitation for the same email is completed.
func (s *Service) LoginWithGoogle(ctx context.Context, profile *auth.GoogleProfile) (*models.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, invalid("Email not provided in Google response")
	}
	if !profile.EmailVerified {
		return nil, invalid("Google email not verified")
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		u = &models.User{
			ID:        models.NewUserID(),
			Name:      strings.TrimSpace(profile.Name),
			Email:     email,
			GoogleID:  profile.Subject,
			Role:      models.GlobalRoleUser,
			CreatedAt: s.now(),
		}
		if u.Name == "" {
			u.Name = email
		}
		if err := s.repo.CreateUser(ctx, u); err != nil {
			return nil, storageError("create user", err)
		}
		return u, nil
	}
	if err != nil {
		return nil, storageError("get user by email", err)
	}

	changed := false
	if u.Temp {
		u.Temp = false
		u.InviteToken = ""
		if name := strings.TrimSpace(profile.Name); name != "" {
			u.Name = name
		}
		changed = true
	}
	if u.GoogleID == "" {
		u.GoogleID = profile.Subject
		changed = true
	}
	if changed {
		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return nil, storageError("update user", err)
		}
	}
	return u, nil
}

func (s *Service) user(ctx context.Context, id models.UserID) (*models.User, error) {
	u, err := s.existingUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("User")
	}
	return u, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return invalid("User already exists")
	}
	if !errors.Is(err, models.ErrNotFound) {
		return storageError("get user by email", err)
	}
	return nil
}

func parseGlobalRole(r models.GlobalRole) (models.GlobalRole, error) {
	if r == "" {
		return models.GlobalRoleUser, nil
	}
	if !r.Valid() {
		return "", invalid("Invalid role %q", r)
	}
	return r, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
