// Package auth issues and verifies bearer tokens, hashes passwords and
// resolves external identities. It turns credentials into an access.Principal;
// nothing past the HTTP boundary sees a token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned when a token is malformed, expired or signed
// with another key.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenUser is the identity embedded in a token.
type TokenUser struct {
	ID   models.UserID     `json:"id"`
	Role models.GlobalRole `json:"role"`
}

// Claims are the JWT claims issued by TokenManager.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. A non-positive ttl uses 24 hours.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken issues a token for u.
func (tm *TokenManager) GenerateToken(u *models.User) (string, error) {
	now := tm.now()
	claims := &Claims{
		User: TokenUser{ID: u.ID, Role: u.Role},
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tm.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies tokenString and returns the principal it names.
func (tm *TokenManager) ValidateToken(tokenString string) (access.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return access.Principal{}, ErrInvalidToken
	}
	if claims.User.ID == "" || !claims.User.Role.Valid() {
		return access.Principal{}, ErrInvalidToken
	}
	return access.Principal{UserID: claims.User.ID, Role: claims.User.Role}, nil
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }
