package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// DefaultUserInfoURL is Google's OpenID userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfile is the subset of the userinfo document the application uses.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleVerifier resolves Google OAuth2 access tokens to profiles.
type GoogleVerifier struct {
	userInfoURL string
}

// NewGoogleVerifier creates a verifier against userInfoURL. An empty URL
// uses DefaultUserInfoURL.
func NewGoogleVerifier(userInfoURL string) *GoogleVerifier {
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	return &GoogleVerifier{userInfoURL: userInfoURL}
}

// Verify fetches the profile belonging to accessToken.
func (v *GoogleVerifier) Verify(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	if accessToken == "" {
		return nil, errors.New("missing access token")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, errors.New("userinfo has no email")
	}
	return &profile, nil
}
