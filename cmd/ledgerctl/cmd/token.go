package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
)

var tokenEmail string

// tokenCmd represents the token command.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long: `Issue a bearer token for an existing user, signed with JWT_SECRET.
Intended for development and scripted API calls.

Example:
  ledgerctl token --email admin@example.com`,
	Run: runToken,
}

func init() {
	// Flags
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "User email (required)")

	_ = tokenCmd.MarkFlagRequired("email")
}

func runToken(cmd *cobra.Command, args []string) {
	env, err := openEnvironment()
	exitOnError(err, "failed to open storage")
	defer env.Close()

	exitOnError(env.cfg.Validate("auth.jwtSecret"), "invalid configuration")

	email := strings.ToLower(strings.TrimSpace(tokenEmail))
	u, err := env.backend.GetUserByEmail(context.Background(), email)
	exitOnError(err, "failed to find user")

	tokens := auth.NewTokenManager(env.cfg.Auth.JWTSecret, env.cfg.Auth.TokenTTL)
	token, err := tokens.GenerateToken(u)
	exitOnError(err, "failed to issue token")

	fmt.Fprintln(cmd.OutOrStdout(), token)
}
