package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/pkg/jwt"
)

type tokenOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

func newTokenCmd() *cobra.Command {
	var (
		keyPath string
		userID  string
		email   string
		role    string
		issuer  string
		exp     time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for development and scripting",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch model.UserRole(role) {
			case model.UserRoleMusician, model.UserRoleLeader, model.UserRoleAdmin:
			default:
				return fmt.Errorf("invalid --role %q: want musician, leader or admin", role)
			}

			svc, err := jwt.NewService(jwt.Config{
				PrivateKeyPath: keyPath,
				Issuer:         issuer,
				Expiration:     exp,
			})
			if err != nil {
				return fmt.Errorf("%w (generate keys with: worshipctl keys generate)", err)
			}

			token, err := svc.Sign(jwt.Claims{UserID: userID, Email: email, Role: role})
			if err != nil {
				return err
			}

			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}
			return writeJSON(tokenOutput{
				AccessToken: token,
				TokenType:   "Bearer",
				ExpiresIn:   int(exp.Seconds()),
				UserID:      userID,
				Email:       email,
				Role:        role,
			})
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "./keys/private.pem", "Path to the JWT private key")
	cmd.Flags().StringVar(&userID, "user", "", "User id for the token (required)")
	cmd.Flags().StringVar(&email, "email", "admin@worship.local", "Email claim")
	cmd.Flags().StringVar(&role, "role", string(model.UserRoleAdmin), "Role claim: musician, leader or admin")
	cmd.Flags().StringVar(&issuer, "issuer", "worship.forgo.software", "JWT issuer, must match the server")
	cmd.Flags().DurationVar(&exp, "exp", 7*24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
