package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/estate/internal/auth"
)

func newTokenCommand() *cobra.Command {
	var (
		userID int64
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a back-office user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if a.cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			if ttl == 0 {
				ttl = a.cfg.Auth.TokenTTL
			}

			token, err := auth.GenerateToken(a.cfg.Auth.JWTSecret, userID, name, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id the token acts as")
	cmd.Flags().StringVar(&name, "name", "", "display name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL)")
	return cmd
}
