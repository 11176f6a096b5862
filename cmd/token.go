package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/s/ecourse/internal/auth"
	"github.com/s/ecourse/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		userID uint
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user with the configured secret",
		Long: "Sign a bearer token for a user with the configured TOKEN_SECRET and TOKEN_ISSUER.\n" +
			"Meant for local development when no OAuth2 provider is running.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return printToken(cmd.OutOrStdout(), cfg, userID, ttl)
		},
	}
	cmd.Flags().UintVarP(&userID, "user", "u", 0, "user id to put in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printToken(out io.Writer, cfg *config.Config, userID uint, ttl time.Duration) error {
	if cfg.Auth.TokenSecret == "" {
		return errors.New("token secret is required (TOKEN_SECRET)")
	}
	if userID == 0 {
		return errors.New("--user must be a positive id")
	}
	if ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	token, err := auth.NewTokenValidator(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer).Issue(userID, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
