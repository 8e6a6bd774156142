package main

import (
	"fmt"
	"time"

	"github.com/goliatone/go-blog/auth"
	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}

	cmd.AddCommand(newTokenIssueCommand(), newTokenInspectCommand())

	return cmd
}

func newTokenIssueCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue <username>",
		Short: "Sign an access token for username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				cmd.PrintErrf("invalid configuration: %v\n", err)
				return err
			}

			tokens, err := auth.NewTokenService(cfg, logger)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.GetTokenExpiration()
			}

			token, err := tokens.Issue(args[0], ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to TOKEN_EXPIRE_MINUTES")

	return cmd
}

func newTokenInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Validate a token and print its subject and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				cmd.PrintErrf("invalid configuration: %v\n", err)
				return err
			}

			tokens, err := auth.NewTokenService(cfg, logger)
			if err != nil {
				return err
			}

			claims, err := tokens.ParseClaims(args[0])
			if err != nil {
				cmd.PrintErrf("token rejected: %v\n", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sub=%s exp=%s\n",
				claims.Username(), claims.Expires().UTC().Format(time.RFC3339))
			return nil
		},
	}
}
