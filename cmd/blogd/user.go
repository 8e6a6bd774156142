package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-blog/repository"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(newUserAddCommand())

	return cmd
}

func newUserAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username> [password]",
		Short: "Register an account",
		Long: `Register an account.

The password is read from the first line of stdin when it is not given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFrom(cmd, args[1:])
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				cmd.PrintErrf("invalid configuration: %v\n", err)
				return err
			}

			db, err := persistence.Connect(cmd.Context(), cfg.Database(), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := persistence.CreateSchema(cmd.Context(), db, repository.Models()...); err != nil {
				return err
			}

			repo := repository.NewRepositoryManager(db)
			users := auth.NewUserProvider(repo.Users(), auth.NewBcrypt(cfg.BcryptCost), logger)

			var identity *auth.Identity
			err = repo.RunInTx(cmd.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
				identity, err = users.Register(ctx, tx, args[0], password)
				return err
			})
			if err != nil {
				cmd.PrintErrf("failed to register %s: %v\n", args[0], err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id=%d username=%s\n", identity.ID, identity.Username)
			return nil
		},
	}
}
