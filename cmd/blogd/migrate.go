package main

import (
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-blog/repository"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			cmd.Println("schema is up to date")
			return nil
		},
	}
}
