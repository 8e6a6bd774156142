package main

import (
	"github.com/goliatone/go-blog/config"
	"github.com/goliatone/go-blog/logging"
	"github.com/spf13/cobra"
)

// BuildVersion is set at link time
var BuildVersion = "dev"

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "blogd",
		Short: "blogd serves a small blogging API",
		Long: `blogd serves a small blogging API backed by Postgres or SQLite.

Configuration is read from the environment, and from .env.local and .env
when those files exist in the working directory.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", BuildVersion)
		},
	})

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newHashPasswordCommand(),
		newTokenCommand(),
		newUserCommand(),
	)

	return root
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config and builds the process logger from it
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	verbosity := 0
	if cfg.Debug {
		verbosity = 1
	}

	return cfg, logging.NewStd("blogd", verbosity), nil
}
