package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-blog/api"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var accessLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				cmd.PrintErrf("invalid configuration: %v\n", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := newService(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}

			apiCfg := svc.apiConfig()
			if accessLog {
				apiCfg.AccessLog = cmd.OutOrStdout()
			}
			app := api.New(apiCfg)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "port", cfg.Port, "env", cfg.AppEnv)
				errCh <- app.Listen(":" + cfg.Port)
			}()

			select {
			case err = <-errCh:
				logger.Error("server stopped", "error", err)
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if serr := app.ShutdownWithContext(shutdownCtx); serr != nil {
				logger.Error("failed to stop the server", "error", serr)
			}
			if cerr := svc.Close(shutdownCtx); cerr != nil {
				logger.Error("failed to release resources", "error", cerr)
			}

			return err
		},
	}

	cmd.Flags().BoolVar(&accessLog, "access-log", true, "write one line per request to stdout")

	return cmd
}
