package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minevox/minevox-server/internal/app"
	"github.com/minevox/minevox-server/internal/config"
	"github.com/minevox/minevox-server/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the world server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrap := log.New(logLevel)

			cfg, resolvedPath, err := config.Load(bootstrap, configPath)
			if err != nil {
				return err
			}

			// Flags override whatever the file and environment said.
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().
				Str("config", resolvedPath).
				Str("addr", cfg.Addr).
				Str("default_world", cfg.DefaultWorld).
				Msg("starting minevox server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	return cmd
}
