package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/shop-service/internal/app"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := app.Open(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to start", zap.Error(err))
				return err
			}
			defer rt.Close()

			server := rt.NewHTTPApp()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening",
					zap.String("addr", cfg.App.Addr()),
					zap.String("driver", cfg.Database.Driver),
					zap.String("token_transport", cfg.Auth.TokenTransport))
				return server.Listen(cfg.App.Addr())
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down", zap.NamedError("cause", context.Cause(gctx)))
				return server.ShutdownWithTimeout(shutdownTimeout)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
