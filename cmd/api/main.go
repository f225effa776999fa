package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/observability"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "shop-service",
		Short:         "Shop accounts and catalog API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SHOP_CONFIG"), "path to a YAML config file (env SHOP_CONFIG)")

	serve := newServeCmd(&configPath)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newMigrateCmd(&configPath),
		newPromoteCmd(&configPath),
		newSecretCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger, nil
}
