package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/shop-service/internal/app"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			cfg.Database.RunMigrations = true
			rt, err := app.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			rt.Close()
			return nil
		},
	}
}
