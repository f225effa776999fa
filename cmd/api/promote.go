package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/shop-service/internal/app"
	"github.com/spec-kit/shop-service/internal/domain"
)

func newPromoteCmd(configPath *string) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "promote <username|email>",
		Short: "Set the status of an existing account (standard|admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			rt, err := app.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.UserService.SetStatus(cmd.Context(), args[0], domain.UserStatus(status))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Username, user.ID, user.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(domain.UserStatusAdmin), "new status: standard|admin")
	return cmd
}
