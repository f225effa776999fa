package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func newSecretCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a random value suitable for AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 32 {
				return fmt.Errorf("--bytes must be at least 32")
			}
			buf := make([]byte, size)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.RawURLEncoding.EncodeToString(buf))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 48, "number of random bytes")
	return cmd
}
