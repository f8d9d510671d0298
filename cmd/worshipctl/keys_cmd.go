package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgo/worship/api/pkg/jwt"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage JWT signing keys",
	}
	cmd.AddCommand(newKeysGenerateCmd())
	return cmd
}

func newKeysGenerateCmd() *cobra.Command {
	var privatePath, publicPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an RSA key pair for signing access tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := jwt.GenerateKeyPair(privatePath, publicPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privatePath, publicPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&privatePath, "private", "./keys/private.pem", "Private key output path")
	cmd.Flags().StringVar(&publicPath, "public", "./keys/public.pem", "Public key output path")
	return cmd
}
