package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/pkg/credentials"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create a credential encryption key",
	Long: `Print a new random Fernet key. Store it as credentials.key or in
SQLPROVISION_CREDENTIALS_KEY; the same key decrypts the manifest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := credentials.GenerateKey()
		if err != nil {
			return cli.GeneralError("generating key", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}
