package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault with a master password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		if c.Exists() {
			return fmt.Errorf("vault already exists at %s (use 'agentvault wipe' to destroy it first)", vaultDir)
		}

		password, err := promptNewPassword("Master password")
		if err != nil {
			return err
		}

		s := startSpinner("initializing vault...")
		err = c.Initialize(password)
		s.Stop()
		if err != nil {
			return err
		}

		fmt.Printf("%s Vault created at %s\n", successPrefix(), vaultDir)
		fmt.Printf("%s Losing the master password or the %s file makes the vault unrecoverable\n", warnPrefix(), ".vault_salt")
		return nil
	},
}
