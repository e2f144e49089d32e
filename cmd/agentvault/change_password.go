package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Re-encrypt the vault under a new master password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		if !c.Exists() {
			return fmt.Errorf("no vault at %s, run: agentvault init", vaultDir)
		}

		oldPassword, err := promptPassword("Current master password: ")
		if err != nil {
			return err
		}

		s := startSpinner("unlocking vault...")
		ok, err := c.Unlock(oldPassword)
		s.Stop()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unlock failed: wrong password or corrupted vault")
		}

		newPassword, err := promptNewPassword("New master password")
		if err != nil {
			return err
		}

		s = startSpinner("re-encrypting vault...")
		err = c.ChangePassword(oldPassword, newPassword)
		s.Stop()
		if err != nil {
			return err
		}

		fmt.Printf("%s Master password changed\n", successPrefix())
		return nil
	},
}
