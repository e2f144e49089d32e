package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Irreversibly destroy the vault",
	Long: fmt.Sprintf(`Overwrites the salt and vault files with random bytes three times, unlinks
them, and removes the vault directory. There is no undo and no recovery.

You must type the confirmation phrase exactly:

    %s`, agentvault.WipeConfirmation),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		if !c.Exists() {
			return fmt.Errorf("no vault at %s", vaultDir)
		}

		fmt.Printf("%s This permanently destroys the vault at %s\n", warnPrefix(), vaultDir)
		phrase, err := promptLine("Type the confirmation phrase: ")
		if err != nil {
			return err
		}

		if err := c.EmergencyWipe(phrase); err != nil {
			return err
		}
		fmt.Printf("%s Vault destroyed\n", successPrefix())
		return nil
	},
}
